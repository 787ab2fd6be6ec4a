package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	failOn    string
}

func (p *recordingPublisher) Publish(_ context.Context, event notification.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && event.EventType == p.failOn {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event.EventType)
	return nil
}

func newTestScheduler(t *testing.T, publisher Publisher) (*Scheduler, *notification.Outbox, *clock.FakeClock) {
	t.Helper()

	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	t.Cleanup(restore)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	outbox := notification.NewOutbox(notification.Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		Clock: fake,
	})

	s, err := New(Params{
		Log:       zap.NewNop(),
		Outbox:    outbox,
		Publisher: publisher,
		GenID:     node,
		Clock:     fake,
		Config:    Config{BatchSize: 10},
	})
	require.NoError(t, err)
	return s, outbox, fake
}

func notifyEvents(t *testing.T, outbox *notification.Outbox, fake *clock.FakeClock, actions ...string) {
	t.Helper()
	for i, action := range actions {
		require.NoError(t, outbox.Notify(context.Background(), notification.Event{
			Action:      action,
			ClaimID:     snowflake.ID(100 + i),
			ClaimNumber: "WC-2025-00001",
			DealerID:    snowflake.ID(7),
			ToStatus:    "submitted",
			ActorID:     snowflake.ID(1),
		}))
		fake.Advance(time.Millisecond)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPublishClaimEventsJobDrainsOutbox(t *testing.T) {
	publisher := &recordingPublisher{}
	s, outbox, fake := newTestScheduler(t, publisher)
	notifyEvents(t, outbox, fake, "create", "submit", "approve")

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []string{"warranty_claim.create", "warranty_claim.submit", "warranty_claim.approve"}, publisher.published)
	pending, err := outbox.Pending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Len(t, publisher.published, 3)
}

func TestPublishClaimEventsJobStopsAtFirstFailure(t *testing.T) {
	publisher := &recordingPublisher{failOn: "warranty_claim.submit"}
	s, outbox, fake := newTestScheduler(t, publisher)
	notifyEvents(t, outbox, fake, "create", "submit", "approve")

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), jobPublishClaimEvents)

	assert.Equal(t, []string{"warranty_claim.create"}, publisher.published)
	pending, err := outbox.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "warranty_claim.submit", pending[0].EventType)

	publisher.failOn = ""
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"warranty_claim.create", "warranty_claim.submit", "warranty_claim.approve"}, publisher.published)
}

func TestRunJobTimeoutDoesNotReturnError(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Scheduler{log: zap.NewNop(), genID: node, clock: clock.NewFakeClock(time.Time{})}
	err = s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), getCounterValue(t, registry, "warrantyhub_relay_job_runs_total", map[string]string{"job": "timeout_job"}))
	assert.Equal(t, float64(1), getCounterValue(t, registry, "warrantyhub_relay_job_errors_total", map[string]string{
		"job":    "timeout_job",
		"reason": obsmetrics.ClaimReasonDeadlineExceeded,
	}))
}

func TestProvideConfigAppliesDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig().RunInterval, cfg.RunInterval)
	assert.Equal(t, DefaultConfig().BatchSize, cfg.BatchSize)
	assert.Equal(t, "warranty_claim_events", cfg.StreamKey)
}

func TestNewPublisherFallsBackToLogs(t *testing.T) {
	publisher := NewPublisher(nil, DefaultConfig(), zap.NewNop())
	_, ok := publisher.(*LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, publisher.Publish(context.Background(), notification.OutboxEvent{ID: "01J", EventType: "warranty_claim.create"}))
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetRelayMetricsForTest()
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetRelayMetricsForTest()
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
