package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobPublishClaimEvents = "publish_claim_events"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log       *zap.Logger
	Outbox    *notification.Outbox
	Publisher Publisher
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    Config
}

// Scheduler drains the claim_events outbox into the configured publisher.
type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	outbox    *notification.Outbox
	publisher Publisher
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Outbox == nil || p.Publisher == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		outbox:    p.Outbox,
		publisher: p.Publisher,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name, batchSize)
	s.logJobStart(ctx, run)
	relayMetrics := obsmetrics.Relay()
	relayMetrics.IncJobRun(name)

	err := fn(ctx)
	relayMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil && run.errorCount == 0 {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	relayMetrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobPublishClaimEvents, s.cfg.BatchSize, s.cfg.JobTimeout, s.PublishClaimEventsJob)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	relayMetrics := obsmetrics.Relay()

	for {
		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			relayMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PublishClaimEventsJob delivers pending events oldest first and stops at the
// first failure so consumers never observe events out of order.
func (s *Scheduler) PublishClaimEventsJob(ctx context.Context) error {
	events, err := s.outbox.Pending(ctx, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("load pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	run := jobRunFromContext(ctx)
	published := make([]string, 0, len(events))
	var publishErr error
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logSchedulerError(ctx, run, "publish claim event failed", event, err)
			publishErr = fmt.Errorf("publish %s: %w", event.ID, err)
			break
		}
		published = append(published, event.ID)
	}

	if err := s.outbox.MarkPublished(ctx, published); err != nil {
		return errors.Join(publishErr, fmt.Errorf("mark published: %w", err))
	}
	run.AddProcessed(len(published))
	obsmetrics.Relay().AddPublished(len(published))
	return publishErr
}
