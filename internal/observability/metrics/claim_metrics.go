package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"gorm.io/gorm"
)

const (
	ClaimReasonDeadlineExceeded     = "deadline_exceeded"
	ClaimReasonForbidden            = "forbidden"
	ClaimReasonNotFound             = "not_found"
	ClaimReasonInvalidTransition    = "invalid_transition"
	ClaimReasonValidation           = "validation"
	ClaimReasonDBLockTimeout        = "db_lock_timeout"
	ClaimReasonSerializationFailure = "serialization_failure"
	ClaimReasonUniqueViolation      = "unique_violation"
	ClaimReasonUnknown              = "unknown"
)

const (
	OperationCreate  = "create"
	OperationUpdate  = "update"
	OperationSubmit  = "submit"
	OperationReview  = "review"
	OperationRespond = "respond"
	OperationAssign  = "assign"
	OperationClose   = "close"
	OperationDelete  = "delete"
	OperationNote    = "note"
)

// ClaimMetrics captures claim lifecycle signals.
type ClaimMetrics struct {
	transitions       *prometheus.CounterVec
	operationErrors   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	allocationRetries prometheus.Counter
	transitionCounts  map[string]map[string]prometheus.Counter
}

var (
	claimMetricsOnce sync.Once
	claimMetrics     *ClaimMetrics
)

// Claims returns the singleton claim metrics registry.
func Claims() *ClaimMetrics {
	return ClaimsWithConfig(Config{})
}

// ClaimsWithConfig returns the singleton claim metrics registry using config labels.
func ClaimsWithConfig(cfg Config) *ClaimMetrics {
	claimMetricsOnce.Do(func() {
		claimMetrics = newClaimMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return claimMetrics
}

// ResetClaimMetricsForTest resets the claim metrics singleton for tests.
func ResetClaimMetricsForTest() {
	claimMetricsOnce = sync.Once{}
	claimMetrics = nil
}

func newClaimMetrics(registerer prometheus.Registerer, cfg Config) *ClaimMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "warrantyhub"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "warrantyhub_claim_transitions_total",
		Help:        "Warranty claim status transitions.",
		ConstLabels: constLabels,
	}, []string{"from", "to"})
	operationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "warrantyhub_claim_operation_errors_total",
		Help:        "Warranty claim operation failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"operation", "reason"})
	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "warrantyhub_claim_operation_duration_seconds",
		Help:        "Warranty claim mutation latency including the transaction.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"operation"})
	allocationRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "warrantyhub_claim_number_allocation_retries_total",
		Help:        "Claim creations retried after a duplicate claim number.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		transitions,
		operationErrors,
		operationDuration,
		allocationRetries,
	)

	// Pre-bind the edges of the lifecycle so the hot path skips label hashing.
	transitionCounts := map[string]map[string]prometheus.Counter{}
	edges := [][2]warrantydomain.ClaimStatus{
		{"", warrantydomain.StatusDraft},
		{"", warrantydomain.StatusSubmitted},
		{warrantydomain.StatusDraft, warrantydomain.StatusSubmitted},
		{warrantydomain.StatusSubmitted, warrantydomain.StatusUnderReview},
		{warrantydomain.StatusInfoRequested, warrantydomain.StatusSubmitted},
		{warrantydomain.StatusApproved, warrantydomain.StatusClosed},
		{warrantydomain.StatusPartial, warrantydomain.StatusClosed},
		{warrantydomain.StatusDenied, warrantydomain.StatusClosed},
	}
	for _, from := range []warrantydomain.ClaimStatus{warrantydomain.StatusSubmitted, warrantydomain.StatusUnderReview} {
		for _, to := range []warrantydomain.ClaimStatus{
			warrantydomain.StatusApproved,
			warrantydomain.StatusPartial,
			warrantydomain.StatusDenied,
			warrantydomain.StatusInfoRequested,
		} {
			edges = append(edges, [2]warrantydomain.ClaimStatus{from, to})
		}
	}
	for _, edge := range edges {
		from, to := transitionLabel(string(edge[0])), string(edge[1])
		if transitionCounts[from] == nil {
			transitionCounts[from] = map[string]prometheus.Counter{}
		}
		transitionCounts[from][to] = transitions.WithLabelValues(from, to)
	}

	return &ClaimMetrics{
		transitions:       transitions,
		operationErrors:   operationErrors,
		operationDuration: operationDuration,
		allocationRetries: allocationRetries,
		transitionCounts:  transitionCounts,
	}
}

func transitionLabel(status string) string {
	if status == "" {
		return "none"
	}
	return status
}

// IncTransition counts one status change. An empty from marks creation.
func (m *ClaimMetrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	from = transitionLabel(from)
	if toCounters, ok := m.transitionCounts[from]; ok {
		if counter, ok := toCounters[to]; ok {
			counter.Inc()
			return
		}
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// IncOperationError counts a failed claim operation with classification.
func (m *ClaimMetrics) IncOperationError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, ClassifyFailureReason(err)).Inc()
}

// ObserveOperation records how long a claim operation took.
func (m *ClaimMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncAllocationRetry counts one claim number collision.
func (m *ClaimMetrics) IncAllocationRetry() {
	if m == nil {
		return
	}
	m.allocationRetries.Inc()
}

// ClassifyFailureReason maps an error to a low-cardinality metric label.
func ClassifyFailureReason(err error) string {
	if err == nil {
		return ClaimReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClaimReasonDeadlineExceeded
	}
	if errors.Is(err, authorization.ErrForbidden) || errors.Is(err, warrantydomain.ErrForbidden) {
		return ClaimReasonForbidden
	}
	if errors.Is(err, warrantydomain.ErrClaimNotFound) || errors.Is(err, warrantydomain.ErrItemNotFound) {
		return ClaimReasonNotFound
	}
	if errors.Is(err, warrantydomain.ErrInvalidTransition) {
		return ClaimReasonInvalidTransition
	}
	if warrantydomain.IsValidationError(err) {
		return ClaimReasonValidation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return ClaimReasonDBLockTimeout
		case "40001":
			return ClaimReasonSerializationFailure
		case "23505":
			return ClaimReasonUniqueViolation
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, warrantydomain.ErrClaimNumberUnavailable) {
		return ClaimReasonUniqueViolation
	}
	return ClaimReasonUnknown
}
