package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyFailureReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ClaimReasonDeadlineExceeded},
		{name: "forbidden", err: authorization.ErrForbidden, want: ClaimReasonForbidden},
		{name: "claim_forbidden", err: warrantydomain.ErrForbidden, want: ClaimReasonForbidden},
		{name: "not_found", err: warrantydomain.ErrClaimNotFound, want: ClaimReasonNotFound},
		{name: "wrapped_not_found", err: fmt.Errorf("load: %w", warrantydomain.ErrItemNotFound), want: ClaimReasonNotFound},
		{name: "invalid_transition", err: warrantydomain.ErrInvalidTransition, want: ClaimReasonInvalidTransition},
		{name: "validation", err: warrantydomain.ErrInvalidItems, want: ClaimReasonValidation},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: ClaimReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: ClaimReasonSerializationFailure},
		{name: "pg_unique", err: &pgconn.PgError{Code: "23505"}, want: ClaimReasonUniqueViolation},
		{name: "gorm_unique", err: gorm.ErrDuplicatedKey, want: ClaimReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: ClaimReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyFailureReason(tc.err))
		})
	}
}

func TestClaimMetricsTransitions(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newClaimMetrics(registry, Config{ServiceName: "warrantyhub", Environment: "test"})

	m.IncTransition("", "draft")
	m.IncTransition("draft", "submitted")
	m.IncTransition("draft", "submitted")
	m.IncTransition("closed", "approved")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("none", "draft")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("draft", "submitted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("closed", "approved")))
}

func TestClaimMetricsErrorsAndRetries(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newClaimMetrics(registry, Config{})

	m.IncOperationError(OperationReview, warrantydomain.ErrInvalidTransition)
	m.IncOperationError(OperationReview, nil)
	m.IncAllocationRetry()
	m.IncAllocationRetry()

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.operationErrors.WithLabelValues(OperationReview, ClaimReasonInvalidTransition),
	))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.allocationRetries))
}

func TestNilClaimMetricsIsSafe(t *testing.T) {
	var m *ClaimMetrics
	m.IncTransition("draft", "submitted")
	m.IncOperationError(OperationCreate, errors.New("boom"))
	m.IncAllocationRetry()
	m.ObserveOperation(OperationCreate, 0)
}
