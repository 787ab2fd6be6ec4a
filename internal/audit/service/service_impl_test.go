package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	"github.com/smallbiznis/warrantyhub/internal/audit/repository"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	obscontext "github.com/smallbiznis/warrantyhub/internal/observability/context"
	"github.com/smallbiznis/warrantyhub/internal/testutil"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, db
}

func TestAuditLogTxMasksContactDataAndAddsRequestContext(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithClient(ctx, "10.1.1.1", "test-agent")

	dealerID := snowflake.ID(77)
	actorID := "5"
	targetID := "900"
	err := svc.AuditLogTx(ctx, nil, auditdomain.Entry{
		DealerID:   &dealerID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    &actorID,
		ActorRole:  "dealer",
		Action:     "warranty_claim.create",
		TargetType: "warranty_claim",
		TargetID:   &targetID,
		Metadata: map[string]any{
			"claim_number":   "WC-2026-00001",
			"customer_email": "jane@example.com",
		},
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{DealerID: "77"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "warranty_claim.create", entry.Action)
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorRole)
	assert.Equal(t, "dealer", *entry.ActorRole)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.1.1.1", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "j****@example.com", entry.Metadata["customer_email"])
	assert.Equal(t, int64(1), resp.Pagination.Total)
}

func TestAuditLogTxRollsBackWithTransaction(t *testing.T) {
	svc, db := newTestService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.AuditLogTx(context.Background(), tx, auditdomain.Entry{Action: "warranty_claim.submit"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.AuditLogs)
}

func TestAuditLogTxRequiresAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLogTx(context.Background(), nil, auditdomain.Entry{Action: " "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestAuditLogTxDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.AuditLogTx(context.Background(), nil, auditdomain.Entry{Action: "warranty_claim.close"}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{ActorType: "system"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
}

func TestListValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)

	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{DealerID: "abc"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidDealer)
}

func TestListPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.AuditLogTx(context.Background(), nil, auditdomain.Entry{Action: "warranty_claim.note"}))
	}

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{Page: 2, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 2)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, int64(5), resp.Pagination.Total)
}
