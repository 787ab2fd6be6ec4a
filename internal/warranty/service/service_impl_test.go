package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditrepository "github.com/smallbiznis/warrantyhub/internal/audit/repository"
	auditservice "github.com/smallbiznis/warrantyhub/internal/audit/service"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	"github.com/smallbiznis/warrantyhub/internal/testutil"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/internal/warranty/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	dealerAID = snowflake.ID(1001)
	dealerBID = snowflake.ID(1002)

	dealerA = domain.Actor{UserID: 101, Role: "dealer", DealerID: &dealerAID}
	dealerB = domain.Actor{UserID: 102, Role: "dealer", DealerID: &dealerBID}
	admin   = domain.Actor{UserID: 1, Role: "admin"}
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	actions := make([]string, 0, len(n.events))
	for _, e := range n.events {
		actions = append(actions, e.Action)
	}
	return actions
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	clock    *clock.FakeClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...func(*Params)) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(testNow)
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepository.Provide(),
	})
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})

	notifier := &recordingNotifier{}
	params := Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		AuditSvc: auditSvc,
		AuthzSvc: authzSvc,
		Config:   config.NewStaticWarrantyConfigHolder(config.DefaultWarrantyConfig()),
		Notifier: notifier,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &fixture{
		svc:      NewService(params).(*Service),
		db:       db,
		clock:    fake,
		notifier: notifier,
	}
}

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func validCreateRequest() domain.CreateClaimRequest {
	return domain.CreateClaimRequest{
		ClaimType:        "product_defect",
		ProductName:      "Slide-out motor",
		SerialNumber:     "SN-4471",
		IssueDescription: "Motor stalls halfway through the slide-out cycle.",
		IsUnderWarranty:  true,
		LaborHours:       money("2"),
		LaborRate:        money("75"),
		ShippingAmount:   money("10.005"),
		Items: []domain.ClaimItemInput{
			{PartName: "Gear assembly", PartNumber: "GA-12", Quantity: 3, UnitCost: money("12.333")},
		},
	}
}

func (f *fixture) create(t *testing.T, actor domain.Actor, mutate ...func(*domain.CreateClaimRequest)) domain.ClaimResult {
	t.Helper()
	req := validCreateRequest()
	for _, m := range mutate {
		m(&req)
	}
	result, err := f.svc.CreateClaim(context.Background(), actor, req)
	require.NoError(t, err)
	return result
}

func (f *fixture) detail(t *testing.T, actor domain.Actor, claimID snowflake.ID) domain.ClaimDetail {
	t.Helper()
	detail, err := f.svc.GetClaimByID(context.Background(), actor, claimID.String())
	require.NoError(t, err)
	return detail
}

// driveTo walks a fresh draft owned by dealerA into status.
func (f *fixture) driveTo(t *testing.T, claimID snowflake.ID, status domain.ClaimStatus) {
	t.Helper()
	f.driveAs(t, dealerA, claimID, status)
}

func (f *fixture) driveAs(t *testing.T, owner domain.Actor, claimID snowflake.ID, status domain.ClaimStatus) {
	t.Helper()
	ctx := context.Background()
	id := claimID.String()

	if status == domain.StatusDraft {
		return
	}
	_, err := f.svc.SubmitClaim(ctx, owner, id)
	require.NoError(t, err)

	review := func(action string) {
		_, err := f.svc.ReviewClaim(ctx, admin, domain.ReviewClaimRequest{ClaimID: id, Action: action})
		require.NoError(t, err)
	}

	switch status {
	case domain.StatusSubmitted:
	case domain.StatusUnderReview:
		_, err := f.svc.AssignClaim(ctx, admin, domain.AssignClaimRequest{ClaimID: id, AssigneeID: "1"})
		require.NoError(t, err)
	case domain.StatusInfoRequested:
		review("request_info")
	case domain.StatusApproved:
		review("approve")
	case domain.StatusPartial:
		review("partial")
	case domain.StatusDenied:
		review("deny")
	case domain.StatusClosed:
		review("approve")
		_, err := f.svc.CloseClaim(ctx, admin, domain.CloseClaimRequest{ClaimID: id})
		require.NoError(t, err)
	default:
		t.Fatalf("unsupported status %s", status)
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

var errBoom = errors.New("boom")
