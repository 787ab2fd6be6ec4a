package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	auditrepository "github.com/smallbiznis/warrantyhub/internal/audit/repository"
	auditservice "github.com/smallbiznis/warrantyhub/internal/audit/service"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"github.com/smallbiznis/warrantyhub/internal/observability"
	obslogger "github.com/smallbiznis/warrantyhub/internal/observability/logger"
	"github.com/smallbiznis/warrantyhub/internal/testutil"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDealerID = snowflake.ID(1001)

	dealerActor     = warrantydomain.Actor{UserID: 101, Role: "dealer", DealerID: &testDealerID}
	adminActor      = warrantydomain.Actor{UserID: 1, Role: "admin"}
	superAdminActor = warrantydomain.Actor{UserID: 2, Role: "super_admin"}
)

type mockWarrantyService struct {
	mock.Mock
}

func (m *mockWarrantyService) CreateClaim(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.CreateClaimRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) UpdateClaim(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.UpdateClaimRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) SubmitClaim(ctx context.Context, actor warrantydomain.Actor, claimID string) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, claimID)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) ReviewClaim(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.ReviewClaimRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) RespondToInfoRequest(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.RespondRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) AssignClaim(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.AssignClaimRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) CloseClaim(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.CloseClaimRequest) (warrantydomain.ClaimResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ClaimResult), args.Error(1)
}

func (m *mockWarrantyService) DeleteClaim(ctx context.Context, actor warrantydomain.Actor, claimID string) error {
	args := m.Called(ctx, actor, claimID)
	return args.Error(0)
}

func (m *mockWarrantyService) AddNote(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.AddNoteRequest) (warrantydomain.NoteResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.NoteResult), args.Error(1)
}

func (m *mockWarrantyService) ListNotes(ctx context.Context, actor warrantydomain.Actor, claimID string) ([]warrantydomain.Note, error) {
	args := m.Called(ctx, actor, claimID)
	notes, _ := args.Get(0).([]warrantydomain.Note)
	return notes, args.Error(1)
}

func (m *mockWarrantyService) ListHistory(ctx context.Context, actor warrantydomain.Actor, claimID string) ([]warrantydomain.StatusHistory, error) {
	args := m.Called(ctx, actor, claimID)
	history, _ := args.Get(0).([]warrantydomain.StatusHistory)
	return history, args.Error(1)
}

func (m *mockWarrantyService) GetClaimByID(ctx context.Context, actor warrantydomain.Actor, claimID string) (warrantydomain.ClaimDetail, error) {
	args := m.Called(ctx, actor, claimID)
	return args.Get(0).(warrantydomain.ClaimDetail), args.Error(1)
}

func (m *mockWarrantyService) ListClaims(ctx context.Context, actor warrantydomain.Actor, req warrantydomain.ListClaimsRequest) (warrantydomain.ListClaimsResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(warrantydomain.ListClaimsResponse), args.Error(1)
}

func (m *mockWarrantyService) GetStats(ctx context.Context, actor warrantydomain.Actor) (warrantydomain.ClaimStats, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(warrantydomain.ClaimStats), args.Error(1)
}

type testServer struct {
	engine   *gin.Engine
	claims   *mockWarrantyService
	verifier *TokenVerifier
	auditSvc auditdomain.Service
	clock    *clock.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.OpenDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))

	verifier, err := NewTokenVerifier(config.Config{AuthJWTSecret: "test-secret"}, clk)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer})

	claims := &mockWarrantyService{}
	t.Cleanup(func() { claims.AssertExpectations(t) })

	engine := NewEngine(observability.Config{LogLevel: "info"}, nil)
	NewServer(ServerParams{
		Gin:         engine,
		Cfg:         config.Config{AuthJWTSecret: "test-secret"},
		DB:          db,
		Log:         zap.NewNop(),
		Verifier:    verifier,
		WarrantySvc: claims,
		AuditSvc:    auditSvc,
		AuthzSvc:    authzSvc,
	})

	return &testServer{engine: engine, claims: claims, verifier: verifier, auditSvc: auditSvc, clock: clk}
}

func (ts *testServer) token(t *testing.T, actor warrantydomain.Actor) string {
	t.Helper()
	token, err := ts.verifier.Issue(actor, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, actor *warrantydomain.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, *actor))
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	payload, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error payload: %s", rec.Body.String())
	value, _ := payload["type"].(string)
	return value
}

func matchActor(expected warrantydomain.Actor) any {
	return mock.MatchedBy(func(actor warrantydomain.Actor) bool {
		if actor.UserID != expected.UserID || actor.Role != expected.Role {
			return false
		}
		if expected.DealerID == nil {
			return actor.DealerID == nil
		}
		return actor.DealerID != nil && *actor.DealerID == *expected.DealerID
	})
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, nil, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestAPIRequiresBearerToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, nil, http.MethodGet, "/api/warranty-claims", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorType(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/warranty-claims", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := ts.token(t, dealerActor)
	ts.clock.Advance(2 * time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/api/warranty-claims", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCorrelationIDIsPropagated(t *testing.T) {
	ts := newTestServer(t)

	var seen string
	ts.claims.On("GetStats", mock.Anything, matchActor(dealerActor)).
		Run(func(args mock.Arguments) {
			seen = correlation.ExtractCorrelationID(args.Get(0).(context.Context))
		}).
		Return(warrantydomain.ClaimStats{}, nil).Twice()

	req := httptest.NewRequest(http.MethodGet, "/api/warranty-claims/stats", nil)
	req.Header.Set("Authorization", "Bearer "+ts.token(t, dealerActor))
	req.Header.Set(correlation.Header, "corr-123")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "corr-123", rec.Header().Get(correlation.Header))
	assert.Equal(t, "corr-123", seen)

	rec = ts.do(t, &dealerActor, http.MethodGet, "/api/warranty-claims/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rec.Header().Get(obslogger.RequestIDHeader), rec.Header().Get(correlation.Header))
	assert.Equal(t, rec.Header().Get(correlation.Header), seen)
}

func TestCreateWarrantyClaim(t *testing.T) {
	ts := newTestServer(t)

	ts.claims.On("CreateClaim", mock.Anything, matchActor(dealerActor), mock.MatchedBy(func(req warrantydomain.CreateClaimRequest) bool {
		return req.ClaimType == "product_defect" &&
			req.LaborHours.StringFixed(2) == "2.00" &&
			len(req.Items) == 1 && req.Items[0].Quantity == 3 &&
			req.Submit
	})).Return(warrantydomain.ClaimResult{
		ClaimID:     42,
		ClaimNumber: "WC-2025-00001",
		Status:      warrantydomain.StatusSubmitted,
	}, nil).Once()

	rec := ts.do(t, &dealerActor, http.MethodPost, "/api/warranty-claims", map[string]any{
		"claim_type":        "product_defect",
		"issue_description": "Slide-out motor fails under load",
		"labor_hours":       "2",
		"labor_rate":        "75",
		"items": []map[string]any{
			{"part_name": "Gear assembly", "quantity": 3, "unit_cost": "12.333"},
		},
		"submit": true,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "WC-2025-00001", data["claim_number"])
	assert.Equal(t, "submitted", data["status"])
}

func TestCreateWarrantyClaimRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/warranty-claims", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+ts.token(t, dealerActor))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(t, rec))
}

func TestListWarrantyClaimsParsesQuery(t *testing.T) {
	ts := newTestServer(t)

	ts.claims.On("ListClaims", mock.Anything, matchActor(adminActor), mock.MatchedBy(func(req warrantydomain.ListClaimsRequest) bool {
		return req.Status == "submitted" &&
			req.Search == "gear" &&
			req.SortBy == "claim_number" &&
			req.SortOrder == "asc" &&
			req.Page == 2 && req.PageSize == 5 &&
			req.CreatedFrom != nil && req.CreatedFrom.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) &&
			req.CreatedTo != nil && req.CreatedTo.Hour() == 23
	})).Return(warrantydomain.ListClaimsResponse{
		Claims: []warrantydomain.Claim{{ClaimNumber: "WC-2025-00003"}},
	}, nil).Once()

	rec := ts.do(t, &adminActor, http.MethodGet,
		"/api/warranty-claims?status=submitted&search=gear&sort_by=claim_number&sort_order=asc&page=2&page_size=5&created_from=2025-06-01&created_to=2025-06-30", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Len(t, body["data"], 1)
	assert.Contains(t, body, "pagination")
}

func TestListWarrantyClaimsRejectsBadParameters(t *testing.T) {
	ts := newTestServer(t)

	for _, query := range []string{"created_from=yesterday", "page=two", "created_to=2025-13-01"} {
		t.Run(query, func(t *testing.T) {
			rec := ts.do(t, &adminActor, http.MethodGet, "/api/warranty-claims?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", errorType(t, rec))
		})
	}
}

func TestClaimRoutesUsePathID(t *testing.T) {
	ts := newTestServer(t)
	result := warrantydomain.ClaimResult{ClaimID: 42, ClaimNumber: "WC-2025-00001"}

	ts.claims.On("UpdateClaim", mock.Anything, matchActor(dealerActor), mock.MatchedBy(func(req warrantydomain.UpdateClaimRequest) bool {
		return req.ClaimID == "42" && req.Priority != nil && *req.Priority == "high"
	})).Return(result, nil).Once()
	ts.claims.On("SubmitClaim", mock.Anything, matchActor(dealerActor), "42").Return(result, nil).Once()
	ts.claims.On("ReviewClaim", mock.Anything, matchActor(adminActor), mock.MatchedBy(func(req warrantydomain.ReviewClaimRequest) bool {
		return req.ClaimID == "42" && req.Action == "approve"
	})).Return(result, nil).Once()
	ts.claims.On("RespondToInfoRequest", mock.Anything, matchActor(dealerActor), mock.MatchedBy(func(req warrantydomain.RespondRequest) bool {
		return req.ClaimID == "42" && req.Resubmit
	})).Return(result, nil).Once()
	ts.claims.On("AssignClaim", mock.Anything, matchActor(adminActor), mock.MatchedBy(func(req warrantydomain.AssignClaimRequest) bool {
		return req.ClaimID == "42" && req.AssigneeID == "7"
	})).Return(result, nil).Once()
	ts.claims.On("CloseClaim", mock.Anything, matchActor(adminActor), warrantydomain.CloseClaimRequest{ClaimID: "42"}).Return(result, nil).Once()
	ts.claims.On("DeleteClaim", mock.Anything, matchActor(dealerActor), "42").Return(nil).Once()
	ts.claims.On("GetClaimByID", mock.Anything, matchActor(dealerActor), "42").Return(warrantydomain.ClaimDetail{}, nil).Once()
	ts.claims.On("ListNotes", mock.Anything, matchActor(dealerActor), "42").Return([]warrantydomain.Note{}, nil).Once()
	ts.claims.On("AddNote", mock.Anything, matchActor(dealerActor), mock.MatchedBy(func(req warrantydomain.AddNoteRequest) bool {
		return req.ClaimID == "42" && req.Content == "Photos attached"
	})).Return(warrantydomain.NoteResult{NoteID: 9}, nil).Once()
	ts.claims.On("ListHistory", mock.Anything, matchActor(adminActor), "42").Return([]warrantydomain.StatusHistory{}, nil).Once()

	cases := []struct {
		actor  warrantydomain.Actor
		method string
		path   string
		body   any
		status int
	}{
		{dealerActor, http.MethodPatch, "/api/warranty-claims/42", map[string]any{"priority": "high"}, http.StatusOK},
		{dealerActor, http.MethodPost, "/api/warranty-claims/42/submit", nil, http.StatusOK},
		{adminActor, http.MethodPost, "/api/warranty-claims/42/review", map[string]any{"action": "approve"}, http.StatusOK},
		{dealerActor, http.MethodPost, "/api/warranty-claims/42/respond", map[string]any{"response": "Serial attached", "resubmit": true}, http.StatusOK},
		{adminActor, http.MethodPost, "/api/warranty-claims/42/assign", map[string]any{"assignee_id": "7"}, http.StatusOK},
		{adminActor, http.MethodPost, "/api/warranty-claims/42/close", nil, http.StatusOK},
		{dealerActor, http.MethodDelete, "/api/warranty-claims/42", nil, http.StatusNoContent},
		{dealerActor, http.MethodGet, "/api/warranty-claims/42", nil, http.StatusOK},
		{dealerActor, http.MethodGet, "/api/warranty-claims/42/notes", nil, http.StatusOK},
		{dealerActor, http.MethodPost, "/api/warranty-claims/42/notes", map[string]any{"content": "Photos attached"}, http.StatusCreated},
		{adminActor, http.MethodGet, "/api/warranty-claims/42/history", nil, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			actor := tc.actor
			rec := ts.do(t, &actor, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		errorTyp string
	}{
		{"validation", warrantydomain.ErrInvalidIssueDescription, http.StatusBadRequest, "validation_error"},
		{"not found", warrantydomain.ErrClaimNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", warrantydomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"transition", warrantydomain.ErrInvalidTransition, http.StatusConflict, "conflict"},
		{"allocation", warrantydomain.ErrClaimNumberUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", warrantydomain.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.claims.On("SubmitClaim", mock.Anything, mock.Anything, "42").
				Return(warrantydomain.ClaimResult{}, tc.err).Once()

			rec := ts.do(t, &dealerActor, http.MethodPost, "/api/warranty-claims/42/submit", nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.errorTyp, errorType(t, rec))
		})
	}
}

func TestListAuditLogsRequiresAuditCapability(t *testing.T) {
	ts := newTestServer(t)

	targetID := "42"
	require.NoError(t, ts.auditSvc.AuditLogTx(context.Background(), nil, auditdomain.Entry{
		DealerID:   &testDealerID,
		ActorType:  auditdomain.ActorTypeUser,
		Action:     "warranty_claim.created",
		TargetType: "warranty_claim",
		TargetID:   &targetID,
	}))

	rec := ts.do(t, &dealerActor, http.MethodGet, "/api/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, &adminActor, http.MethodGet, "/api/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, &superAdminActor, http.MethodGet, "/api/audit-logs?dealer_id=1001&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Len(t, body["data"], 1)

	rec = ts.do(t, &superAdminActor, http.MethodGet, "/api/audit-logs?dealer_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, &superAdminActor, http.MethodGet, "/api/audit-logs?start_at=2025-06-20&end_at=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
