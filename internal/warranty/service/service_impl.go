package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"github.com/smallbiznis/warrantyhub/internal/lock"
	"github.com/smallbiznis/warrantyhub/internal/notification"
	"github.com/smallbiznis/warrantyhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const auditTargetClaim = "warranty_claim"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
	AuthzSvc authorization.Service
	Config   *config.WarrantyConfigHolder

	Notifier     notification.Notifier    `optional:"true"`
	Locker       *lock.Locker             `optional:"true"`
	ClaimMetrics *obsmetrics.ClaimMetrics `optional:"true"`
	Metrics      *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	auditSvc     auditdomain.Service
	authzSvc     authorization.Service
	config       *config.WarrantyConfigHolder
	notifier     notification.Notifier
	locker       *lock.Locker
	claimMetrics *obsmetrics.ClaimMetrics
	metrics      *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("warranty.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		auditSvc:     p.AuditSvc,
		authzSvc:     p.AuthzSvc,
		config:       p.Config,
		notifier:     p.Notifier,
		locker:       p.Locker,
		claimMetrics: p.ClaimMetrics,
		metrics:      p.Metrics,
	}
}

// transition is a committed status change waiting for its side effects.
type transition struct {
	action domain.ClaimAction
	claim  domain.Claim
	from   *domain.ClaimStatus
	to     domain.ClaimStatus
	actor  domain.Actor
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) scope(ctx context.Context, actor domain.Actor) (domain.AccessScope, error) {
	if err := actor.Validate(); err != nil {
		return domain.AccessScope{}, err
	}
	scope, err := s.authzSvc.ResolveScope(ctx, actor)
	if err != nil {
		return domain.AccessScope{}, s.internal(ctx, "resolve_scope", err)
	}
	return scope, nil
}

func parseClaimID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, domain.ErrInvalidClaimID
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidClaimID
	}
	return id, nil
}

func parseOptionalID(value string, invalid error) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id <= 0 {
		return nil, invalid
	}
	return &id, nil
}

// lockVisibleClaim row-locks the claim inside tx. Claims outside the scope
// are reported exactly like missing ones.
func (s *Service) lockVisibleClaim(ctx context.Context, tx *gorm.DB, scope domain.AccessScope, id snowflake.ID) (*domain.Claim, error) {
	claim, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if claim == nil || !scope.CanRead(claim.DealerID) {
		return nil, domain.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Service) loadVisibleClaim(ctx context.Context, scope domain.AccessScope, id snowflake.ID) (*domain.Claim, error) {
	claim, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, s.internal(ctx, "load_claim", err)
	}
	if claim == nil || !scope.CanRead(claim.DealerID) {
		return nil, domain.ErrClaimNotFound
	}
	return claim, nil
}

// requireOwner guards dealer-side mutations. The caller can already see the
// claim, so a non-owner gets an explicit forbidden.
func requireOwner(actor domain.Actor, claim *domain.Claim) error {
	if !actor.Owns(*claim) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) appendHistory(ctx context.Context, tx *gorm.DB, claimID snowflake.ID, from *domain.ClaimStatus, to domain.ClaimStatus, actor domain.Actor, action domain.ClaimAction, note string) error {
	changedBy := actor.UserID
	return s.repo.InsertHistory(ctx, tx, &domain.StatusHistory{
		ID:          s.genID.Generate(),
		ClaimID:     claimID,
		FromStatus:  from,
		ToStatus:    to,
		ChangedByID: &changedBy,
		Note:        domain.HistoryNote(action, note),
		CreatedAt:   s.now(),
	})
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, actor domain.Actor, action domain.ClaimAction, claim *domain.Claim, metadata map[string]any) error {
	if s.auditSvc == nil {
		return nil
	}
	actorID := actor.UserID.String()
	targetID := claim.ID.String()
	dealerID := claim.DealerID

	payload := map[string]any{
		"claim_number": claim.ClaimNumber,
		"status":       string(claim.Status),
	}
	for key, value := range metadata {
		payload[key] = value
	}

	return s.auditSvc.AuditLogTx(ctx, tx, auditdomain.Entry{
		DealerID:   &dealerID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    &actorID,
		ActorRole:  actor.NormalizedRole(),
		Action:     auditTargetClaim + "." + string(action),
		TargetType: auditTargetClaim,
		TargetID:   &targetID,
		Metadata:   payload,
	})
}

// committed runs the side effects of a transition once its transaction has
// committed. Notification failures are logged and dropped.
func (s *Service) committed(ctx context.Context, t transition) {
	from := ""
	if t.from != nil {
		from = string(*t.from)
	}
	if t.from == nil || *t.from != t.to {
		s.claimMetrics.IncTransition(from, string(t.to))
	}

	log := logger.WithClaim(logger.WithContext(ctx, s.log), t.claim.ID.String(), t.claim.ClaimNumber)
	log.Info("claim transition",
		zap.String("action", string(t.action)),
		zap.String("from_status", from),
		zap.String("to_status", string(t.to)),
	)

	if s.notifier == nil {
		return
	}
	event := notification.Event{
		Action:      string(t.action),
		ClaimID:     t.claim.ID,
		ClaimNumber: t.claim.ClaimNumber,
		DealerID:    t.claim.DealerID,
		FromStatus:  from,
		ToStatus:    string(t.to),
		ActorID:     t.actor.UserID,
		AssigneeID:  t.claim.AssignedToID,
		OccurredAt:  s.now(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.RecordNotificationFailure(ctx, event.Topic())
		log.Warn("claim notification dropped", zap.String("event_type", event.Topic()), zap.Error(err))
	}
}

// observe records latency and failures of a mutating operation.
func (s *Service) observe(operation string, start time.Time, err error) {
	s.claimMetrics.ObserveOperation(operation, time.Since(start))
	if err != nil {
		s.claimMetrics.IncOperationError(operation, err)
	}
}

// internal hides persistence detail from callers. Business errors pass through.
func (s *Service) internal(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if isBusinessError(err) {
		return err
	}
	if errors.Is(err, authorization.ErrForbidden) {
		return domain.ErrForbidden
	}
	if errors.Is(err, authorization.ErrInvalidActor) {
		return domain.ErrInvalidActor
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.WithContext(ctx, s.log).Error("claim operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return domain.ErrInternal
}

func isBusinessError(err error) bool {
	if domain.IsValidationError(err) {
		return true
	}
	for _, target := range []error{
		domain.ErrClaimNotFound,
		domain.ErrItemNotFound,
		domain.ErrInvalidTransition,
		domain.ErrForbidden,
		domain.ErrClaimNumberUnavailable,
		domain.ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
