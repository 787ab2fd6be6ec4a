package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectWarrantyClaim = "warranty_claim"
	ObjectAuditLog      = "audit_log"
)

const (
	ActionClaimReadAll       = "warranty_claim.read_all"
	ActionClaimInternalNotes = "warranty_claim.internal_notes"
	ActionClaimReview        = "warranty_claim.review"
	ActionClaimAssign        = "warranty_claim.assign"
	ActionClaimClose         = "warranty_claim.close"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer loads policies persisted through the gorm adapter and seeds
// the built-in role grants.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer holding only the built-in grants.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) ResolveScope(ctx context.Context, actor warrantydomain.Actor) (warrantydomain.AccessScope, error) {
	if err := actor.Validate(); err != nil {
		return warrantydomain.AccessScope{}, err
	}

	subject := roleSubject(actor)
	can := func(action string) (bool, error) {
		return s.enforcer.Enforce(subject, ObjectWarrantyClaim, action)
	}

	readAll, err := can(ActionClaimReadAll)
	if err != nil {
		return warrantydomain.AccessScope{}, err
	}
	if !readAll {
		return warrantydomain.DealerScope(actor.DealerID), nil
	}

	scope := warrantydomain.AccessScope{CanReadAll: true}
	for action, grant := range map[string]*bool{
		ActionClaimInternalNotes: &scope.CanSeeInternalNotes,
		ActionClaimReview:        &scope.CanReview,
		ActionClaimAssign:        &scope.CanAssign,
		ActionClaimClose:         &scope.CanClose,
	} {
		allowed, err := can(action)
		if err != nil {
			return warrantydomain.AccessScope{}, err
		}
		*grant = allowed
	}
	return scope, nil
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor warrantydomain.Actor, object, action string) error {
	if actor.UserID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(actor), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actor, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor warrantydomain.Actor, object, action string) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.UserID.String()
	target := "capability"
	err := s.auditSvc.AuditLogTx(ctx, nil, auditdomain.Entry{
		DealerID:   actor.DealerID,
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    &actorID,
		ActorRole:  actor.NormalizedRole(),
		Action:     "authorization.denied",
		TargetType: "authorization",
		TargetID:   &target,
		Metadata: map[string]any{
			"object": object,
			"action": action,
		},
	})
	if err != nil {
		s.log.Warn("failed to audit denied authorization", zap.Error(err))
	}
}

func roleSubject(actor warrantydomain.Actor) string {
	role := actor.NormalizedRole()
	if role == "" {
		role = "anonymous"
	}
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", ObjectWarrantyClaim, ActionClaimReadAll},
		{"role:admin", ObjectWarrantyClaim, ActionClaimInternalNotes},
		{"role:admin", ObjectWarrantyClaim, ActionClaimReview},
		{"role:admin", ObjectWarrantyClaim, ActionClaimAssign},
		{"role:admin", ObjectWarrantyClaim, ActionClaimClose},

		{"role:super_admin", ObjectAuditLog, ActionAuditLogView},
	}
	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:" + warrantydomain.RoleSuperAdmin, "role:" + warrantydomain.RoleAdmin},
	}
	for _, grouping := range groupings {
		has, err := enforcer.HasGroupingPolicy(grouping)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(grouping); err != nil {
			return err
		}
	}
	return nil
}
