package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	"github.com/smallbiznis/warrantyhub/internal/audit/masking"
	"github.com/smallbiznis/warrantyhub/internal/clock"
	obscontext "github.com/smallbiznis/warrantyhub/internal/observability/context"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLogTx(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	if tx == nil {
		tx = s.db
	}

	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}
	actorType, actorID := s.resolveActor(ctx, entry)

	payload := masking.MaskSensitive(entry.Metadata)
	if payload == nil {
		payload = map[string]any{}
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	log := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		DealerID:   entry.DealerID,
		ActorType:  actorType,
		ActorID:    actorID,
		ActorRole:  normalizePointer(&entry.ActorRole),
		Action:     action,
		TargetType: targetType,
		TargetID:   normalizePointer(entry.TargetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  s.clock.Now().UTC(),
	}
	ipAddress, userAgent := obscontext.ClientFromContext(ctx)
	log.IPAddress = normalizePointer(&ipAddress)
	log.UserAgent = normalizePointer(&userAgent)

	if err := s.repo.Insert(ctx, tx, &log); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	filter := auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ActorType:  req.ActorType,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}
	if dealerID := strings.TrimSpace(req.DealerID); dealerID != "" {
		parsed, err := snowflake.ParseString(dealerID)
		if err != nil || parsed == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidDealer
		}
		filter.DealerID = &parsed
	}

	page := req.Pagination.Normalize(defaultPageSize, maxPageSize)
	logs, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}
	if logs == nil {
		logs = []auditdomain.AuditLog{}
	}

	return auditdomain.ListAuditLogResponse{
		AuditLogs:  logs,
		Pagination: pagination.BuildPageInfo(page, total),
	}, nil
}

func (s *Service) resolveActor(ctx context.Context, entry auditdomain.Entry) (string, *string) {
	actorType := strings.TrimSpace(string(entry.ActorType))
	actorID := normalizePointer(entry.ActorID)
	if actorType == "" {
		if _, ctxID := obscontext.ActorFromContext(ctx); ctxID != "" {
			actorType = string(auditdomain.ActorTypeUser)
			if actorID == nil {
				actorID = &ctxID
			}
		}
	}
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeSystem)
	}
	return actorType, actorID
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
