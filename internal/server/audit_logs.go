package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
)

type listAuditLogsQuery struct {
	Page       string `form:"page"`
	PageSize   string `form:"page_size"`
	DealerID   string `form:"dealer_id"`
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorType  string `form:"actor_type"`
	StartAt    string `form:"start_at"`
	EndAt      string `form:"end_at"`
}

// ListAuditLogs is restricted to roles holding the audit_log view capability.
func (s *Server) ListAuditLogs(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), actor, authorization.ObjectAuditLog, authorization.ActionAuditLogView); err != nil {
		AbortWithError(c, err)
		return
	}

	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page, err := parsePage(query.Page, query.PageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	startAt, err := parseTimeParam("start_at", query.StartAt, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	endAt, err := parseTimeParam("end_at", query.EndAt, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Pagination: page,
		DealerID:   strings.TrimSpace(query.DealerID),
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		ActorType:  strings.TrimSpace(query.ActorType),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "pagination": resp.Pagination})
}
