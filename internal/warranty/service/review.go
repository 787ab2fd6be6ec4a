package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"gorm.io/gorm"
)

func parseDecisions(inputs []domain.ItemDecisionInput) ([]domain.ItemDecision, error) {
	decisions := make([]domain.ItemDecision, 0, len(inputs))
	seen := make(map[snowflake.ID]struct{}, len(inputs))
	for _, in := range inputs {
		itemID, err := snowflake.ParseString(strings.TrimSpace(in.ItemID))
		if err != nil || itemID <= 0 {
			return nil, domain.ErrInvalidItemDecision
		}
		if _, dup := seen[itemID]; dup {
			return nil, domain.ErrInvalidItemDecision
		}
		seen[itemID] = struct{}{}
		if in.ApprovedQty != nil && *in.ApprovedQty < 0 {
			return nil, domain.ErrInvalidItemDecision
		}
		if in.ApprovedAmount != nil && in.ApprovedAmount.IsNegative() {
			return nil, domain.ErrInvalidItemDecision
		}
		decisions = append(decisions, domain.ItemDecision{
			ItemID:         itemID,
			Approved:       in.Approved,
			ApprovedQty:    in.ApprovedQty,
			ApprovedAmount: in.ApprovedAmount,
			DenialReason:   in.DenialReason,
		})
	}
	return decisions, nil
}

func (s *Service) ReviewClaim(ctx context.Context, actor domain.Actor, req domain.ReviewClaimRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationReview, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	action, err := domain.ParseReviewAction(req.Action)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	resolutionType, err := domain.ParseResolutionType(req.ResolutionType)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if req.TotalApproved != nil && req.TotalApproved.IsNegative() {
		return domain.ClaimResult{}, domain.ErrInvalidAmount
	}
	decisions, err := parseDecisions(req.ItemDecisions)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	var t transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, claimID)
		if err != nil {
			return err
		}
		if !scope.CanReview {
			return domain.ErrForbidden
		}
		from := claim.Status
		to, err := domain.Transition(from, action)
		if err != nil {
			return err
		}

		if len(decisions) > 0 {
			if err := s.applyDecisions(ctx, tx, claim.ID, decisions); err != nil {
				return err
			}
		}

		now := s.now()
		claim.Status = to
		if action.IsResolving() {
			claim.TotalApproved = domain.DeriveTotalApproved(action, req.TotalApproved, decisions, claim.TotalRequested)
		}
		if resolutionType != nil {
			claim.ResolutionType = resolutionType
		}
		if notes := strings.TrimSpace(req.ResolutionNotes); notes != "" {
			claim.ResolutionNotes = notes
		}
		if claim.ReviewedAt == nil {
			claim.ReviewedAt = &now
		}
		if action.IsResolving() && claim.ResolvedAt == nil {
			claim.ResolvedAt = &now
		}
		claim.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, action, req.Note); err != nil {
			return err
		}
		if err := s.repo.InsertNote(ctx, tx, &domain.Note{
			ID:           s.genID.Generate(),
			ClaimID:      claim.ID,
			UserID:       actor.UserID,
			Content:      domain.SystemNote(action, req.Note, s.config.Get().ReviewNotes),
			IsInternal:   false,
			IsSystemNote: true,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		metadata := map[string]any{
			"from_status":    string(from),
			"decision_count": len(decisions),
		}
		if claim.TotalApproved.Valid {
			metadata["total_approved"] = claim.TotalApproved.Decimal.StringFixed(2)
		}
		if err := s.audit(ctx, tx, actor, action, claim, metadata); err != nil {
			return err
		}

		t = transition{action: action, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "review_claim", err)
	}

	s.metrics.RecordReviewDecision(ctx, string(action), string(t.claim.ClaimType))
	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}

// applyDecisions updates only the referenced items. One unknown item fails
// the whole review.
func (s *Service) applyDecisions(ctx context.Context, tx *gorm.DB, claimID snowflake.ID, decisions []domain.ItemDecision) error {
	items, err := s.repo.ListItems(ctx, tx, claimID)
	if err != nil {
		return err
	}
	byID := make(map[snowflake.ID]*domain.ClaimItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, d := range decisions {
		item, ok := byID[d.ItemID]
		if !ok {
			return domain.ErrItemNotFound
		}
		if err := domain.ApplyDecision(item, d); err != nil {
			return err
		}
		if err := s.repo.UpdateItemReview(ctx, tx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) AssignClaim(ctx context.Context, actor domain.Actor, req domain.AssignClaimRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationAssign, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	assigneeID, err := parseOptionalID(req.AssigneeID, domain.ErrInvalidAssignee)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if assigneeID == nil {
		return domain.ClaimResult{}, domain.ErrInvalidAssignee
	}

	var t transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, claimID)
		if err != nil {
			return err
		}
		if !scope.CanAssign {
			return domain.ErrForbidden
		}
		from := claim.Status
		to, err := domain.Transition(from, domain.ActionAssign)
		if err != nil {
			return err
		}

		previous := claim.AssignedToID
		claim.AssignedToID = assigneeID
		claim.Status = to
		claim.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, domain.ActionAssign, req.Note); err != nil {
			return err
		}
		metadata := map[string]any{"assignee_id": assigneeID.String()}
		if previous != nil {
			metadata["previous_assignee_id"] = previous.String()
		}
		if err := s.audit(ctx, tx, actor, domain.ActionAssign, claim, metadata); err != nil {
			return err
		}

		t = transition{action: domain.ActionAssign, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "assign_claim", err)
	}

	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}

// CloseClaim archives a resolved claim. resolved_at keeps the decision time.
func (s *Service) CloseClaim(ctx context.Context, actor domain.Actor, req domain.CloseClaimRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationClose, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	var t transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, claimID)
		if err != nil {
			return err
		}
		if !scope.CanClose {
			return domain.ErrForbidden
		}
		from := claim.Status
		to, err := domain.Transition(from, domain.ActionClose)
		if err != nil {
			return err
		}

		claim.Status = to
		claim.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, domain.ActionClose, req.Note); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor, domain.ActionClose, claim, map[string]any{"from_status": string(from)}); err != nil {
			return err
		}

		t = transition{action: domain.ActionClose, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "close_claim", err)
	}

	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}

// RespondToInfoRequest records the dealer's answer as a note and, when
// resubmit is set, returns the claim to the review queue.
func (s *Service) RespondToInfoRequest(ctx context.Context, actor domain.Actor, req domain.RespondRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationRespond, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	response := strings.TrimSpace(req.Response)
	if response == "" {
		return domain.ClaimResult{}, domain.ErrInvalidResponse
	}
	action := domain.ActionRespond
	if req.Resubmit {
		action = domain.ActionResubmit
	}

	var t transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, claimID)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, claim); err != nil {
			return err
		}
		from := claim.Status
		to, err := domain.Transition(from, action)
		if err != nil {
			return err
		}

		now := s.now()
		claim.Status = to
		claim.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.repo.InsertNote(ctx, tx, &domain.Note{
			ID:        s.genID.Generate(),
			ClaimID:   claim.ID,
			UserID:    actor.UserID,
			Content:   response,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, action, ""); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor, action, claim, map[string]any{"resubmit": req.Resubmit}); err != nil {
			return err
		}

		t = transition{action: action, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "respond_to_info_request", err)
	}

	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}
