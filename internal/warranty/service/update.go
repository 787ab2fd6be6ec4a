package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"gorm.io/gorm"
)

// claimPatch is a validated UpdateClaimRequest.
type claimPatch struct {
	req         domain.UpdateClaimRequest
	claimType   *domain.ClaimType
	priority    *domain.Priority
	description *string
	items       *[]domain.ClaimItemInput
}

func (s *Service) validatePatch(req domain.UpdateClaimRequest) (claimPatch, error) {
	patch := claimPatch{req: req}

	if req.ClaimType != nil {
		claimType, err := domain.ParseClaimType(*req.ClaimType)
		if err != nil {
			return claimPatch{}, err
		}
		patch.claimType = &claimType
	}
	if req.Priority != nil {
		priority, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return claimPatch{}, err
		}
		patch.priority = &priority
	}
	if req.IssueDescription != nil {
		description, err := s.validateIssueDescription(*req.IssueDescription)
		if err != nil {
			return claimPatch{}, err
		}
		patch.description = &description
	}
	for _, amount := range []*decimal.Decimal{req.LaborHours, req.LaborRate, req.PartsAmount, req.ShippingAmount} {
		if amount != nil && amount.IsNegative() {
			return claimPatch{}, domain.ErrInvalidAmount
		}
	}
	if req.Items != nil {
		items, err := validateItems(*req.Items)
		if err != nil {
			return claimPatch{}, err
		}
		patch.items = &items
	}
	return patch, nil
}

// apply writes the patch onto claim and returns the recomputed totals input.
// Without a new item list the stored items keep driving the parts amount.
func (p claimPatch) apply(claim *domain.Claim, stored []domain.ClaimItem) domain.TotalsInput {
	req := p.req
	if p.claimType != nil {
		claim.ClaimType = *p.claimType
	}
	if p.priority != nil {
		claim.Priority = *p.priority
	}
	if req.ProductID != nil {
		claim.ProductID = optionalString(req.ProductID)
	}
	setTrimmed(&claim.ProductName, req.ProductName)
	setTrimmed(&claim.SerialNumber, req.SerialNumber)
	setTrimmed(&claim.ModelNumber, req.ModelNumber)
	if req.RVUnitID != nil {
		claim.RVUnitID = optionalString(req.RVUnitID)
	}
	setTrimmed(&claim.VIN, req.VIN)
	setTrimmed(&claim.CustomerName, req.CustomerName)
	setTrimmed(&claim.CustomerPhone, req.CustomerPhone)
	setTrimmed(&claim.CustomerEmail, req.CustomerEmail)
	setTrimmed(&claim.CustomerAddress, req.CustomerAddress)
	if p.description != nil {
		claim.IssueDescription = *p.description
	}
	if req.FailureDate != nil {
		claim.FailureDate = req.FailureDate
	}
	if req.IsUnderWarranty != nil {
		claim.IsUnderWarranty = *req.IsUnderWarranty
	}

	in := claim.Financials()
	if req.LaborHours != nil {
		in.LaborHours = *req.LaborHours
	}
	if req.LaborRate != nil {
		in.LaborRate = *req.LaborRate
	}
	if req.PartsAmount != nil {
		in.PartsAmount = *req.PartsAmount
	}
	if req.ShippingAmount != nil {
		in.ShippingAmount = *req.ShippingAmount
	}
	if p.items != nil {
		in.Items = itemCosts(*p.items)
	} else {
		in.Items = storedItemCosts(stored)
	}
	return in
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func (s *Service) UpdateClaim(ctx context.Context, actor domain.Actor, req domain.UpdateClaimRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationUpdate, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	patch, err := s.validatePatch(req)
	if err != nil {
		return domain.ClaimResult{}, err
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
		to, err := domain.Transition(from, domain.ActionEdit)
		if err != nil {
			return err
		}

		stored, err := s.repo.ListItems(ctx, tx, claim.ID)
		if err != nil {
			return err
		}
		in := patch.apply(claim, stored)
		claim.ApplyTotals(in, domain.CalculateTotals(in))
		claim.Status = to
		claim.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if patch.items != nil {
			if err := s.repo.ReplaceItems(ctx, tx, claim.ID, s.buildItems(claim.ID, *patch.items)); err != nil {
				return err
			}
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, domain.ActionEdit, req.Note); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor, domain.ActionEdit, claim, map[string]any{
			"items_replaced":  patch.items != nil,
			"total_requested": claim.TotalRequested.StringFixed(2),
		}); err != nil {
			return err
		}

		t = transition{action: domain.ActionEdit, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "update_claim", err)
	}

	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}

func (s *Service) SubmitClaim(ctx context.Context, actor domain.Actor, claimID string) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationSubmit, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	id, err := parseClaimID(claimID)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	var t transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, id)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, claim); err != nil {
			return err
		}
		from := claim.Status
		to, err := domain.Transition(from, domain.ActionSubmit)
		if err != nil {
			return err
		}

		now := s.now()
		claim.Status = to
		if claim.SubmittedAt == nil {
			claim.SubmittedAt = &now
		}
		claim.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, claim); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, tx, claim.ID, from.Ptr(), to, actor, domain.ActionSubmit, ""); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor, domain.ActionSubmit, claim, nil); err != nil {
			return err
		}

		t = transition{action: domain.ActionSubmit, claim: *claim, from: from.Ptr(), to: to, actor: actor}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "submit_claim", err)
	}

	s.committed(ctx, t)
	return domain.ClaimResult{ClaimID: t.claim.ID, ClaimNumber: t.claim.ClaimNumber, Status: t.claim.Status}, nil
}

// DeleteClaim soft-deletes a draft. The claim number stays allocated.
func (s *Service) DeleteClaim(ctx context.Context, actor domain.Actor, claimID string) (err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationDelete, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return err
	}
	id, err := parseClaimID(claimID)
	if err != nil {
		return err
	}

	var deleted domain.Claim
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, id)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, claim); err != nil {
			return err
		}
		if _, err := domain.Transition(claim.Status, domain.ActionDelete); err != nil {
			return err
		}

		if err := s.repo.SoftDelete(ctx, tx, claim.ID, s.now()); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor, domain.ActionDelete, claim, nil); err != nil {
			return err
		}
		deleted = *claim
		return nil
	})
	if err != nil {
		return s.internal(ctx, "delete_claim", err)
	}

	s.committed(ctx, transition{
		action: domain.ActionDelete,
		claim:  deleted,
		from:   deleted.Status.Ptr(),
		to:     deleted.Status,
		actor:  actor,
	})
	return nil
}
