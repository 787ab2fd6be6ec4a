package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/warrantyhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/internal/warranty/format"
	pkgdb "github.com/smallbiznis/warrantyhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	numberLockTTL  = 10 * time.Second
	numberLockWait = 5 * time.Second
)

func (s *Service) CreateClaim(ctx context.Context, actor domain.Actor, req domain.CreateClaimRequest) (result domain.ClaimResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationCreate, start, err) }()

	if _, err := s.scope(ctx, actor); err != nil {
		return domain.ClaimResult{}, err
	}
	if actor.DealerID == nil || *actor.DealerID == 0 {
		return domain.ClaimResult{}, domain.ErrInvalidDealer
	}

	claimType, err := domain.ParseClaimType(req.ClaimType)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	description, err := s.validateIssueDescription(req.IssueDescription)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if err := validateAmounts(req.LaborHours, req.LaborRate, req.PartsAmount, req.ShippingAmount); err != nil {
		return domain.ClaimResult{}, err
	}
	items, err := validateItems(req.Items)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	now := s.now()
	status := domain.InitialStatus(req.Submit)
	claim := domain.Claim{
		DealerID:         *actor.DealerID,
		SubmittedByID:    actor.UserID,
		ClaimType:        claimType,
		Priority:         priority,
		ProductID:        optionalString(req.ProductID),
		ProductName:      strings.TrimSpace(req.ProductName),
		SerialNumber:     strings.TrimSpace(req.SerialNumber),
		ModelNumber:      strings.TrimSpace(req.ModelNumber),
		RVUnitID:         optionalString(req.RVUnitID),
		VIN:              strings.TrimSpace(req.VIN),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		CustomerAddress:  strings.TrimSpace(req.CustomerAddress),
		IssueDescription: description,
		FailureDate:      req.FailureDate,
		IsUnderWarranty:  req.IsUnderWarranty,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == domain.StatusSubmitted {
		claim.SubmittedAt = &now
	}

	totalsIn := domain.TotalsInput{
		LaborHours:     req.LaborHours,
		LaborRate:      req.LaborRate,
		PartsAmount:    req.PartsAmount,
		ShippingAmount: req.ShippingAmount,
		Items:          itemCosts(items),
	}
	claim.ApplyTotals(totalsIn, domain.CalculateTotals(totalsIn))

	if err := s.allocateAndInsert(ctx, actor, &claim, items); err != nil {
		return domain.ClaimResult{}, s.internal(ctx, "create_claim", err)
	}

	s.metrics.RecordClaimCreated(ctx, string(claim.ClaimType), string(claim.Status))
	s.committed(ctx, transition{
		action: domain.ActionCreate,
		claim:  claim,
		to:     claim.Status,
		actor:  actor,
	})

	return domain.ClaimResult{
		ClaimID:     claim.ID,
		ClaimNumber: claim.ClaimNumber,
		Status:      claim.Status,
	}, nil
}

// allocateAndInsert assigns the next claim number of the current year and
// inserts the claim. A racing creator that takes the same number makes the
// insert fail on the unique index; the whole transaction is then retried.
func (s *Service) allocateAndInsert(ctx context.Context, actor domain.Actor, claim *domain.Claim, items []domain.ClaimItemInput) error {
	cfg := s.config.Get().ClaimNumber
	year := claim.CreatedAt.Year()
	lockKey := fmt.Sprintf("warrantyhub:claim_number:%d", year)

	allocate := func(ctx context.Context) error {
		for attempt := 1; attempt <= cfg.AllocationAttempts; attempt++ {
			err := s.insertWithNextNumber(ctx, actor, claim, items, year)
			if err == nil {
				return nil
			}
			if !pkgdb.IsDuplicateKeyErr(err) {
				return err
			}
			s.claimMetrics.IncAllocationRetry()
			logger.WithContext(ctx, s.log).Warn("claim number taken, retrying",
				zap.Int("year", year),
				zap.Int("attempt", attempt),
			)
		}
		return domain.ErrClaimNumberUnavailable
	}

	ran := false
	err := s.locker.WithLock(ctx, lockKey, numberLockTTL, numberLockWait, func(ctx context.Context) error {
		ran = true
		return allocate(ctx)
	})
	if err != nil && !ran {
		// The unique index still guards numbering without the lock.
		logger.WithContext(ctx, s.log).Warn("claim number lock unavailable", zap.Error(err))
		return allocate(ctx)
	}
	return err
}

func (s *Service) insertWithNextNumber(ctx context.Context, actor domain.Actor, claim *domain.Claim, items []domain.ClaimItemInput, year int) error {
	cfg := s.config.Get().ClaimNumber

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx, year)
		if err != nil {
			return err
		}
		number, err := format.FormatClaimNumber(cfg.Prefix, year, int64(seq), cfg.SequenceWidth)
		if err != nil {
			return err
		}

		claim.ID = s.genID.Generate()
		claim.ClaimYear = year
		claim.ClaimSequence = seq
		claim.ClaimNumber = number

		if err := s.repo.Insert(ctx, tx, claim); err != nil {
			return err
		}
		if len(items) > 0 {
			if err := s.repo.ReplaceItems(ctx, tx, claim.ID, s.buildItems(claim.ID, items)); err != nil {
				return err
			}
		}
		if err := s.appendHistory(ctx, tx, claim.ID, nil, claim.Status, actor, domain.ActionCreate, ""); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, domain.ActionCreate, claim, map[string]any{
			"claim_type":      string(claim.ClaimType),
			"total_requested": claim.TotalRequested.StringFixed(2),
			"item_count":      len(items),
		})
	})
}

func (s *Service) buildItems(claimID snowflake.ID, inputs []domain.ClaimItemInput) []domain.ClaimItem {
	now := s.now()
	items := make([]domain.ClaimItem, 0, len(inputs))
	for _, in := range inputs {
		cost := domain.ItemCost{Quantity: in.Quantity, UnitCost: in.UnitCost}
		items = append(items, domain.ClaimItem{
			ID:               s.genID.Generate(),
			ClaimID:          claimID,
			PartNumber:       in.PartNumber,
			PartName:         in.PartName,
			Quantity:         in.Quantity,
			UnitCost:         domain.RoundMoney(in.UnitCost),
			TotalCost:        cost.LineTotal(),
			IssueType:        domain.IssueType(in.IssueType),
			IssueDescription: in.IssueDescription,
			CreatedAt:        now,
		})
	}
	return items
}
