package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
)

func (s *Service) GetClaimByID(ctx context.Context, actor domain.Actor, claimID string) (domain.ClaimDetail, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimDetail{}, err
	}
	id, err := parseClaimID(claimID)
	if err != nil {
		return domain.ClaimDetail{}, err
	}
	claim, err := s.loadVisibleClaim(ctx, scope, id)
	if err != nil {
		return domain.ClaimDetail{}, err
	}

	items, err := s.repo.ListItems(ctx, s.db, claim.ID)
	if err != nil {
		return domain.ClaimDetail{}, s.internal(ctx, "list_items", err)
	}
	notes, err := s.repo.ListNotes(ctx, s.db, claim.ID)
	if err != nil {
		return domain.ClaimDetail{}, s.internal(ctx, "list_notes", err)
	}
	history, err := s.repo.ListHistory(ctx, s.db, claim.ID)
	if err != nil {
		return domain.ClaimDetail{}, s.internal(ctx, "list_history", err)
	}

	return domain.ClaimDetail{
		Claim:   *claim,
		Items:   items,
		Notes:   scope.VisibleNotes(notes),
		History: history,
	}, nil
}

func (s *Service) ListClaims(ctx context.Context, actor domain.Actor, req domain.ListClaimsRequest) (domain.ListClaimsResponse, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ListClaimsResponse{}, err
	}

	filter, err := buildListFilter(req)
	if err != nil {
		return domain.ListClaimsResponse{}, err
	}
	requestedDealer, err := parseOptionalID(req.DealerID, domain.ErrInvalidDealer)
	if err != nil {
		return domain.ListClaimsResponse{}, err
	}
	filter.DealerID = scope.DealerFilter(requestedDealer)

	listing := s.config.Get().Listing
	page := pagination.Pagination{Page: req.Page, PageSize: req.PageSize}.Normalize(listing.DefaultPageSize, listing.MaxPageSize)

	if scope.ReadsNothing() {
		return domain.ListClaimsResponse{
			Claims:     []domain.Claim{},
			Pagination: pagination.BuildPageInfo(page, 0),
		}, nil
	}

	claims, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListClaimsResponse{}, s.internal(ctx, "list_claims", err)
	}
	if claims == nil {
		claims = []domain.Claim{}
	}

	return domain.ListClaimsResponse{
		Claims:     claims,
		Pagination: pagination.BuildPageInfo(page, total),
	}, nil
}

func buildListFilter(req domain.ListClaimsRequest) (domain.ListClaimFilter, error) {
	filter := domain.ListClaimFilter{
		Search:      strings.TrimSpace(req.Search),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
		SortBy:      domain.DefaultClaimSortField,
		SortDesc:    true,
	}

	if value := strings.TrimSpace(req.Status); value != "" {
		status, err := domain.ParseStatus(value)
		if err != nil {
			return domain.ListClaimFilter{}, err
		}
		filter.Status = &status
	}
	if value := strings.TrimSpace(req.ClaimType); value != "" {
		claimType, err := domain.ParseClaimType(value)
		if err != nil {
			return domain.ListClaimFilter{}, err
		}
		filter.ClaimType = &claimType
	}
	if value := strings.TrimSpace(req.Priority); value != "" {
		priority, err := domain.ParsePriority(value)
		if err != nil {
			return domain.ListClaimFilter{}, err
		}
		filter.Priority = &priority
	}
	assignee, err := parseOptionalID(req.AssignedToID, domain.ErrInvalidAssignee)
	if err != nil {
		return domain.ListClaimFilter{}, err
	}
	filter.AssignedToID = assignee

	if req.CreatedFrom != nil && req.CreatedTo != nil && req.CreatedFrom.After(*req.CreatedTo) {
		return domain.ListClaimFilter{}, domain.ErrInvalidDateRange
	}

	if sortBy := strings.ToLower(strings.TrimSpace(req.SortBy)); sortBy != "" {
		if _, ok := domain.ClaimSortFields[sortBy]; !ok {
			return domain.ListClaimFilter{}, domain.ErrInvalidSort
		}
		filter.SortBy = sortBy
	}
	switch strings.ToLower(strings.TrimSpace(req.SortOrder)) {
	case "", "desc":
		filter.SortDesc = true
	case "asc":
		filter.SortDesc = false
	default:
		return domain.ListClaimFilter{}, domain.ErrInvalidSort
	}
	return filter, nil
}

func (s *Service) GetStats(ctx context.Context, actor domain.Actor) (domain.ClaimStats, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.ClaimStats{}, err
	}
	if scope.ReadsNothing() {
		return domain.ClaimStats{}, nil
	}

	stats, err := s.repo.Stats(ctx, s.db, scope.DealerFilter(nil))
	if err != nil {
		return domain.ClaimStats{}, s.internal(ctx, "claim_stats", err)
	}
	return stats, nil
}
