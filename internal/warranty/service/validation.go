package service

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
)

func (s *Service) validateIssueDescription(value string) (string, error) {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) < s.config.Get().Validation.MinIssueDescriptionLength {
		return "", domain.ErrInvalidIssueDescription
	}
	return value, nil
}

func validateAmounts(amounts ...decimal.Decimal) error {
	for _, amount := range amounts {
		if amount.IsNegative() {
			return domain.ErrInvalidAmount
		}
	}
	return nil
}

// validateItems normalizes item input. An empty list is valid.
func validateItems(inputs []domain.ClaimItemInput) ([]domain.ClaimItemInput, error) {
	items := make([]domain.ClaimItemInput, 0, len(inputs))
	for _, in := range inputs {
		in.PartName = strings.TrimSpace(in.PartName)
		in.PartNumber = strings.TrimSpace(in.PartNumber)
		in.IssueDescription = strings.TrimSpace(in.IssueDescription)
		if in.PartName == "" || in.Quantity < 1 || in.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidItems
		}
		issueType, err := domain.ParseIssueType(in.IssueType)
		if err != nil {
			return nil, err
		}
		in.IssueType = string(issueType)
		items = append(items, in)
	}
	return items, nil
}

func itemCosts(items []domain.ClaimItemInput) []domain.ItemCost {
	costs := make([]domain.ItemCost, 0, len(items))
	for _, item := range items {
		costs = append(costs, domain.ItemCost{Quantity: item.Quantity, UnitCost: item.UnitCost})
	}
	return costs
}

func storedItemCosts(items []domain.ClaimItem) []domain.ItemCost {
	costs := make([]domain.ItemCost, 0, len(items))
	for _, item := range items {
		costs = append(costs, domain.ItemCost{Quantity: item.Quantity, UnitCost: item.UnitCost})
	}
	return costs
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
