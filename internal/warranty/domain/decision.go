package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ItemDecision is a reviewer's verdict on one line item.
type ItemDecision struct {
	ItemID         snowflake.ID
	Approved       bool
	ApprovedQty    *int
	ApprovedAmount *decimal.Decimal
	DenialReason   string
}

// ApplyDecision writes the review fields of item. Fields not supplied in the
// decision are cleared so a later review never inherits a stale verdict.
func ApplyDecision(item *ClaimItem, d ItemDecision) error {
	if item == nil || item.ID != d.ItemID {
		return ErrItemNotFound
	}
	if d.ApprovedQty != nil && (*d.ApprovedQty < 0 || *d.ApprovedQty > item.Quantity) {
		return ErrInvalidItemDecision
	}
	if d.ApprovedAmount != nil && d.ApprovedAmount.IsNegative() {
		return ErrInvalidItemDecision
	}

	approved := d.Approved
	item.Approved = &approved
	item.ApprovedQty = nil
	if d.ApprovedQty != nil {
		qty := *d.ApprovedQty
		item.ApprovedQty = &qty
	}
	item.ApprovedAmount = decimal.NullDecimal{}
	if d.ApprovedAmount != nil {
		item.ApprovedAmount = decimal.NewNullDecimal(RoundMoney(*d.ApprovedAmount))
	}
	item.DenialReason = strings.TrimSpace(d.DenialReason)
	return nil
}

// DeriveTotalApproved resolves the claim-level approved amount for a review.
//
// An explicit amount always wins. Otherwise approve and partial sum the
// supplied approved amounts when decisions were given; a plain approve falls
// back to totalRequested while a plain partial stays null and the reviewer is
// expected to supply the amount. Deny and request_info never derive a value.
func DeriveTotalApproved(action ClaimAction, explicit *decimal.Decimal, decisions []ItemDecision, totalRequested decimal.Decimal) decimal.NullDecimal {
	if action == ActionRequestInfo {
		return decimal.NullDecimal{}
	}
	if explicit != nil {
		return decimal.NewNullDecimal(RoundMoney(*explicit))
	}

	switch action {
	case ActionApprove, ActionPartial:
		if len(decisions) > 0 {
			sum := decimal.Zero
			for _, d := range decisions {
				if d.ApprovedAmount != nil {
					sum = sum.Add(RoundMoney(*d.ApprovedAmount))
				}
			}
			return decimal.NewNullDecimal(sum)
		}
		if action == ActionApprove {
			return decimal.NewNullDecimal(totalRequested)
		}
	}
	return decimal.NullDecimal{}
}
