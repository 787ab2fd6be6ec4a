package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCalculateTotalsPinnedScenario(t *testing.T) {
	totals := CalculateTotals(TotalsInput{
		LaborHours:     dec("2"),
		LaborRate:      dec("75"),
		ShippingAmount: dec("10.005"),
		Items:          []ItemCost{{Quantity: 3, UnitCost: dec("12.333")}},
	})

	assert.Equal(t, "150.00", totals.LaborAmount.StringFixed(2))
	assert.Equal(t, "36.99", totals.PartsAmount.StringFixed(2))
	assert.Equal(t, "10.01", totals.ShippingAmount.StringFixed(2))
	assert.Equal(t, "197.00", totals.TotalRequested.StringFixed(2))
}

func TestCalculateTotalsKeepsFractionalHours(t *testing.T) {
	for _, tc := range []struct {
		hours, rate, labor string
	}{
		{"0.333", "90", "29.97"},
		{"1.255", "100", "125.50"},
		{"0.25", "80.005", "20.00"},
		{"2.12345", "10", "21.24"},
	} {
		totals := CalculateTotals(TotalsInput{LaborHours: dec(tc.hours), LaborRate: dec(tc.rate)})
		assert.Equal(t, tc.labor, totals.LaborAmount.StringFixed(2), "%s h x %s", tc.hours, tc.rate)
		assert.True(t, totals.TotalRequested.Equal(totals.LaborAmount))
	}
}

func TestApplyTotalsStoresHoursAtFourPlaces(t *testing.T) {
	in := TotalsInput{LaborHours: dec("1.23456"), LaborRate: dec("50.555")}
	var claim Claim
	claim.ApplyTotals(in, CalculateTotals(in))

	assert.Equal(t, "1.2346", claim.LaborHours.StringFixed(4))
	assert.Equal(t, "50.56", claim.LaborRate.StringFixed(2))
	assert.Equal(t, "62.42", claim.LaborAmount.StringFixed(2))
}

func TestCalculateTotalsRoundsComponentsBeforeSumming(t *testing.T) {
	totals := CalculateTotals(TotalsInput{
		LaborHours:     dec("1.5"),
		LaborRate:      dec("33.335"),
		PartsAmount:    dec("0.005"),
		ShippingAmount: dec("0.005"),
	})

	// 1.50 x 33.34 = 50.01; parts and shipping each round up to 0.01.
	assert.Equal(t, "50.01", totals.LaborAmount.StringFixed(2))
	assert.Equal(t, "0.01", totals.PartsAmount.StringFixed(2))
	assert.Equal(t, "0.01", totals.ShippingAmount.StringFixed(2))
	assert.True(t, totals.TotalRequested.Equal(totals.LaborAmount.Add(totals.PartsAmount).Add(totals.ShippingAmount)))
	assert.Equal(t, "50.03", totals.TotalRequested.StringFixed(2))
}

func TestCalculateTotalsItemsOverrideExplicitParts(t *testing.T) {
	totals := CalculateTotals(TotalsInput{
		PartsAmount: dec("999.99"),
		Items: []ItemCost{
			{Quantity: 2, UnitCost: dec("10.50")},
			{Quantity: 1, UnitCost: dec("4.25")},
		},
	})
	assert.Equal(t, "25.25", totals.PartsAmount.StringFixed(2))
	assert.Equal(t, "25.25", totals.TotalRequested.StringFixed(2))
}

func TestCalculateTotalsDefaultsToZero(t *testing.T) {
	totals := CalculateTotals(TotalsInput{})
	assert.True(t, totals.TotalRequested.IsZero())
	assert.True(t, totals.LaborAmount.IsZero())
}

func TestCalculateTotalsUsesExplicitPartsWithoutItems(t *testing.T) {
	totals := CalculateTotals(TotalsInput{PartsAmount: dec("12.345")})
	assert.Equal(t, "12.35", totals.PartsAmount.StringFixed(2))
}

func TestRoundMoneyHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "0.13", RoundMoney(dec("0.125")).StringFixed(2))
	assert.Equal(t, "-0.13", RoundMoney(dec("-0.125")).StringFixed(2))
}

func TestItemLineTotal(t *testing.T) {
	assert.Equal(t, "36.99", ItemCost{Quantity: 3, UnitCost: dec("12.333")}.LineTotal().StringFixed(2))
}
