package domain

import "github.com/shopspring/decimal"

const (
	moneyPlaces = 2
	hoursPlaces = 4
)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// RoundHours rounds labor hours to the stored column scale.
func RoundHours(d decimal.Decimal) decimal.Decimal {
	return d.Round(hoursPlaces)
}

type ItemCost struct {
	Quantity int
	UnitCost decimal.Decimal
}

// LineTotal is quantity times the cent-normalized unit cost.
func (i ItemCost) LineTotal() decimal.Decimal {
	return RoundMoney(decimal.NewFromInt(int64(i.Quantity)).Mul(RoundMoney(i.UnitCost)))
}

// TotalsInput carries the raw financial inputs of a claim. A non-empty Items
// list replaces PartsAmount.
type TotalsInput struct {
	LaborHours     decimal.Decimal
	LaborRate      decimal.Decimal
	PartsAmount    decimal.Decimal
	ShippingAmount decimal.Decimal
	Items          []ItemCost
}

type Totals struct {
	LaborAmount    decimal.Decimal
	PartsAmount    decimal.Decimal
	ShippingAmount decimal.Decimal
	TotalRequested decimal.Decimal
}

// CalculateTotals derives the claim amounts. Currency inputs are normalized to
// cents, hours keep their stored scale, and every component is rounded before
// the components are summed.
func CalculateTotals(in TotalsInput) Totals {
	labor := RoundMoney(RoundHours(in.LaborHours).Mul(RoundMoney(in.LaborRate)))

	parts := RoundMoney(in.PartsAmount)
	if len(in.Items) > 0 {
		parts = decimal.Zero
		for _, item := range in.Items {
			parts = parts.Add(decimal.NewFromInt(int64(item.Quantity)).Mul(RoundMoney(item.UnitCost)))
		}
		parts = RoundMoney(parts)
	}

	shipping := RoundMoney(in.ShippingAmount)

	return Totals{
		LaborAmount:    labor,
		PartsAmount:    parts,
		ShippingAmount: shipping,
		TotalRequested: labor.Add(parts).Add(shipping),
	}
}
