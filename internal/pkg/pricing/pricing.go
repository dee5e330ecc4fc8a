// Package pricing computes prices for quantity-unit tiers. Cart display totals
// and committed order totals both go through this package so they cannot
// diverge.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/FoodFox/app/models"
)

// Scale is the number of decimal places money is stored with.
const Scale int32 = 2

var (
	multiplierSmall  = decimal.NewFromInt(1)
	multiplierMedium = decimal.NewFromInt(2)
	// LARGE is four base units with a 10% bulk discount.
	multiplierLarge = decimal.NewFromInt(4).Mul(decimal.RequireFromString("0.9"))
)

// UnitMultiplier returns the price multiplier of unit relative to SMALL.
func UnitMultiplier(unit models.QuantityUnit) (decimal.Decimal, error) {
	switch unit {
	case models.UnitSmall:
		return multiplierSmall, nil
	case models.UnitMedium:
		return multiplierMedium, nil
	case models.UnitLarge:
		return multiplierLarge, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown quantity unit %q", unit)
	}
}

// Round brings an amount to the stored money scale.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// UnitPrice is the price of a single item of the given unit, rounded to the
// money scale. Totals are built from this rounded price.
func UnitPrice(basePrice decimal.Decimal, unit models.QuantityUnit) (decimal.Decimal, error) {
	m, err := UnitMultiplier(unit)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(basePrice.Mul(m)), nil
}

// LineTotal is UnitPrice(basePrice, unit) * quantity.
func LineTotal(basePrice decimal.Decimal, unit models.QuantityUnit, quantity int) (decimal.Decimal, error) {
	price, err := UnitPrice(basePrice, unit)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// Line is one priced position.
type Line struct {
	BasePrice decimal.Decimal
	Unit      models.QuantityUnit
	Quantity  int
}

// Total sums LineTotal over lines.
func Total(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range lines {
		lt, err := LineTotal(l.BasePrice, l.Unit, l.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lt)
	}
	return total, nil
}
