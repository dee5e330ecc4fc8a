package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoodFox/app/models"
)

func TestUnitMultiplier(t *testing.T) {
	tests := []struct {
		unit models.QuantityUnit
		want string
	}{
		{unit: models.UnitSmall, want: "1"},
		{unit: models.UnitMedium, want: "2"},
		{unit: models.UnitLarge, want: "3.6"},
	}

	for _, tt := range tests {
		got, err := UnitMultiplier(tt.unit)
		require.NoError(t, err)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("UnitMultiplier(%s) = %s, want %s", tt.unit, got, tt.want)
		}
	}
}

func TestUnitMultiplierRejectsUnknownUnit(t *testing.T) {
	_, err := UnitMultiplier("XL")
	assert.Error(t, err)
}

func TestLineTotalLargeBulkDiscount(t *testing.T) {
	got, err := LineTotal(decimal.NewFromInt(100), models.UnitLarge, 2)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(720)), "got %s", got)
}

func TestLineTotalKeepsCents(t *testing.T) {
	got, err := LineTotal(decimal.RequireFromString("2.49"), models.UnitMedium, 3)
	require.NoError(t, err)
	assert.Equal(t, "14.94", got.StringFixed(2))
}

func TestFractionalLargePriceIsRounded(t *testing.T) {
	price, err := UnitPrice(decimal.RequireFromString("0.99"), models.UnitLarge)
	require.NoError(t, err)
	assert.Equal(t, "3.56", price.String())

	line, err := LineTotal(decimal.RequireFromString("0.99"), models.UnitLarge, 10)
	require.NoError(t, err)
	assert.True(t, line.Equal(price.Mul(decimal.NewFromInt(10))), "got %s", line)
	assert.Equal(t, "35.6", line.String())
}

func TestRound(t *testing.T) {
	assert.Equal(t, "1.01", Round(decimal.RequireFromString("1.005")).String())
	assert.Equal(t, "2", Round(decimal.RequireFromString("2.004")).String())
}

func TestTotal(t *testing.T) {
	total, err := Total([]Line{
		{BasePrice: decimal.NewFromInt(10), Unit: models.UnitSmall, Quantity: 3},
		{BasePrice: decimal.NewFromInt(10), Unit: models.UnitLarge, Quantity: 1},
	})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(66)), "got %s", total)

	_, err = Total([]Line{{BasePrice: decimal.NewFromInt(1), Unit: "HUGE", Quantity: 1}})
	assert.Error(t, err)
}
