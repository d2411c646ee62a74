package shipping_test

import (
	"testing"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/shipping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func kmPtr(v float64) *float64 { return &v }

func TestWeightCost_TierBoundaries(t *testing.T) {
	tiers := shipping.DefaultTariff().WeightTiers

	tests := []struct {
		weight string
		want   string
	}{
		{"0", "0"},
		{"150", "1500"},
		{"200", "2000"},
		{"201", "3015"},
		{"500", "7500"},
		{"501", "10020"},
		{"1000", "20000"},
		{"200.5", "3007.5"},
	}

	for _, tt := range tests {
		t.Run(tt.weight, func(t *testing.T) {
			got := shipping.WeightCost(dec(tt.weight), tiers)
			assert.True(t, dec(tt.want).Equal(got), "WeightCost(%s) = %s, want %s", tt.weight, got, tt.want)
		})
	}
}

func TestCalculate_StandardScenario(t *testing.T) {
	q := shipping.Calculate(kmPtr(20), dec("150"), shipping.DefaultTariff())

	require.NotNil(t, q.Breakdown)
	b := q.Breakdown
	assert.True(t, dec("750").Equal(b.BaseFare))
	assert.True(t, dec("0.5").Equal(b.EstimatedHours))
	assert.True(t, dec("25").Equal(b.TimeCost))
	assert.True(t, dec("1800").Equal(b.DistanceCost))
	assert.True(t, dec("2000").Equal(b.SurgeCost))
	assert.True(t, dec("300").Equal(b.TollsCost))
	assert.True(t, dec("300").Equal(b.WaitTimeCost))
	assert.True(t, dec("1500").Equal(b.WeightCost))

	assert.True(t, dec("6675").Equal(q.Subtotal), "subtotal = %s", q.Subtotal)
	assert.True(t, dec("500.625").Equal(q.ServiceFee), "service fee = %s", q.ServiceFee)
	assert.True(t, dec("7175.625").Equal(q.Total), "total = %s", q.Total)
	assert.False(t, q.IsDefaultFee())
}

func TestCalculate_LongDistanceUsesEstimatedHours(t *testing.T) {
	q := shipping.Calculate(kmPtr(500), decimal.Zero, shipping.DefaultTariff())

	require.NotNil(t, q.Breakdown)
	assert.True(t, dec("1.65").Equal(q.Breakdown.EstimatedHours))
	assert.True(t, dec("82.5").Equal(q.Breakdown.TimeCost))
	assert.True(t, dec("45000").Equal(q.Breakdown.DistanceCost))
}

func TestCalculate_TotalConsistency(t *testing.T) {
	cfg := shipping.DefaultTariff()
	for _, km := range []float64{0, 1, 7, 20, 151, 303, 999} {
		for _, w := range []string{"0", "0.25", "199.99", "200", "350", "500", "501", "2000"} {
			q := shipping.Calculate(kmPtr(km), dec(w), cfg)
			require.NotNil(t, q.Breakdown)
			assert.True(t, q.Subtotal.Equal(q.Breakdown.Sum()), "km=%v w=%s", km, w)
			assert.True(t, q.Total.Equal(q.Subtotal.Add(q.ServiceFee)), "km=%v w=%s", km, w)
			assert.False(t, q.Total.IsNegative())
		}
	}
}

func TestCalculate_UnresolvedChargesDefaultFee(t *testing.T) {
	cfg := shipping.DefaultTariff()

	unresolved := shipping.Calculate(nil, dec("150"), cfg)
	zero := shipping.Calculate(kmPtr(0), dec("150"), cfg)

	assert.True(t, unresolved.IsDefaultFee())
	assert.Nil(t, unresolved.Breakdown)
	assert.True(t, cfg.DefaultFee.Equal(unresolved.Total))
	assert.False(t, unresolved.Total.Equal(zero.Total), "unresolved must not be priced as zero distance")
}

func TestCalculate_NegativeInputsClamp(t *testing.T) {
	q := shipping.Calculate(kmPtr(-5), dec("-10"), shipping.DefaultTariff())
	require.NotNil(t, q.Breakdown)
	assert.True(t, q.Breakdown.DistanceCost.IsZero())
	assert.True(t, q.Breakdown.WeightCost.IsZero())
}

func TestCalculate_CustomServiceFee(t *testing.T) {
	cfg := shipping.DefaultTariff()
	cfg.ServiceFeePercent = decimal.Zero

	q := shipping.Calculate(kmPtr(20), dec("150"), cfg)
	assert.True(t, q.ServiceFee.IsZero())
	assert.True(t, q.Total.Equal(q.Subtotal))
}

func TestTariffConfig_Validate(t *testing.T) {
	assert.NoError(t, shipping.DefaultTariff().Validate())

	tests := []struct {
		name   string
		mutate func(*shipping.TariffConfig)
		want   error
	}{
		{"negative fee", func(c *shipping.TariffConfig) { c.SurgeFee = dec("-1") }, shipping.ErrNegativeTariff},
		{"no tiers", func(c *shipping.TariffConfig) { c.WeightTiers = nil }, shipping.ErrNoWeightTiers},
		{"unordered tiers", func(c *shipping.TariffConfig) {
			c.WeightTiers = []shipping.WeightTier{
				{MaxKg: decimal.NewNullDecimal(dec("500")), RatePerKg: dec("10")},
				{MaxKg: decimal.NewNullDecimal(dec("200")), RatePerKg: dec("15")},
			}
		}, shipping.ErrWeightTiersUnordered},
		{"open tier first", func(c *shipping.TariffConfig) {
			c.WeightTiers = []shipping.WeightTier{
				{RatePerKg: dec("10")},
				{MaxKg: decimal.NewNullDecimal(dec("200")), RatePerKg: dec("15")},
			}
		}, shipping.ErrOpenTierNotLast},
		{"negative tier rate", func(c *shipping.TariffConfig) {
			c.WeightTiers = []shipping.WeightTier{{RatePerKg: dec("-1")}}
		}, shipping.ErrNegativeTariff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := shipping.DefaultTariff()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestTotalWeight(t *testing.T) {
	withWeight := func(kg string) domain.Product {
		return domain.Product{ID: "p", WeightKg: decimal.NewNullDecimal(dec(kg))}
	}

	lines := []domain.CartLine{
		{Product: withWeight("2.5"), Quantity: 4},
		{Product: withWeight("100"), Quantity: 1},
		{Product: domain.Product{ID: "no-weight"}, Quantity: 10},
	}

	assert.True(t, dec("110").Equal(shipping.TotalWeight(lines)))
	assert.True(t, shipping.TotalWeight(nil).IsZero())
}
