// Package shipping prices delivery from a resolved distance and the cart's
// total weight.
package shipping

import (
	"github.com/dukerupert/souk/internal/domain"
	"github.com/shopspring/decimal"
)

// WeightTier charges RatePerKg on the whole weight when it falls within the
// tier. MaxKg is inclusive; a null MaxKg is unbounded and must come last.
type WeightTier struct {
	MaxKg     decimal.NullDecimal
	RatePerKg decimal.Decimal
}

// TariffConfig holds every constant of the delivery formula.
type TariffConfig struct {
	BaseFare          decimal.Decimal
	TimeRatePerHour   decimal.Decimal
	MinHours          decimal.Decimal
	HoursPerKm        decimal.Decimal
	DistanceRatePerKm decimal.Decimal
	SurgeFee          decimal.Decimal
	TollsFee          decimal.Decimal
	WaitTimeFee       decimal.Decimal
	WeightTiers       []WeightTier

	// DefaultFee is charged flat when the distance is unresolved.
	DefaultFee decimal.Decimal

	// ServiceFeePercent is applied to the delivery subtotal.
	ServiceFeePercent decimal.Decimal
}

// DefaultTariff returns the standard Nigerian delivery tariff in naira.
func DefaultTariff() TariffConfig {
	return TariffConfig{
		BaseFare:          decimal.NewFromInt(750),
		TimeRatePerHour:   decimal.NewFromInt(50),
		MinHours:          decimal.RequireFromString("0.5"),
		HoursPerKm:        decimal.RequireFromString("0.0033"),
		DistanceRatePerKm: decimal.NewFromInt(90),
		SurgeFee:          decimal.NewFromInt(2000),
		TollsFee:          decimal.NewFromInt(300),
		WaitTimeFee:       decimal.NewFromInt(300),
		WeightTiers: []WeightTier{
			{MaxKg: decimal.NewNullDecimal(decimal.NewFromInt(200)), RatePerKg: decimal.NewFromInt(10)},
			{MaxKg: decimal.NewNullDecimal(decimal.NewFromInt(500)), RatePerKg: decimal.NewFromInt(15)},
			{RatePerKg: decimal.NewFromInt(20)},
		},
		DefaultFee:        decimal.NewFromInt(5000),
		ServiceFeePercent: decimal.RequireFromString("7.5"),
	}
}

// Validate checks the tariff for negative values and malformed tiers.
func (c TariffConfig) Validate() error {
	for _, v := range []decimal.Decimal{
		c.BaseFare, c.TimeRatePerHour, c.MinHours, c.HoursPerKm, c.DistanceRatePerKm,
		c.SurgeFee, c.TollsFee, c.WaitTimeFee, c.DefaultFee, c.ServiceFeePercent,
	} {
		if v.IsNegative() {
			return ErrNegativeTariff
		}
	}

	if len(c.WeightTiers) == 0 {
		return ErrNoWeightTiers
	}
	var prev decimal.NullDecimal
	for i, tier := range c.WeightTiers {
		if tier.RatePerKg.IsNegative() {
			return ErrNegativeTariff
		}
		if !tier.MaxKg.Valid {
			if i != len(c.WeightTiers)-1 {
				return ErrOpenTierNotLast
			}
			continue
		}
		if tier.MaxKg.Decimal.IsNegative() {
			return ErrNegativeTariff
		}
		if prev.Valid && tier.MaxKg.Decimal.LessThanOrEqual(prev.Decimal) {
			return ErrWeightTiersUnordered
		}
		prev = tier.MaxKg
	}
	return nil
}

// Breakdown itemises a distance-based delivery price.
type Breakdown struct {
	DistanceKm     decimal.Decimal `json:"distance_km"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	WeightKg       decimal.Decimal `json:"weight_kg"`

	BaseFare     decimal.Decimal `json:"base_fare"`
	TimeCost     decimal.Decimal `json:"time_cost"`
	DistanceCost decimal.Decimal `json:"distance_cost"`
	SurgeCost    decimal.Decimal `json:"surge_cost"`
	TollsCost    decimal.Decimal `json:"tolls_cost"`
	WaitTimeCost decimal.Decimal `json:"wait_time_cost"`
	WeightCost   decimal.Decimal `json:"weight_cost"`
}

// Sum adds every cost component.
func (b Breakdown) Sum() decimal.Decimal {
	return decimal.Sum(b.BaseFare, b.TimeCost, b.DistanceCost, b.SurgeCost, b.TollsCost, b.WaitTimeCost, b.WeightCost)
}

// Quote is a delivery price. Breakdown is nil when the flat default fee
// was charged because the distance was unresolved.
type Quote struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	Total      decimal.Decimal `json:"total"`
	Breakdown  *Breakdown      `json:"breakdown,omitempty"`
}

// IsDefaultFee reports whether the flat fallback fee was charged.
func (q Quote) IsDefaultFee() bool {
	return q.Breakdown == nil
}

// Calculate prices a delivery. A nil distance charges cfg.DefaultFee and is
// never treated as zero kilometres. No intermediate value is rounded.
func Calculate(distanceKm *float64, weightKg decimal.Decimal, cfg TariffConfig) Quote {
	if distanceKm == nil {
		return Quote{
			Subtotal:   cfg.DefaultFee,
			ServiceFee: decimal.Zero,
			Total:      cfg.DefaultFee,
		}
	}

	km := decimal.NewFromFloat(*distanceKm)
	if km.IsNegative() {
		km = decimal.Zero
	}
	if weightKg.IsNegative() {
		weightKg = decimal.Zero
	}

	hours := decimal.Max(cfg.MinHours, km.Mul(cfg.HoursPerKm))

	b := &Breakdown{
		DistanceKm:     km,
		EstimatedHours: hours,
		WeightKg:       weightKg,
		BaseFare:       cfg.BaseFare,
		TimeCost:       cfg.TimeRatePerHour.Mul(hours),
		DistanceCost:   cfg.DistanceRatePerKm.Mul(km),
		SurgeCost:      cfg.SurgeFee,
		TollsCost:      cfg.TollsFee,
		WaitTimeCost:   cfg.WaitTimeFee,
		WeightCost:     WeightCost(weightKg, cfg.WeightTiers),
	}

	subtotal := b.Sum()
	serviceFee := subtotal.Mul(cfg.ServiceFeePercent).Div(hundred)

	return Quote{
		Subtotal:   subtotal,
		ServiceFee: serviceFee,
		Total:      subtotal.Add(serviceFee),
		Breakdown:  b,
	}
}

// WeightCost charges the whole weight at the rate of the first tier whose
// limit it does not exceed.
func WeightCost(weightKg decimal.Decimal, tiers []WeightTier) decimal.Decimal {
	if len(tiers) == 0 || !weightKg.IsPositive() {
		return decimal.Zero
	}
	for _, tier := range tiers {
		if !tier.MaxKg.Valid || weightKg.LessThanOrEqual(tier.MaxKg.Decimal) {
			return weightKg.Mul(tier.RatePerKg)
		}
	}
	return weightKg.Mul(tiers[len(tiers)-1].RatePerKg)
}

// TotalWeight sums quantity times product weight. Products without a weight
// contribute nothing.
func TotalWeight(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if !line.Product.WeightKg.Valid || line.Quantity <= 0 {
			continue
		}
		total = total.Add(line.Product.WeightKg.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

var hundred = decimal.NewFromInt(100)
