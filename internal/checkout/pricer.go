package checkout

import (
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/dukerupert/souk/internal/shipping"
	"github.com/shopspring/decimal"
)

// Pricer combines line prices, promo, tax and delivery into cart totals.
type Pricer struct {
	Tariff         shipping.TariffConfig
	TaxRatePercent decimal.Decimal
}

// Pricing is a computed cart price.
type Pricing struct {
	Totals   pricing.CartTotals `json:"totals"`
	WeightKg decimal.Decimal    `json:"weight_kg"`

	// Delivery is nil until the distance resolution attempt has completed.
	Delivery *shipping.Quote `json:"delivery,omitempty"`
}

// Price computes totals for lines. A nil distance means the delivery fee
// is not known yet and is left out of the grand total. Tax applies to the
// subtotal before discount.
func (p Pricer) Price(lines []domain.CartLine, distance *domain.ResolvedDistance, promo *pricing.PromoState) (Pricing, error) {
	subtotal, err := pricing.Subtotal(lines)
	if err != nil {
		return Pricing{}, err
	}

	discount := decimal.Zero
	if promo != nil {
		discount = promo.Discount(subtotal)
	}

	weight := shipping.TotalWeight(lines)
	fee := decimal.Zero
	var delivery *shipping.Quote
	if distance != nil {
		q := shipping.Calculate(distance.Kilometers, weight, p.Tariff)
		delivery = &q
		fee = q.Total
	}

	totals, err := pricing.Aggregate(lines, discount, fee, p.TaxRatePercent)
	if err != nil {
		return Pricing{}, err
	}

	return Pricing{Totals: totals, WeightKg: weight, Delivery: delivery}, nil
}
