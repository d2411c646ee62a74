package pricing

import (
	"github.com/dukerupert/souk/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CartTotals is the payable breakdown of a cart.
// GrandTotal == max(0, Subtotal + Tax + DeliveryFee - Discount).
type CartTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// LineTotal returns unit price × quantity for a single line.
func LineTotal(line domain.CartLine) (decimal.Decimal, error) {
	if err := line.Validate(); err != nil {
		return decimal.Zero, err
	}
	unit, err := ResolveUnitPrice(line)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(decimal.NewFromInt(int64(line.Quantity))), nil
}

// Subtotal sums the line totals of a cart.
func Subtotal(lines []domain.CartLine) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		total, err := LineTotal(line)
		if err != nil {
			return decimal.Zero, err
		}
		subtotal = subtotal.Add(total)
	}
	return subtotal, nil
}

// Aggregate combines line totals, tax, discount and delivery fee.
// taxRatePercent is a percentage (7.5 means 7.5%).
func Aggregate(lines []domain.CartLine, discount, deliveryFee, taxRatePercent decimal.Decimal) (CartTotals, error) {
	if discount.IsNegative() || deliveryFee.IsNegative() || taxRatePercent.IsNegative() {
		return CartTotals{}, ErrNegativeAmount
	}

	subtotal, err := Subtotal(lines)
	if err != nil {
		return CartTotals{}, err
	}

	tax := subtotal.Mul(taxRatePercent).Div(hundred)
	grand := subtotal.Add(tax).Add(deliveryFee).Sub(discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return CartTotals{
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		DeliveryFee: deliveryFee,
		GrandTotal:  grand,
	}, nil
}
