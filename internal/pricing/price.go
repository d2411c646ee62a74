// Package pricing resolves authoritative unit prices and aggregates cart
// totals, tax and promo discounts. All arithmetic uses decimal.Decimal and
// nothing is rounded before display.
package pricing

import (
	"fmt"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/shopspring/decimal"
)

// ResolveUnitPrice returns the price charged for one unit of the line.
//
// Precedence: a variant price when the line has a variant with a valid
// price, then the product's discount price when it is a genuine discount,
// then the product's list price.
func ResolveUnitPrice(line domain.CartLine) (decimal.Decimal, error) {
	if line.Variant != nil && validPrice(line.Variant.Price) {
		return line.Variant.Price.Decimal, nil
	}

	p := line.Product
	if isDiscount(p) {
		return p.DiscountPrice.Decimal, nil
	}
	if validPrice(p.Price) {
		return p.Price.Decimal, nil
	}

	return decimal.Zero, &domain.Error{
		Code:    domain.EINVALID,
		Op:      "pricing.resolve_unit_price",
		Message: fmt.Sprintf("Product %q has no valid price", productLabel(p)),
		Err:     ErrInvalidPriceData,
	}
}

// DisplayPrice returns the price to show for a product and, when a genuine
// discount applies, the list price to show struck through.
func DisplayPrice(p domain.Product) (price decimal.Decimal, compareAt decimal.NullDecimal, err error) {
	if isDiscount(p) {
		if validPrice(p.Price) && p.Price.Decimal.GreaterThan(p.DiscountPrice.Decimal) {
			compareAt = p.Price
		}
		return p.DiscountPrice.Decimal, compareAt, nil
	}
	if validPrice(p.Price) {
		return p.Price.Decimal, decimal.NullDecimal{}, nil
	}
	return decimal.Zero, decimal.NullDecimal{}, ErrInvalidPriceData
}

// validPrice reports whether a nullable price is present and non-negative.
func validPrice(p decimal.NullDecimal) bool {
	return p.Valid && !p.Decimal.IsNegative()
}

// isDiscount reports whether the product's discount price should be charged.
// A discount price above a valid list price is a markup and is ignored.
func isDiscount(p domain.Product) bool {
	if !validPrice(p.DiscountPrice) {
		return false
	}
	if validPrice(p.Price) && p.DiscountPrice.Decimal.GreaterThan(p.Price.Decimal) {
		return false
	}
	return true
}

func productLabel(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
