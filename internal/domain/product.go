package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Product is the read-only view of a catalogue product the checkout
// engine prices. Nullable numeric columns map to decimal.NullDecimal so a
// missing price is distinguishable from a zero price.
type Product struct {
	ID            string
	Name          string
	Category      string
	Price         decimal.NullDecimal
	DiscountPrice decimal.NullDecimal
	WeightKg      decimal.NullDecimal

	// Location is the free-text pickup location of the product (usually the
	// vendor's shop), e.g. "12 Allen Avenue, Ikeja, Lagos".
	Location string

	VendorID   string
	VendorName string
}

// ProductVariant is an optional priced variation of a product (size, pack).
type ProductVariant struct {
	ID      string
	Name    string
	Price   decimal.NullDecimal
	InStock bool
}

// ProductRepository supplies product records to the checkout engine.
// The engine never mutates products.
type ProductRepository interface {
	// GetProduct returns the product with the given id.
	// Returns a not_found domain error when the product does not exist.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetVariant returns a variant belonging to the given product.
	GetVariant(ctx context.Context, productID, variantID string) (*ProductVariant, error)
}
