package domain

import (
	"context"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrCartLineNotFound = &Error{Code: ENOTFOUND, Message: "Cart line not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartLine is a single product (and optional variant) in a cart.
type CartLine struct {
	ID       string
	Product  Product
	Variant  *ProductVariant
	Quantity int

	// Color is a cosmetic label and never affects price.
	Color string
}

// Validate checks the line-level invariants.
func (l CartLine) Validate() error {
	if l.Quantity < 1 {
		return &Error{Code: EINVALID, Op: "cart.line", Message: ErrInvalidQuantity.Message}
	}
	return nil
}

// LineRef identifies a cart line by catalogue ids, as submitted by clients.
type LineRef struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Color     string `json:"color,omitempty"`
}

// HydrateLines loads product and variant records for the given refs.
func HydrateLines(ctx context.Context, products ProductRepository, refs []LineRef) ([]CartLine, error) {
	lines := make([]CartLine, 0, len(refs))
	for i, ref := range refs {
		if ref.Quantity < 1 {
			return nil, Errorf(EINVALID, "cart.hydrate", "line %d: quantity must be greater than 0", i+1)
		}

		product, err := products.GetProduct(ctx, ref.ProductID)
		if err != nil {
			return nil, err
		}

		line := CartLine{
			ID:       ref.ID,
			Product:  *product,
			Quantity: ref.Quantity,
			Color:    ref.Color,
		}
		if line.ID == "" {
			line.ID = ref.ProductID
			if ref.VariantID != "" {
				line.ID += ":" + ref.VariantID
			}
		}

		if ref.VariantID != "" {
			variant, err := products.GetVariant(ctx, ref.ProductID, ref.VariantID)
			if err != nil {
				return nil, err
			}
			line.Variant = variant
		}

		lines = append(lines, line)
	}
	return lines, nil
}
