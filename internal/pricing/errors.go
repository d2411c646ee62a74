package pricing

import "github.com/dukerupert/souk/internal/domain"

var (
	// ErrInvalidPriceData is returned when a cart line has no valid
	// non-negative price. It blocks totals and checkout; a line is never
	// priced at zero by default.
	ErrInvalidPriceData = domain.Errorf(domain.EINVALID, "", "Cart line has no valid price")

	// ErrInvalidPromoCode is returned when a promo code is unknown.
	// The cart's promo state is left unchanged.
	ErrInvalidPromoCode = domain.Errorf(domain.EINVALID, "", "Promo code is not valid")

	// ErrNegativeAmount is returned when a discount or fee input is negative.
	ErrNegativeAmount = domain.Errorf(domain.EINVALID, "", "Amounts must not be negative")
)
