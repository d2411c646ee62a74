package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Promotion is a percentage-of-subtotal discount activated by a code.
type Promotion struct {
	Code        string          `json:"code"`
	Percent     decimal.Decimal `json:"percent"`
	Description string          `json:"description,omitempty"`
}

// DefaultPromotions is the built-in promo table used when no config file
// provides one.
func DefaultPromotions() []Promotion {
	return []Promotion{
		{Code: "WELCOME10", Percent: decimal.NewFromInt(10), Description: "10% off your first order"},
	}
}

// PromoBook is the set of known promo codes. Codes are case-insensitive.
type PromoBook struct {
	promos map[string]Promotion
}

// NewPromoBook indexes the given promotions by normalized code.
// Promotions with an empty code or a percent outside (0, 100] are skipped.
func NewPromoBook(promos []Promotion) *PromoBook {
	b := &PromoBook{promos: make(map[string]Promotion, len(promos))}
	for _, p := range promos {
		code := normalizeCode(p.Code)
		if code == "" || !p.Percent.IsPositive() || p.Percent.GreaterThan(hundred) {
			continue
		}
		p.Code = code
		b.promos[code] = p
	}
	return b
}

// Lookup returns the promotion for a code or ErrInvalidPromoCode.
func (b *PromoBook) Lookup(code string) (Promotion, error) {
	p, ok := b.promos[normalizeCode(code)]
	if !ok {
		return Promotion{}, ErrInvalidPromoCode
	}
	return p, nil
}

// Len returns the number of known codes.
func (b *PromoBook) Len() int {
	return len(b.promos)
}

// PromoState is the promo applied to one cart. At most one promotion is
// active; applying the active code again is a no-op and applying another
// valid code replaces it.
type PromoState struct {
	active *Promotion
}

// Apply activates a code. It reports whether the active promotion changed.
// On ErrInvalidPromoCode the state is left untouched.
func (s *PromoState) Apply(book *PromoBook, code string) (bool, error) {
	p, err := book.Lookup(code)
	if err != nil {
		return false, err
	}
	if s.active != nil && s.active.Code == p.Code {
		return false, nil
	}
	s.active = &p
	return true, nil
}

// Clear removes the active promotion.
func (s *PromoState) Clear() {
	s.active = nil
}

// Active returns the active promotion, if any.
func (s *PromoState) Active() (Promotion, bool) {
	if s.active == nil {
		return Promotion{}, false
	}
	return *s.active, true
}

// Discount returns the discount the active promotion grants on subtotal.
func (s *PromoState) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if s.active == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}
	return subtotal.Mul(s.active.Percent).Div(hundred)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
