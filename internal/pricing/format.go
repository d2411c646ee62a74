package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits converts a naira amount to kobo, rounding half away from zero.
// Payment gateways take integer minor units; this is the only place totals
// are rounded before display.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FormatNaira renders an amount for display, e.g. "₦114,675.63".
func FormatNaira(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("₦")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
