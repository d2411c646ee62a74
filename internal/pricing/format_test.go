package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/souk/internal/pricing"
)

func TestFormatNaira(t *testing.T) {
	tests := map[string]string{
		"0":          "₦0.00",
		"999.5":      "₦999.50",
		"1000":       "₦1,000.00",
		"114675.625": "₦114,675.63",
		"1234567.8":  "₦1,234,567.80",
		"-2500":      "-₦2,500.00",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, pricing.FormatNaira(dec(in)))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(11467563), pricing.MinorUnits(dec("114675.625")))
	assert.Equal(t, int64(0), pricing.MinorUnits(dec("0")))
	assert.Equal(t, int64(100), pricing.MinorUnits(dec("1")))
}
