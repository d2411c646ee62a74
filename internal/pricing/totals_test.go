package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate_StandardCheckout(t *testing.T) {
	lines := []domain.CartLine{
		line(domain.Product{ID: "cement", Price: naira(5000)}, nil, 10),
		line(domain.Product{ID: "rods", Price: naira(25000)}, nil, 2),
	}

	totals, err := pricing.Aggregate(lines, decimal.Zero, dec("7175.625"), dec("7.5"))

	require.NoError(t, err)
	assert.True(t, dec("100000").Equal(totals.Subtotal), "subtotal %s", totals.Subtotal)
	assert.True(t, dec("7500").Equal(totals.Tax), "tax %s", totals.Tax)
	assert.True(t, dec("114675.625").Equal(totals.GrandTotal), "grand total %s", totals.GrandTotal)
}

func TestAggregate_GrandTotalNeverNegative(t *testing.T) {
	lines := []domain.CartLine{line(domain.Product{ID: "p", Price: naira(1000)}, nil, 1)}

	discounts := []string{"0", "500", "1075", "1076", "5000", "1000000"}
	for _, d := range discounts {
		t.Run(d, func(t *testing.T) {
			totals, err := pricing.Aggregate(lines, dec(d), dec("0"), dec("7.5"))

			require.NoError(t, err)
			assert.False(t, totals.GrandTotal.IsNegative(), "grand total %s", totals.GrandTotal)
			want := decimal.Max(decimal.Zero, dec("1075").Sub(dec(d)))
			assert.True(t, want.Equal(totals.GrandTotal), "want %s got %s", want, totals.GrandTotal)
		})
	}
}

func TestAggregate_EmptyCart(t *testing.T) {
	totals, err := pricing.Aggregate(nil, decimal.Zero, dec("5000"), dec("7.5"))

	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, dec("5000").Equal(totals.GrandTotal))
}

func TestAggregate_PropagatesInvalidPriceData(t *testing.T) {
	lines := []domain.CartLine{
		line(domain.Product{ID: "ok", Price: naira(1000)}, nil, 1),
		line(domain.Product{ID: "broken", Name: "Broken"}, nil, 1),
	}

	_, err := pricing.Aggregate(lines, decimal.Zero, decimal.Zero, dec("7.5"))

	assert.ErrorIs(t, err, pricing.ErrInvalidPriceData)
}

func TestAggregate_RejectsInvalidQuantity(t *testing.T) {
	lines := []domain.CartLine{line(domain.Product{ID: "p", Price: naira(1000)}, nil, 0)}

	_, err := pricing.Aggregate(lines, decimal.Zero, decimal.Zero, dec("7.5"))

	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestAggregate_RejectsNegativeInputs(t *testing.T) {
	_, err := pricing.Aggregate(nil, dec("-1"), decimal.Zero, dec("7.5"))
	assert.ErrorIs(t, err, pricing.ErrNegativeAmount)

	_, err = pricing.Aggregate(nil, decimal.Zero, dec("-1"), dec("7.5"))
	assert.ErrorIs(t, err, pricing.ErrNegativeAmount)
}

func TestLineTotal_UsesQuantity(t *testing.T) {
	v := &domain.ProductVariant{Name: "1L", Price: naira(1500)}

	total, err := pricing.LineTotal(line(domain.Product{ID: "paint", Price: naira(9000)}, v, 3))

	require.NoError(t, err)
	assert.True(t, dec("4500").Equal(total))
}
