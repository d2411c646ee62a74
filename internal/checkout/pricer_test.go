package checkout_test

import (
	"testing"

	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/dukerupert/souk/internal/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricer_Price(t *testing.T) {
	p := checkout.Pricer{Tariff: shipping.DefaultTariff(), TaxRatePercent: dec("7.5")}
	lines := []domain.CartLine{generatorLine()}

	t.Run("distance not known yet", func(t *testing.T) {
		got, err := p.Price(lines, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, got.Delivery)
		assert.True(t, got.Totals.DeliveryFee.IsZero())
		assert.True(t, got.WeightKg.Equal(dec("150")))
	})

	t.Run("resolved", func(t *testing.T) {
		d := km(20)
		got, err := p.Price(lines, &d, nil)
		require.NoError(t, err)
		require.NotNil(t, got.Delivery)
		assert.True(t, got.Totals.GrandTotal.Equal(dec("114675.625")))
	})

	t.Run("unresolved differs from zero km", func(t *testing.T) {
		unresolved := domain.Unresolved()
		zero := km(0)

		a, err := p.Price(lines, &unresolved, nil)
		require.NoError(t, err)
		b, err := p.Price(lines, &zero, nil)
		require.NoError(t, err)
		assert.False(t, a.Totals.DeliveryFee.Equal(b.Totals.DeliveryFee))
	})

	t.Run("full discount still charges tax", func(t *testing.T) {
		book := pricing.NewPromoBook([]pricing.Promotion{{Code: "ALL", Percent: dec("100")}})
		var promo pricing.PromoState
		_, err := promo.Apply(book, "ALL")
		require.NoError(t, err)

		got, err := p.Price(lines, nil, &promo)
		require.NoError(t, err)
		assert.True(t, got.Totals.GrandTotal.Equal(dec("7500")), "tax is on the pre-discount subtotal")
	})
}
