package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("PORT", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, "orders.create", cfg.NATS.Subject)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.ng, ,https://m.example.ng")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("DEFAULT_ORIGIN", "Wuse, Abuja")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.Port)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://shop.example.ng", "https://m.example.ng"}, cfg.CORSOrigins)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, "Wuse, Abuja", cfg.DefaultOrigin)
}

func TestNewConfig_ProductionRequiresStripe(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "STRIPE_SECRET_KEY")

	t.Setenv("STRIPE_SECRET_KEY", "sk_live_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	_, err = NewConfig()
	assert.ErrorContains(t, err, "STRIPE_WEBHOOK_SECRET")
}

func TestLoadPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tax_rate_percent: "5"
tariff:
  surge_fee: "250"
promotions:
  - code: RAMADAN15
    percent: "15"
`), 0o600))

	cfg, err := LoadPricing(path)
	require.NoError(t, err)

	assert.True(t, cfg.TaxRatePercent.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.Tariff.SurgeFee.Equal(decimal.NewFromInt(250)))
	require.Len(t, cfg.Promotions, 1)
	assert.Equal(t, "RAMADAN15", cfg.Promotions[0].Code)
}

func TestLoadPricing_DefaultsAndEnv(t *testing.T) {
	t.Setenv("SOUK_TAX_RATE_PERCENT", "10")

	cfg, err := LoadPricing("")
	require.NoError(t, err)

	assert.True(t, cfg.TaxRatePercent.Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.Tariff.ServiceFeePercent.Equal(decimal.NewFromInt(10)), "service fee follows the tax rate")
	assert.NotEmpty(t, cfg.Promotions)
	assert.NoError(t, cfg.Tariff.Validate())
}

func TestLoadPricing_ServiceFeeOverride(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pricing.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tax_rate_percent: "10"
tariff:
  service_fee_percent: "4"
`), 0o600))

		cfg, err := LoadPricing(path)
		require.NoError(t, err)
		assert.True(t, cfg.TaxRatePercent.Equal(decimal.NewFromInt(10)))
		assert.True(t, cfg.Tariff.ServiceFeePercent.Equal(decimal.NewFromInt(4)))
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("SOUK_TAX_RATE_PERCENT", "10")
		t.Setenv("SOUK_TARIFF_SERVICE_FEE_PERCENT", "0")

		cfg, err := LoadPricing("")
		require.NoError(t, err)
		assert.True(t, cfg.Tariff.ServiceFeePercent.IsZero())
	})

	t.Run("file tax rate only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pricing.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tax_rate_percent: \"5\"\n"), 0o600))

		cfg, err := LoadPricing(path)
		require.NoError(t, err)
		assert.True(t, cfg.Tariff.ServiceFeePercent.Equal(decimal.NewFromInt(5)))
	})
}

func TestLoadPricing_MissingFile(t *testing.T) {
	_, err := LoadPricing(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
