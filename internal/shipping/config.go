package shipping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// weightTierFile is one entry of tariff.weight_tiers. Values are decoded as
// strings so they convert to decimals without float drift.
type weightTierFile struct {
	MaxKg     string `mapstructure:"max_kg"`
	RatePerKg string `mapstructure:"rate_per_kg"`
}

// SetTariffDefaults registers the default tariff on v so that environment
// overrides such as SOUK_TARIFF_BASE_FARE apply even without a file.
func SetTariffDefaults(v *viper.Viper) {
	d := DefaultTariff()
	v.SetDefault("tariff.base_fare", d.BaseFare.String())
	v.SetDefault("tariff.time_rate_per_hour", d.TimeRatePerHour.String())
	v.SetDefault("tariff.min_hours", d.MinHours.String())
	v.SetDefault("tariff.hours_per_km", d.HoursPerKm.String())
	v.SetDefault("tariff.distance_rate_per_km", d.DistanceRatePerKm.String())
	v.SetDefault("tariff.surge_fee", d.SurgeFee.String())
	v.SetDefault("tariff.tolls_fee", d.TollsFee.String())
	v.SetDefault("tariff.wait_time_fee", d.WaitTimeFee.String())
	v.SetDefault("tariff.default_fee", d.DefaultFee.String())
	v.SetDefault("tariff.service_fee_percent", d.ServiceFeePercent.String())
}

// LoadTariff reads the tariff section of v. Missing keys keep their
// defaults; missing weight tiers keep the default tiers.
func LoadTariff(v *viper.Viper) (TariffConfig, error) {
	SetTariffDefaults(v)

	cfg := DefaultTariff()
	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"base_fare", &cfg.BaseFare},
		{"time_rate_per_hour", &cfg.TimeRatePerHour},
		{"min_hours", &cfg.MinHours},
		{"hours_per_km", &cfg.HoursPerKm},
		{"distance_rate_per_km", &cfg.DistanceRatePerKm},
		{"surge_fee", &cfg.SurgeFee},
		{"tolls_fee", &cfg.TollsFee},
		{"wait_time_fee", &cfg.WaitTimeFee},
		{"default_fee", &cfg.DefaultFee},
		{"service_fee_percent", &cfg.ServiceFeePercent},
	}
	for _, f := range fields {
		s := strings.TrimSpace(v.GetString("tariff." + f.key))
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return TariffConfig{}, fmt.Errorf("%w: tariff.%s: %v", ErrTariffConfig, f.key, err)
		}
		*f.dst = d
	}

	var rawTiers []weightTierFile
	if err := v.UnmarshalKey("tariff.weight_tiers", &rawTiers); err != nil {
		return TariffConfig{}, fmt.Errorf("%w: %v", ErrTariffConfig, err)
	}

	if len(rawTiers) > 0 {
		tiers := make([]WeightTier, 0, len(rawTiers))
		for i, t := range rawTiers {
			rate, err := decimal.NewFromString(strings.TrimSpace(t.RatePerKg))
			if err != nil {
				return TariffConfig{}, fmt.Errorf("%w: tariff.weight_tiers[%d].rate_per_kg: %v", ErrTariffConfig, i, err)
			}
			tier := WeightTier{RatePerKg: rate}
			if s := strings.TrimSpace(t.MaxKg); s != "" {
				maxKg, err := decimal.NewFromString(s)
				if err != nil {
					return TariffConfig{}, fmt.Errorf("%w: tariff.weight_tiers[%d].max_kg: %v", ErrTariffConfig, i, err)
				}
				tier.MaxKg = decimal.NewNullDecimal(maxKg)
			}
			tiers = append(tiers, tier)
		}
		cfg.WeightTiers = tiers
	}

	if err := cfg.Validate(); err != nil {
		return TariffConfig{}, err
	}
	return cfg, nil
}
