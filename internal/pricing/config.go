package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultTaxRatePercent is the cart tax rate when none is configured.
var DefaultTaxRatePercent = decimal.RequireFromString("7.5")

type promotionFile struct {
	Code        string `mapstructure:"code"`
	Percent     string `mapstructure:"percent"`
	Description string `mapstructure:"description"`
}

// LoadPromotions reads the "promotions" list from v. Without one the
// built-in DefaultPromotions are returned.
func LoadPromotions(v *viper.Viper) ([]Promotion, error) {
	var raw []promotionFile
	if err := v.UnmarshalKey("promotions", &raw); err != nil {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}
	if len(raw) == 0 {
		return DefaultPromotions(), nil
	}

	promos := make([]Promotion, 0, len(raw))
	for i, p := range raw {
		pct, err := decimal.NewFromString(strings.TrimSpace(p.Percent))
		if err != nil {
			return nil, fmt.Errorf("promotions[%d].percent: %w", i, err)
		}
		promos = append(promos, Promotion{
			Code:        p.Code,
			Percent:     pct,
			Description: p.Description,
		})
	}
	return promos, nil
}

// LoadTaxRate reads "tax_rate_percent" from v, defaulting to
// DefaultTaxRatePercent.
func LoadTaxRate(v *viper.Viper) (decimal.Decimal, error) {
	v.SetDefault("tax_rate_percent", DefaultTaxRatePercent.String())

	rate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("tax_rate_percent")))
	if err != nil {
		return decimal.Zero, fmt.Errorf("tax_rate_percent: %w", err)
	}
	if rate.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return rate, nil
}
