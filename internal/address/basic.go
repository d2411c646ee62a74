package address

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/geo"
	"github.com/go-playground/validator/v10"
)

// nigerianPhone accepts 080xxxxxxxx and +234 80xxxxxxxx forms.
var nigerianPhone = regexp.MustCompile(`^(?:\+?234|0)[789][01]\d{8}$`)

// BasicValidator performs format validation without external API calls.
// It checks required fields and phone format, and warns when the state is
// not one the delivery region table knows.
type BasicValidator struct {
	validate *validator.Validate
	regions  geo.RegionTable
}

// NewBasicValidator creates a basic address validator. regions may be nil,
// in which case state names are not checked.
func NewBasicValidator(regions geo.RegionTable) *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ngphone", func(fl validator.FieldLevel) bool {
		return nigerianPhone.MatchString(compactPhone(fl.Field().String()))
	})

	return &BasicValidator{validate: v, regions: regions}
}

// Validate performs basic validation checks on the address.
func (v *BasicValidator) Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error) {
	normalized := Normalize(addr)
	result := &ValidationResult{NormalizedAddress: &normalized}

	if err := v.validate.StructCtx(ctx, normalized); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fe.Field(),
				Message: messageFor(fe),
			})
		}
	}

	if v.regions != nil && normalized.State != "" {
		if _, ok := v.regions.Parse(normalized.State); !ok {
			result.Warnings = append(result.Warnings,
				"State is not recognised; delivery may be charged at the default fee")
		}
	}
	if !strings.EqualFold(normalized.Country, domain.DefaultCountry) {
		result.Warnings = append(result.Warnings, "Delivery is only available within Nigeria")
	}

	result.IsValid = len(result.Errors) == 0
	return result, nil
}

// Normalize trims every field, compacts the phone number and fills in the
// default type and country.
func Normalize(addr domain.Address) domain.Address {
	addr.Name = strings.TrimSpace(addr.Name)
	addr.Street = strings.Join(strings.Fields(addr.Street), " ")
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.Country = addr.CountryOrDefault()
	addr.Phone = compactPhone(addr.Phone)
	if addr.Type == "" {
		addr.Type = domain.AddressTypeHome
	}
	return addr
}

func compactPhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "ngphone":
		return "must be a valid Nigerian phone number"
	default:
		return "is invalid"
	}
}

var _ Validator = (*BasicValidator)(nil)
