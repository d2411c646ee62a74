// Package address checks delivery addresses before they are selected for
// checkout.
package address

import (
	"context"

	"github.com/dukerupert/souk/internal/domain"
)

// Validator defines the interface for address validation.
// Implementations can use external APIs like Google Address Validation.
type Validator interface {
	// Validate checks if an address is complete and deliverable.
	// Returns the normalized address if validation succeeds.
	// Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error)
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool              `json:"is_valid"`
	NormalizedAddress *domain.Address   `json:"normalized_address,omitempty"`
	Errors            []ValidationError `json:"errors,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Err converts a failed result into a domain validation error.
// It returns nil for a valid result.
func (r *ValidationResult) Err() error {
	if r == nil || r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	err := domain.NewValidationError("address.validate", r.Errors[0].Field, r.Errors[0].Message)
	for _, e := range r.Errors[1:] {
		err = domain.AddFieldError(err, e.Field, e.Message)
	}
	return err
}
