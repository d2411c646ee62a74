package shipping

// ============================================================================
// SHIPPING ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// ============================================================================
// SHIPPING ERROR TYPE
// ============================================================================

// ShippingError represents a shipping-specific error with a code and message.
// It implements the domain.Error interface pattern for consistent HTTP status mapping.
type ShippingError struct {
	Code    string
	Message string
}

func (e *ShippingError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ShippingError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *ShippingError) ErrorMessage() string {
	return e.Message
}

// newShippingError creates a new shipping error.
func newShippingError(code, message string) *ShippingError {
	return &ShippingError{Code: code, Message: message}
}

// ============================================================================
// SHIPPING DOMAIN ERRORS
// ============================================================================

var (
	// ErrNegativeTariff is returned when a tariff rate or fee is negative.
	ErrNegativeTariff = newShippingError(codeInvalid, "Tariff rates and fees must not be negative")

	// ErrNoWeightTiers is returned when a tariff has no weight tiers.
	ErrNoWeightTiers = newShippingError(codeInvalid, "Tariff requires at least one weight tier")

	// ErrWeightTiersUnordered is returned when tier limits are not strictly increasing.
	ErrWeightTiersUnordered = newShippingError(codeInvalid, "Weight tier limits must be strictly increasing")

	// ErrOpenTierNotLast is returned when an unbounded tier precedes a bounded one.
	ErrOpenTierNotLast = newShippingError(codeInvalid, "Only the last weight tier may be unbounded")

	// ErrTariffConfig is returned when the tariff file cannot be read or decoded.
	ErrTariffConfig = newShippingError(codeInternal, "Tariff configuration could not be loaded")
)
