package geo

// ============================================================================
// GEO ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInternal    = "internal"
	codeInvalid     = "invalid"
	codeNotFound    = "not_found"
	codeUnavailable = "unavailable"
)

// GeoError is a geocoding or region-lookup failure. The distance resolver
// treats every GeoError as a tier failure and falls through to the next tier.
type GeoError struct {
	Code    string
	Message string
}

func (e *GeoError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *GeoError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *GeoError) ErrorMessage() string {
	return e.Message
}

func newGeoError(code, message string) *GeoError {
	return &GeoError{Code: code, Message: message}
}

var (
	// ErrEmptyQuery is returned when asked to geocode blank text.
	ErrEmptyQuery = newGeoError(codeInvalid, "Address text is empty")

	// ErrNoResults is returned when the geocoder found no match.
	ErrNoResults = newGeoError(codeNotFound, "No geocoding results for address")

	// ErrGeocoderUnavailable is returned on transport or quota failures.
	ErrGeocoderUnavailable = newGeoError(codeUnavailable, "Geocoding service unavailable")

	// ErrMissingAPIKey is returned when the geocoder is built without a key.
	ErrMissingAPIKey = newGeoError(codeInternal, "Geocoding API key is required")

	// ErrRegionNotFound is returned when the region table has no entry for
	// the origin or destination region.
	ErrRegionNotFound = newGeoError(codeNotFound, "Region not found in distance table")
)
