package domain

// DistanceSource records which tier produced a distance.
type DistanceSource string

const (
	DistanceSourceGeocoded          DistanceSource = "geocoded"
	DistanceSourceFallbackEstimated DistanceSource = "fallback-estimated"
	DistanceSourceUnresolved        DistanceSource = "unresolved"
)

// ResolvedDistance is the outcome of a distance resolution.
// A nil Kilometers means unresolved: callers charge the flat default
// delivery fee and must never treat it as zero distance.
type ResolvedDistance struct {
	Kilometers *float64       `json:"kilometers"`
	Source     DistanceSource `json:"source"`
}

// Unresolved returns the terminal "no distance" outcome.
func Unresolved() ResolvedDistance {
	return ResolvedDistance{Source: DistanceSourceUnresolved}
}

// IsResolved reports whether a kilometre value is available.
func (d ResolvedDistance) IsResolved() bool {
	return d.Kilometers != nil
}
