package checkout

import (
	"github.com/dukerupert/souk/internal/domain"
)

// State is the checkout gate state. ReadyToPay is derived, not a state.
type State int

const (
	StateNoAddress State = iota
	StateDistancePending
	StateDistanceResolved
)

// String returns the state name used in logs and API responses.
func (s State) String() string {
	switch s {
	case StateNoAddress:
		return "no_address"
	case StateDistancePending:
		return "distance_pending"
	case StateDistanceResolved:
		return "distance_resolved"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrNoAddressSelected blocks checkout until a delivery address is chosen.
	ErrNoAddressSelected = domain.Invalid("checkout.proceed", "Select a delivery address to continue")

	// ErrDistancePending blocks checkout while the delivery distance resolves.
	ErrDistancePending = domain.Conflict("checkout.proceed", "Delivery cost is still being calculated")
)

// Gate tracks whether checkout may proceed. Every address selection or
// re-trigger bumps the generation; a completion carrying an older
// generation is stale and ignored. Gate is not safe for concurrent use.
type Gate struct {
	state      State
	generation uint64
	address    *domain.Address
	distance   domain.ResolvedDistance
}

// NewGate returns a gate in StateNoAddress.
func NewGate() *Gate {
	return &Gate{distance: domain.Unresolved()}
}

// SelectAddress selects a destination and returns the generation the
// resolution for it must complete with. Re-selecting the same destination
// keeps the current generation and state.
func (g *Gate) SelectAddress(addr domain.Address) uint64 {
	same := g.address != nil && g.address.Key() == addr.Key()
	g.address = &addr
	if same {
		return g.generation
	}
	return g.Retrigger()
}

// Retrigger starts a new resolution for the selected address, e.g. after
// the origin changed. It returns 0 when no address is selected.
func (g *Gate) Retrigger() uint64 {
	if g.address == nil {
		return 0
	}
	g.generation++
	g.state = StateDistancePending
	g.distance = domain.Unresolved()
	return g.generation
}

// ClearAddress returns the gate to StateNoAddress. In-flight resolutions
// become stale.
func (g *Gate) ClearAddress() {
	g.generation++
	g.address = nil
	g.state = StateNoAddress
	g.distance = domain.Unresolved()
}

// Complete records a finished resolution. It reports false and changes
// nothing when gen is not the current generation.
func (g *Gate) Complete(gen uint64, d domain.ResolvedDistance) bool {
	if g.address == nil || gen != g.generation || g.state != StateDistancePending {
		return false
	}
	g.distance = d
	g.state = StateDistanceResolved
	return true
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Generation returns the current generation.
func (g *Gate) Generation() uint64 {
	return g.generation
}

// Address returns the selected address.
func (g *Gate) Address() (domain.Address, bool) {
	if g.address == nil {
		return domain.Address{}, false
	}
	return *g.address, true
}

// Distance returns the completed distance. It is unresolved until the
// gate reaches StateDistanceResolved.
func (g *Gate) Distance() domain.ResolvedDistance {
	return g.distance
}

// ReadyToPay reports whether an address is selected and its distance
// resolution has completed, resolved or not.
func (g *Gate) ReadyToPay() bool {
	return g.state == StateDistanceResolved
}

// Proceed returns the reason checkout is blocked, or nil.
func (g *Gate) Proceed() error {
	switch g.state {
	case StateNoAddress:
		return ErrNoAddressSelected
	case StateDistancePending:
		return ErrDistancePending
	default:
		return nil
	}
}
