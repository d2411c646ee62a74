package geo

import (
	"strings"

	"github.com/dukerupert/souk/internal/domain"
)

// Default estimates used when the table cannot measure between two points.
const (
	DefaultIntraCityKm  = 15.0
	DefaultIntraStateKm = 40.0
)

// Region is an administrative (state, city) pair. City may be empty.
type Region struct {
	State string
	City  string
}

// RegionOf returns the region of a structured address.
func RegionOf(addr domain.Address) Region {
	return Region{State: addr.State, City: addr.City}
}

// RegionTable estimates distances between regions without network calls.
type RegionTable interface {
	// Lookup returns an approximate distance in kilometres, or
	// ErrRegionNotFound when either region is not in the table.
	Lookup(origin, destination Region) (float64, error)

	// Parse extracts a region from free text such as a product location.
	Parse(text string) (Region, bool)
}

// StaticTable is a RegionTable over a fixed set of state capitals and
// major cities.
type StaticTable struct {
	IntraCityKm  float64
	IntraStateKm float64

	states      map[string]domain.Coordinates
	stateAlias  map[string]string
	cities      map[string]city
	cityAlias   map[string]string
	cityByState map[string][]string
}

type city struct {
	state  string
	coords domain.Coordinates
}

// NewNigeriaTable returns the table covering the 36 states, the FCT and
// their major cities.
func NewNigeriaTable() *StaticTable {
	t := &StaticTable{
		IntraCityKm:  DefaultIntraCityKm,
		IntraStateKm: DefaultIntraStateKm,
		states:       make(map[string]domain.Coordinates, len(nigeriaStates)),
		stateAlias:   make(map[string]string),
		cities:       make(map[string]city, len(nigeriaCities)),
		cityAlias:    make(map[string]string),
		cityByState:  make(map[string][]string),
	}
	for name, c := range nigeriaStates {
		t.states[name] = c
	}
	for alias, name := range nigeriaStateAliases {
		t.stateAlias[alias] = name
	}
	for name, c := range nigeriaCities {
		t.cities[name] = c
		t.cityByState[c.state] = append(t.cityByState[c.state], name)
	}
	for alias, name := range nigeriaCityAliases {
		t.cityAlias[alias] = name
	}
	return t
}

// Lookup implements RegionTable.
func (t *StaticTable) Lookup(origin, destination Region) (float64, error) {
	oState, ok := t.state(origin.State)
	if !ok {
		return 0, ErrRegionNotFound
	}
	dState, ok := t.state(destination.State)
	if !ok {
		return 0, ErrRegionNotFound
	}

	oCity, oKnown := t.city(origin.City, oState)
	dCity, dKnown := t.city(destination.City, dState)

	if oKnown && dKnown && oCity == dCity {
		return t.IntraCityKm, nil
	}
	if oState == dState && (!oKnown || !dKnown) {
		return t.IntraStateKm, nil
	}

	from := t.states[oState]
	if oKnown {
		from = t.cities[oCity].coords
	}
	to := t.states[dState]
	if dKnown {
		to = t.cities[dCity].coords
	}

	km := HaversineKm(from, to)
	if km < t.IntraCityKm {
		km = t.IntraCityKm
	}
	return km, nil
}

// Parse implements RegionTable. The rightmost comma-separated part naming a
// state wins; a city is then searched in the remaining parts. A known city
// alone implies its state.
func (t *StaticTable) Parse(text string) (Region, bool) {
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = normalize(parts[i])
	}

	state, statePart := "", -1
	for i := len(parts) - 1; i >= 0; i-- {
		if s, ok := t.state(parts[i]); ok {
			state, statePart = s, i
			break
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if i == statePart {
			continue
		}
		name, ok := t.findCity(parts[i], state)
		if !ok {
			continue
		}
		if state == "" {
			state = t.cities[name].state
		}
		return Region{State: state, City: name}, true
	}

	if state == "" {
		return Region{}, false
	}
	return Region{State: state}, true
}

func (t *StaticTable) state(s string) (string, bool) {
	s = normalize(s)
	s = strings.TrimSuffix(s, " state")
	if alias, ok := t.stateAlias[s]; ok {
		s = alias
	}
	_, ok := t.states[s]
	return s, ok
}

// city resolves a city name within a state. Cities outside the state are
// ignored so a mislabelled city does not move the point across the country.
func (t *StaticTable) city(s, state string) (string, bool) {
	s = normalize(s)
	if alias, ok := t.cityAlias[s]; ok {
		s = alias
	}
	c, ok := t.cities[s]
	if !ok || c.state != state {
		return "", false
	}
	return s, true
}

// findCity looks for a known city name inside free text.
func (t *StaticTable) findCity(part, state string) (string, bool) {
	if name, ok := t.cityAlias[part]; ok {
		part = name
	}
	if c, ok := t.cities[part]; ok && (state == "" || c.state == state) {
		return part, true
	}

	padded := " " + part + " "
	candidates := t.cityByState[state]
	if state == "" {
		candidates = nil
		for name := range t.cities {
			candidates = append(candidates, name)
		}
	}
	best := ""
	for _, name := range candidates {
		if strings.Contains(padded, " "+name+" ") && len(name) > len(best) {
			best = name
		}
	}
	return best, best != ""
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", ".", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
