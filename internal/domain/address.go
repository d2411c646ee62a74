package domain

import (
	"context"
	"fmt"
	"strings"
)

// DefaultCountry is assumed when an address omits its country.
const DefaultCountry = "Nigeria"

// AddressType labels a saved address.
type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is a delivery address owned by a user's profile.
// The cart session selects an address, it never owns or edits one.
type Address struct {
	ID        string      `json:"id"`
	Type      AddressType `json:"type" validate:"omitempty,oneof=home work other"`
	Name      string      `json:"name"`
	Street    string      `json:"street" validate:"required"`
	City      string      `json:"city" validate:"required"`
	State     string      `json:"state" validate:"required"`
	Country   string      `json:"country"`
	Phone     string      `json:"phone" validate:"omitempty,ngphone"`
	IsDefault bool        `json:"is_default"`

	// Coordinates are set when the address was picked from a places
	// autocomplete during entry. When present they are used instead of
	// geocoding the address text.
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// CountryOrDefault returns the address country, falling back to DefaultCountry.
func (a Address) CountryOrDefault() string {
	if strings.TrimSpace(a.Country) == "" {
		return DefaultCountry
	}
	return a.Country
}

// Text renders the address as a single line suitable for geocoding.
func (a Address) Text() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.CountryOrDefault()} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Key identifies the destination for caching and change detection.
// Two addresses with the same key resolve to the same distance, so the
// coordinates are part of it when present.
func (a Address) Key() string {
	key := "text:" + strings.ToLower(a.Text())
	if a.ID != "" {
		key = "id:" + a.ID + "|" + strings.ToLower(a.Text())
	}
	if a.Coordinates != nil {
		key += fmt.Sprintf("|@%.6f,%.6f", a.Coordinates.Lat, a.Coordinates.Lng)
	}
	return key
}

// AddressRepository supplies saved addresses. Read-only for the checkout engine.
type AddressRepository interface {
	// GetAddress returns one of the user's addresses.
	GetAddress(ctx context.Context, userID, addressID string) (*Address, error)

	// ListAddresses returns all of the user's addresses, default first.
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
}
