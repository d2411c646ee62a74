package geo

import (
	"context"
	"sync"
)

// MockGeocoder is a test implementation of Geocoder.
type MockGeocoder struct {
	GeocodeFunc func(ctx context.Context, addressText string) (*Location, error)

	mu    sync.Mutex
	calls []string
}

// NewMockGeocoder creates a mock that answers every query with ErrNoResults.
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{}
}

// Geocode delegates to GeocodeFunc or returns ErrNoResults.
func (m *MockGeocoder) Geocode(ctx context.Context, addressText string) (*Location, error) {
	m.mu.Lock()
	m.calls = append(m.calls, addressText)
	m.mu.Unlock()

	if m.GeocodeFunc != nil {
		return m.GeocodeFunc(ctx, addressText)
	}
	return nil, ErrNoResults
}

// Calls returns the address texts passed to Geocode so far.
func (m *MockGeocoder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
