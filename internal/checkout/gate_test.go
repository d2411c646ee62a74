package checkout_test

import (
	"testing"

	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func km(v float64) domain.ResolvedDistance {
	return domain.ResolvedDistance{Kilometers: &v, Source: domain.DistanceSourceGeocoded}
}

func TestGate_Transitions(t *testing.T) {
	g := checkout.NewGate()
	assert.Equal(t, checkout.StateNoAddress, g.State())
	assert.False(t, g.ReadyToPay())
	assert.ErrorIs(t, g.Proceed(), checkout.ErrNoAddressSelected)

	gen := g.SelectAddress(domain.Address{ID: "a", City: "Ikeja", State: "Lagos"})
	assert.Equal(t, checkout.StateDistancePending, g.State())
	assert.False(t, g.ReadyToPay())
	assert.ErrorIs(t, g.Proceed(), checkout.ErrDistancePending)

	require.True(t, g.Complete(gen, km(12)))
	assert.Equal(t, checkout.StateDistanceResolved, g.State())
	assert.True(t, g.ReadyToPay())
	assert.NoError(t, g.Proceed())
	assert.Equal(t, 12.0, *g.Distance().Kilometers)

	// A completed gate ignores duplicate completions.
	assert.False(t, g.Complete(gen, km(99)))
	assert.Equal(t, 12.0, *g.Distance().Kilometers)
}

func TestGate_UnresolvedStillCompletes(t *testing.T) {
	g := checkout.NewGate()
	gen := g.SelectAddress(domain.Address{ID: "a"})

	require.True(t, g.Complete(gen, domain.Unresolved()))
	assert.True(t, g.ReadyToPay(), "an unresolved distance must not block checkout")
}

func TestGate_StaleGenerationDropped(t *testing.T) {
	g := checkout.NewGate()
	genA := g.SelectAddress(domain.Address{ID: "a"})
	genB := g.SelectAddress(domain.Address{ID: "b"})
	require.NotEqual(t, genA, genB)

	assert.True(t, g.Complete(genB, km(5)))
	assert.False(t, g.Complete(genA, km(500)))
	assert.Equal(t, 5.0, *g.Distance().Kilometers)

	addr, ok := g.Address()
	require.True(t, ok)
	assert.Equal(t, "b", addr.ID)
}

func TestGate_NewAddressResetsToPending(t *testing.T) {
	g := checkout.NewGate()
	gen := g.SelectAddress(domain.Address{ID: "a"})
	require.True(t, g.Complete(gen, km(5)))

	g.SelectAddress(domain.Address{ID: "b"})
	assert.Equal(t, checkout.StateDistancePending, g.State())
	assert.False(t, g.Distance().IsResolved())
}

func TestGate_ReselectSameAddressKeepsGeneration(t *testing.T) {
	g := checkout.NewGate()
	addr := domain.Address{ID: "a", City: "Ikeja", State: "Lagos"}
	gen := g.SelectAddress(addr)
	require.True(t, g.Complete(gen, km(5)))

	assert.Equal(t, gen, g.SelectAddress(addr))
	assert.Equal(t, checkout.StateDistanceResolved, g.State())
	assert.Equal(t, 5.0, *g.Distance().Kilometers)

	pinned := addr
	pinned.Coordinates = &domain.Coordinates{Lat: 6.6, Lng: 3.35}
	assert.NotEqual(t, gen, g.SelectAddress(pinned), "new coordinates are a new destination")
	assert.Equal(t, checkout.StateDistancePending, g.State())
}

func TestGate_ClearAddress(t *testing.T) {
	g := checkout.NewGate()
	gen := g.SelectAddress(domain.Address{ID: "a"})
	g.ClearAddress()

	assert.Equal(t, checkout.StateNoAddress, g.State())
	assert.False(t, g.Complete(gen, km(5)))
	assert.Zero(t, g.Retrigger(), "retrigger without an address does nothing")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "no_address", checkout.StateNoAddress.String())
	assert.Equal(t, "distance_pending", checkout.StateDistancePending.String())
	assert.Equal(t, "distance_resolved", checkout.StateDistanceResolved.String())

	text, err := checkout.StateDistanceResolved.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "distance_resolved", string(text))
}
