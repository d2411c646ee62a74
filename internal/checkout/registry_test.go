package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistry_OneSessionPerIdentity(t *testing.T) {
	r := checkout.NewRegistry(testConfig(&stubResolver{}), checkout.RegistryConfig{})
	defer r.Close()

	alice, bob := uuid.New(), uuid.New()

	s1 := r.Open(alice)
	s2 := r.Open(alice)
	assert.Same(t, s1, s2)

	s3 := r.Open(bob)
	assert.NotEqual(t, s1.ID(), s3.ID())
	assert.Equal(t, 2, r.Len())

	got, err := r.Get(s1.ID(), alice)
	require.NoError(t, err)
	assert.Same(t, s1, got)

	_, err = r.Get(s1.ID(), bob)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	_, err = r.Get("missing", alice)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	found, ok := r.Lookup(s3.ID())
	require.True(t, ok)
	assert.Same(t, s3, found)
}

func TestRegistry_SweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := distance.NewMemoryCache(time.Hour)

	cfg := testConfig(&stubResolver{})
	cfg.Now = c.Now
	r := checkout.NewRegistry(cfg, checkout.RegistryConfig{TTL: 30 * time.Minute, Cache: cache})
	defer r.Close()

	owner := uuid.New()
	idle := r.Open(owner)
	key := distance.Key{SessionID: idle.ID(), Origin: "ikeja, lagos", Destination: "text:lekki"}
	require.NoError(t, cache.Set(ctx, key, km(10)))

	c.Advance(20 * time.Minute)
	active := r.Open(uuid.New())
	require.NoError(t, active.SetLines(nil))

	c.Advance(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep(ctx))
	assert.Equal(t, 1, r.Len())

	_, err := r.Get(idle.ID(), owner)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired session distances are dropped")

	fresh := r.Open(owner)
	assert.NotEqual(t, idle.ID(), fresh.ID())
}

func TestRegistry_Remove(t *testing.T) {
	r := checkout.NewRegistry(testConfig(&stubResolver{}), checkout.RegistryConfig{})
	defer r.Close()

	s := r.Open(uuid.New())
	r.Remove(context.Background(), s.ID())
	assert.Zero(t, r.Len())

	_, ok := r.Lookup(s.ID())
	assert.False(t, ok)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := checkout.NewRegistry(testConfig(&stubResolver{}), checkout.RegistryConfig{SweepInterval: time.Millisecond})
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
