package distance

import (
	"context"
	"sync"
	"time"

	"github.com/dukerupert/souk/internal/domain"
)

// DefaultCacheTTL bounds how long a resolved distance is reused.
const DefaultCacheTTL = 30 * time.Minute

// Key identifies one cached resolution. Results are scoped to a checkout
// session and never shared across sessions.
type Key struct {
	SessionID   string
	Origin      string
	Destination string
}

func (k Key) field() string {
	return k.Origin + "\x1f" + k.Destination
}

// Cache stores resolved distances. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the cached distance and whether it was found.
	Get(ctx context.Context, key Key) (domain.ResolvedDistance, bool, error)

	// Set stores a resolved distance.
	Set(ctx context.Context, key Key, d domain.ResolvedDistance) error

	// DeleteSession drops every entry for a session.
	DeleteSession(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	value     domain.ResolvedDistance
	expiresAt time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]map[string]memoryEntry
}

// NewMemoryCache creates a MemoryCache. A zero ttl uses DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]map[string]memoryEntry),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key Key) (domain.ResolvedDistance, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.sessions[key.SessionID]
	if !ok {
		return domain.ResolvedDistance{}, false, nil
	}
	e, ok := entries[key.field()]
	if !ok {
		return domain.ResolvedDistance{}, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(entries, key.field())
		return domain.ResolvedDistance{}, false, nil
	}
	return copyDistance(e.value), true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key Key, d domain.ResolvedDistance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.sessions[key.SessionID]
	if !ok {
		entries = make(map[string]memoryEntry)
		c.sessions[key.SessionID] = entries
	}
	entries[key.field()] = memoryEntry{value: copyDistance(d), expiresAt: c.now().Add(c.ttl)}
	return nil
}

// DeleteSession implements Cache.
func (c *MemoryCache) DeleteSession(_ context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
	return nil
}

func copyDistance(d domain.ResolvedDistance) domain.ResolvedDistance {
	if d.Kilometers != nil {
		km := *d.Kilometers
		d.Kilometers = &km
	}
	return d
}
