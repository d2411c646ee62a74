package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/telemetry"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 2 * time.Hour

	// DefaultSweepInterval is how often idle sessions are expired.
	DefaultSweepInterval = time.Minute
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration

	// Cache is cleared of a session's distances when it expires.
	Cache distance.Cache
}

// Registry holds the active sessions. Each identity has at most one
// active session.
type Registry struct {
	cfg    Config
	rcfg   RegistryConfig
	logger *slog.Logger

	mu         sync.Mutex
	sessions   map[string]*registered
	byIdentity map[uuid.UUID]string
}

type registered struct {
	session *Session
	owner   uuid.UUID
}

// NewRegistry creates a registry whose sessions share cfg.
func NewRegistry(cfg Config, rcfg RegistryConfig) *Registry {
	cfg = cfg.withDefaults()
	if rcfg.TTL <= 0 {
		rcfg.TTL = DefaultSessionTTL
	}
	if rcfg.SweepInterval <= 0 {
		rcfg.SweepInterval = DefaultSweepInterval
	}
	return &Registry{
		cfg:        cfg,
		rcfg:       rcfg,
		logger:     cfg.Logger.With("component", "checkout_registry"),
		sessions:   make(map[string]*registered),
		byIdentity: make(map[uuid.UUID]string),
	}
}

// Open returns the identity's active session, creating one if needed.
func (r *Registry) Open(owner uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byIdentity[owner]; ok {
		if reg, ok := r.sessions[id]; ok {
			return reg.session
		}
	}

	id := uuid.New().String()
	s := NewSession(id, r.cfg)
	r.sessions[id] = &registered{session: s, owner: owner}
	r.byIdentity[owner] = id
	r.updateGauge()

	r.logger.Debug("session opened", "session_id", id, "identity_id", owner)
	return s
}

// Get returns a session owned by owner.
func (r *Registry) Get(id string, owner uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.sessions[id]
	if !ok {
		return nil, domain.NotFound("checkout.session", "session", id)
	}
	if reg.owner != owner {
		return nil, domain.Forbidden("checkout.session", "Session belongs to another shopper")
	}
	return reg.session, nil
}

// Lookup returns a session by id regardless of owner. Used by gateway
// callbacks, which carry the session id in payment metadata.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return reg.session, true
}

// Remove closes and forgets a session.
func (r *Registry) Remove(ctx context.Context, id string) {
	r.mu.Lock()
	reg, ok := r.sessions[id]
	if ok {
		r.forget(id, reg)
	}
	r.mu.Unlock()

	if ok {
		r.release(ctx, reg.session)
	}
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep expires sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.cfg.Now().Add(-r.rcfg.TTL)

	r.mu.Lock()
	var expired []*Session
	for id, reg := range r.sessions {
		if reg.session.LastActive().Before(cutoff) {
			r.forget(id, reg)
			expired = append(expired, reg.session)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.release(ctx, s)
	}
	if len(expired) > 0 {
		if telemetry.Business != nil {
			telemetry.Business.SessionsExpired.Add(float64(len(expired)))
		}
		r.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on an interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.rcfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, reg := range r.sessions {
		r.forget(id, reg)
		sessions = append(sessions, reg.session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// forget drops a session from the indexes. Callers hold r.mu.
func (r *Registry) forget(id string, reg *registered) {
	delete(r.sessions, id)
	if r.byIdentity[reg.owner] == id {
		delete(r.byIdentity, reg.owner)
	}
	r.updateGauge()
}

func (r *Registry) release(ctx context.Context, s *Session) {
	s.Close()
	if r.rcfg.Cache == nil {
		return
	}
	if err := r.rcfg.Cache.DeleteSession(ctx, s.ID()); err != nil {
		r.logger.Warn("failed to clear session distances", "session_id", s.ID(), "error", err)
	}
}

func (r *Registry) updateGauge() {
	if telemetry.Business != nil {
		telemetry.Business.SessionsActive.Set(float64(len(r.sessions)))
	}
}
