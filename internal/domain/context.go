// Package domain provides the core checkout types, repository contracts and
// context helpers shared by the pricing, distance and checkout packages.
//
// Context helpers centralize request-scoped data access so the engine never
// reads identity from ambient global state.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// identityContextKey stores the shopper identity in context.
	identityContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// Identity is the shopper a cart session belongs to. Anonymous shoppers get a
// generated ID that is persisted client-side; signed-in shoppers carry their
// user ID and email.
type Identity struct {
	ID        uuid.UUID
	Email     string
	Anonymous bool
}

// IdentityProvider resolves the shopper behind a request.
// Implementations are injected (cookie, auth token) instead of living in
// package-level state.
type IdentityProvider interface {
	Identity(ctx context.Context) (*Identity, error)
}

// --- Identity Context Helpers ---

// NewContextWithIdentity returns a new context with the identity attached.
func NewContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity from context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}

// IdentityIDFromContext retrieves the identity ID from context.
// Returns uuid.Nil if no identity is present.
func IdentityIDFromContext(ctx context.Context) uuid.UUID {
	if identity := IdentityFromContext(ctx); identity != nil {
		return identity.ID
	}
	return uuid.Nil
}

// ContextIdentityProvider reads the identity placed in context by middleware.
type ContextIdentityProvider struct{}

// Identity implements IdentityProvider.
func (ContextIdentityProvider) Identity(ctx context.Context) (*Identity, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return nil, Unauthorized("identity.resolve", "No shopper identity on request")
	}
	return identity, nil
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
