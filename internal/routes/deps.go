package routes

import (
	"net/http"

	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/handler/api"
	"github.com/dukerupert/souk/internal/router"
)

// APIDeps contains dependencies for the checkout API routes
type APIDeps struct {
	Sessions  *api.SessionHandler
	Quotes    *api.QuoteHandler
	Addresses *api.AddressHandler

	// Identity resolves the anonymous shopper. Required on every API route.
	Identity router.Middleware

	// ErrorScope tags error reports with the shopper. Optional.
	ErrorScope router.Middleware

	// QuoteLimit throttles endpoints that may trigger a geocoding call.
	QuoteLimit router.Middleware
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler http.HandlerFunc

	// BodyLimit caps webhook payloads.
	BodyLimit router.Middleware
}

// OpsDeps contains dependencies for health and metrics routes
type OpsDeps struct {
	Health  *handler.HealthHandler
	Metrics http.Handler
}
