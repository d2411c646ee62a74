package routes

import (
	"github.com/dukerupert/souk/internal/router"
)

// RegisterAPIRoutes registers the checkout API. Every route runs as the
// anonymous shopper resolved by deps.Identity.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	shopper := r.Group(deps.Identity, deps.ErrorScope)

	// Stateless quote and address helpers
	shopper.Post("/api/cart/quote", deps.Quotes.Quote, deps.QuoteLimit)
	shopper.Get("/api/addresses", deps.Addresses.List)
	shopper.Post("/api/addresses/validate", deps.Addresses.Validate)

	// Checkout sessions
	shopper.Post("/api/sessions", deps.Sessions.Open)
	shopper.Get("/api/sessions/{id}", deps.Sessions.Get)
	shopper.Delete("/api/sessions/{id}", deps.Sessions.Close)

	// Cart lines
	shopper.Put("/api/sessions/{id}/lines", deps.Sessions.SetLines)
	shopper.Patch("/api/sessions/{id}/lines/{lineID}", deps.Sessions.UpdateLine)
	shopper.Delete("/api/sessions/{id}/lines/{lineID}", deps.Sessions.RemoveLine)

	// Delivery (address and origin changes re-resolve the distance)
	shopper.Put("/api/sessions/{id}/address", deps.Sessions.SelectAddress, deps.QuoteLimit)
	shopper.Delete("/api/sessions/{id}/address", deps.Sessions.ClearAddress)
	shopper.Put("/api/sessions/{id}/origin", deps.Sessions.SetOrigin, deps.QuoteLimit)

	// Promotions
	shopper.Post("/api/sessions/{id}/promo", deps.Sessions.ApplyPromo)
	shopper.Delete("/api/sessions/{id}/promo", deps.Sessions.RemovePromo)

	// Payment
	shopper.Post("/api/sessions/{id}/checkout", deps.Sessions.Checkout)
	shopper.Post("/api/sessions/{id}/confirm", deps.Sessions.Confirm)
}

// RegisterOpsRoutes registers health probes and the metrics endpoint.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health.Live)
	r.Get("/ready", deps.Health.Ready)

	// No auth; protect via firewall in production
	r.Get("/metrics", deps.Metrics.ServeHTTP)
}
