package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/souk/internal/address"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/middleware"
	"github.com/dukerupert/souk/internal/pricing"
)

// QuoteConfig wires a QuoteHandler.
type QuoteConfig struct {
	Products      domain.ProductRepository
	Validator     address.Validator
	Resolver      checkout.DistanceResolver
	Promos        *pricing.PromoBook
	Pricer        checkout.Pricer
	DefaultOrigin string
	Logger        *slog.Logger
}

// QuoteHandler prices a cart in a single request without opening a
// session. The distance is resolved synchronously and never cached.
type QuoteHandler struct {
	cfg    QuoteConfig
	logger *slog.Logger
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(cfg QuoteConfig) *QuoteHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Promos == nil {
		cfg.Promos = pricing.NewPromoBook(pricing.DefaultPromotions())
	}
	return &QuoteHandler{cfg: cfg, logger: cfg.Logger.With("component", "quote_handler")}
}

type quoteRequest struct {
	Lines     []domain.LineRef `json:"lines" validate:"required,min=1,dive"`
	Address   *domain.Address  `json:"address" validate:"-"`
	Origin    string           `json:"origin" validate:"max=300"`
	PromoCode string           `json:"promo_code" validate:"max=64"`
}

// Quote handles POST /api/cart/quote.
//
// Without an address the response is in the no_address state and carries
// no delivery fee. With one, the distance is resolved before responding
// and the quote is ready to pay.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx, h.logger)

	var req quoteRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	lines, err := domain.HydrateLines(ctx, h.cfg.Products, req.Lines)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var promo pricing.PromoState
	if req.PromoCode != "" {
		if _, err := promo.Apply(h.cfg.Promos, req.PromoCode); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}

	q := checkout.Quote{
		State:  checkout.StateNoAddress,
		Lines:  lines,
		Origin: checkout.OriginFor(lines, req.Origin, h.cfg.DefaultOrigin),
	}
	if p, ok := promo.Active(); ok {
		q.Promotion = &p
	}

	var warnings []string
	var resolved *domain.ResolvedDistance
	if req.Address != nil {
		result, err := h.cfg.Validator.Validate(ctx, *req.Address)
		if err != nil {
			handler.InternalErrorResponse(w, r, err)
			return
		}
		if !result.IsValid {
			handler.ValidationErrorResponse(w, r, result.Err())
			return
		}
		warnings = result.Warnings

		d := h.cfg.Resolver.Resolve(ctx, distance.Query{
			Origin:      q.Origin,
			Destination: *result.NormalizedAddress,
		})
		resolved = &d
		q.Address = result.NormalizedAddress
		q.Distance = d
		q.State = checkout.StateDistanceResolved
		q.ReadyToPay = true
	} else {
		q.Distance = domain.Unresolved()
		q.Blocked = domain.ErrorMessage(checkout.ErrNoAddressSelected)
	}

	priced, err := h.cfg.Pricer.Price(lines, resolved, &promo)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	q.Pricing = priced

	logger.Debug("cart quoted",
		"lines", len(lines),
		"state", q.State,
		"source", q.Distance.Source,
		"grand_total", q.Totals.GrandTotal.String(),
	)

	view := newQuoteView(q)
	view.Warnings = warnings
	handler.WriteJSON(w, r, http.StatusOK, view)
}
