package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/souk/internal/address"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/middleware"
)

// maxDistanceWait bounds GET /api/sessions/{id}?wait=true.
const maxDistanceWait = 8 * time.Second

// SessionHandler serves the checkout session endpoints. Every session is
// owned by the shopper identity that opened it.
type SessionHandler struct {
	sessions  *checkout.Registry
	products  domain.ProductRepository
	addresses domain.AddressRepository
	validator address.Validator
	logger    *slog.Logger
}

// NewSessionHandler creates a session handler. addresses may be nil, in
// which case saved-address selection is unavailable.
func NewSessionHandler(
	sessions *checkout.Registry,
	products domain.ProductRepository,
	addresses domain.AddressRepository,
	validator address.Validator,
	logger *slog.Logger,
) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions:  sessions,
		products:  products,
		addresses: addresses,
		validator: validator,
		logger:    logger.With("component", "session_handler"),
	}
}

// session loads the path's session for the calling shopper.
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	owner, ok := shopperID(w, r)
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Get(r.PathValue("id"), owner)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) respondQuote(w http.ResponseWriter, r *http.Request, s *checkout.Session, status int, warnings ...string) {
	q, err := s.Quote()
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	view := newQuoteView(q)
	view.Warnings = warnings
	handler.WriteJSON(w, r, status, view)
}

// Open handles POST /api/sessions. It returns the shopper's active session,
// creating one when none exists.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	owner, ok := shopperID(w, r)
	if !ok {
		return
	}
	s := h.sessions.Open(owner)
	middleware.GetLogger(r.Context(), h.logger).Debug("session opened", "session_id", s.ID())
	h.respondQuote(w, r, s, http.StatusCreated)
}

// Get handles GET /api/sessions/{id}. With ?wait=true it holds the request
// until a pending distance resolves (bounded by maxDistanceWait).
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), maxDistanceWait)
		_, err := s.AwaitDistance(ctx)
		cancel()
		if err != nil && !errors.Is(err, checkout.ErrNoAddressSelected) && !errors.Is(err, context.DeadlineExceeded) {
			handler.ErrorResponse(w, r, err)
			return
		}
	}

	h.respondQuote(w, r, s, http.StatusOK)
}

// Close handles DELETE /api/sessions/{id}.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Remove(r.Context(), s.ID())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LINES
// =============================================================================

type setLinesRequest struct {
	Lines []domain.LineRef `json:"lines" validate:"dive"`
}

// SetLines handles PUT /api/sessions/{id}/lines.
func (h *SessionHandler) SetLines(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req setLinesRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	lines, err := domain.HydrateLines(r.Context(), h.products, req.Lines)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := s.SetLines(lines); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondQuote(w, r, s, http.StatusOK)
}

type updateLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// UpdateLine handles PATCH /api/sessions/{id}/lines/{lineID}.
func (h *SessionHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateLineRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	if err := s.UpdateQuantity(r.PathValue("lineID"), req.Quantity); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondQuote(w, r, s, http.StatusOK)
}

// RemoveLine handles DELETE /api/sessions/{id}/lines/{lineID}.
func (h *SessionHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.RemoveLine(r.PathValue("lineID")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondQuote(w, r, s, http.StatusOK)
}

// =============================================================================
// DESTINATION AND ORIGIN
// =============================================================================

type selectAddressRequest struct {
	AddressID string          `json:"address_id"`
	Address   *domain.Address `json:"address" validate:"-"`
}

// SelectAddress handles PUT /api/sessions/{id}/address. The body carries
// either a saved address_id or an inline address. The response is 202:
// the distance resolves in the background and the returned quote is in
// the distance_pending state.
func (h *SessionHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectAddressRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	addr, err := h.lookupAddress(r, req)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	result, err := h.validator.Validate(r.Context(), *addr)
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}
	if !result.IsValid {
		handler.ValidationErrorResponse(w, r, result.Err())
		return
	}

	gen := s.SelectAddress(*result.NormalizedAddress)
	middleware.GetLogger(r.Context(), h.logger).Info("delivery address selected",
		"session_id", s.ID(),
		"generation", gen,
		"state", result.NormalizedAddress.State,
	)
	h.respondQuote(w, r, s, http.StatusAccepted, result.Warnings...)
}

func (h *SessionHandler) lookupAddress(r *http.Request, req selectAddressRequest) (*domain.Address, error) {
	if req.Address != nil {
		return req.Address, nil
	}
	if req.AddressID == "" {
		return nil, domain.NewValidationError("session.address", "address_id", "address_id or address is required")
	}
	if h.addresses == nil {
		return nil, domain.Errorf(domain.ENOTIMPL, "session.address", "Saved addresses are not available")
	}
	owner := domain.IdentityIDFromContext(r.Context())
	return h.addresses.GetAddress(r.Context(), owner.String(), req.AddressID)
}

// ClearAddress handles DELETE /api/sessions/{id}/address.
func (h *SessionHandler) ClearAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearAddress()
	h.respondQuote(w, r, s, http.StatusOK)
}

type setOriginRequest struct {
	Origin string `json:"origin" validate:"max=300"`
}

// SetOrigin handles PUT /api/sessions/{id}/origin. An empty origin restores
// the one derived from the cart lines.
func (h *SessionHandler) SetOrigin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req setOriginRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	s.SetOrigin(req.Origin)
	h.respondQuote(w, r, s, http.StatusOK)
}

// =============================================================================
// PROMOTIONS
// =============================================================================

type promoRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// ApplyPromo handles POST /api/sessions/{id}/promo.
func (h *SessionHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req promoRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}
	if _, err := s.ApplyPromoCode(req.Code); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondQuote(w, r, s, http.StatusOK)
}

// RemovePromo handles DELETE /api/sessions/{id}/promo.
func (h *SessionHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.RemovePromoCode()
	h.respondQuote(w, r, s, http.StatusOK)
}

// =============================================================================
// PAYMENT
// =============================================================================

type checkoutRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Checkout handles POST /api/sessions/{id}/checkout. It returns the payment
// client secret the storefront hands to Stripe.js.
func (h *SessionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	co, err := s.ProceedToCheckout(r.Context(), req.Email)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, r, http.StatusCreated, co)
}

type confirmRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

type confirmResponse struct {
	OrderID     string    `json:"order_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Confirm handles POST /api/sessions/{id}/confirm, called by the storefront
// once Stripe.js reports the payment outcome.
func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	receipt, err := s.ConfirmPayment(r.Context(), req.PaymentID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, r, http.StatusOK, confirmResponse{
		OrderID:     receipt.OrderID,
		SubmittedAt: receipt.SubmittedAt,
	})
}
