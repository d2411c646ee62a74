package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/middleware"
	"github.com/dukerupert/souk/internal/telemetry"
)

// SignatureHeader carries the Stripe webhook signature.
const SignatureHeader = "Stripe-Signature"

// StripeHandler handles Stripe webhook events. Payment outcomes are routed
// to the checkout session named in the payment's session_id metadata, so an
// order is submitted even when the shopper closes the tab before the
// storefront confirms.
type StripeHandler struct {
	gateway  billing.Gateway
	sessions *checkout.Registry
	logger   *slog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(gateway billing.Gateway, sessions *checkout.Registry, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		gateway:  gateway,
		sessions: sessions,
		logger:   logger.With("component", "stripe_webhook"),
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// Once the signature is verified the handler always answers 200, even if
// the event could not be applied. Confirmation outcomes are remembered per
// session, so a Stripe retry could not change the result.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:8080/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "webhook.stripe"
	logger := middleware.GetLogger(r.Context(), h.logger)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.failed("unreadable_body")
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.Invalid(op, "Error reading request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.failed("missing_signature")
		logger.Warn("webhook rejected: missing signature")
		handler.ErrorResponse(w, r, domain.Invalid(op, "Missing signature"))
		return
	}

	event, err := h.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidWebhookSignature) {
			h.failed("invalid_signature")
			logger.Warn("webhook rejected: signature verification failed", "error", err)
			handler.ErrorResponse(w, r, domain.Unauthorized(op, "Invalid signature"))
			return
		}
		h.failed("invalid_payload")
		logger.Warn("webhook rejected: malformed event", "error", err)
		handler.ErrorResponse(w, r, domain.Invalid(op, "Invalid event payload"))
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(h.gateway.Name(), event.Type).Inc()
	}
	logger = logger.With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentSucceeded(r, logger, event)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		h.handlePaymentUnsuccessful(logger, event)
	default:
		logger.Debug("webhook event ignored")
	}

	handler.WriteJSON(w, r, http.StatusOK, map[string]bool{"received": true})
}

// handlePaymentSucceeded confirms the payment on its session. Confirmation
// is idempotent, so a storefront confirm racing the webhook is harmless.
func (h *StripeHandler) handlePaymentSucceeded(r *http.Request, logger *slog.Logger, event *billing.WebhookEvent) {
	s, payment, ok := h.sessionFor(logger, event)
	if !ok {
		return
	}

	receipt, err := s.ConfirmPayment(r.Context(), payment.ID)
	switch {
	case err == nil:
		logger.Info("payment confirmed from webhook",
			"session_id", s.ID(),
			"payment_id", payment.ID,
			"order_id", receipt.OrderID,
		)
	case domain.ErrorCode(err) == domain.ENOTFOUND:
		// Every payment a session creates is kept until confirmed, so this
		// one was never created by it.
		logger.Warn("webhook payment unknown to session",
			"session_id", s.ID(),
			"payment_id", payment.ID,
		)
	case errors.Is(err, checkout.ErrPaymentInProgress):
		logger.Debug("payment confirmation already in progress", "payment_id", payment.ID)
	default:
		h.failed("confirm_failed")
		logger.Error("failed to confirm payment from webhook",
			"session_id", s.ID(),
			"payment_id", payment.ID,
			"error", err,
		)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"session_id": s.ID(),
			"payment_id": payment.ID,
			"event_id":   event.ID,
		})
	}
}

func (h *StripeHandler) handlePaymentUnsuccessful(logger *slog.Logger, event *billing.WebhookEvent) {
	if event.Payment == nil {
		return
	}
	if telemetry.Business != nil {
		telemetry.Business.PaymentFailed.WithLabelValues(string(event.Payment.Status)).Inc()
	}
	logger.Warn("payment not completed",
		"payment_id", event.Payment.ID,
		"session_id", event.Payment.Metadata["session_id"],
		"status", event.Payment.Status,
		"reason", event.Payment.FailureMessage,
	)
}

func (h *StripeHandler) sessionFor(logger *slog.Logger, event *billing.WebhookEvent) (*checkout.Session, *billing.Payment, bool) {
	payment := event.Payment
	if payment == nil {
		h.failed("missing_payment")
		logger.Warn("payment event carried no payment")
		return nil, nil, false
	}

	sessionID := payment.Metadata["session_id"]
	if sessionID == "" {
		h.failed("missing_session")
		logger.Warn("payment has no session_id metadata", "payment_id", payment.ID)
		return nil, nil, false
	}

	s, ok := h.sessions.Lookup(sessionID)
	if !ok {
		h.failed("unknown_session")
		logger.Warn("payment session has expired",
			"session_id", sessionID,
			"payment_id", payment.ID,
		)
		return nil, nil, false
	}
	return s, payment, true
}

func (h *StripeHandler) failed(reason string) {
	if telemetry.Business != nil {
		telemetry.Business.WebhookFailed.WithLabelValues(h.gateway.Name(), reason).Inc()
	}
}
