package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/souk/internal/telemetry"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeGateway implements Gateway with Stripe Payment Intents.
type StripeGateway struct {
	intents       paymentintent.Client
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeGateway creates a Stripe-backed Gateway.
func NewStripeGateway(cfg StripeConfig, logger *slog.Logger) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrInvalidAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	retries := int64(2)
	if cfg.MaxRetries > 0 {
		retries = int64(cfg.MaxRetries)
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(retries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}

	return &StripeGateway{
		intents: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.APIKey,
		},
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With("component", "billing", "gateway", "stripe"),
	}, nil
}

// Name implements Gateway.
func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreatePayment implements Gateway.
func (g *StripeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	if req.AmountMinorUnits <= 0 {
		return nil, ErrAmountTooSmall
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, ErrUnsupportedCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinorUnits),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	pi, err := g.intents.New(params)
	observeStripe("create_payment_intent", start)
	if err != nil {
		g.logger.Error("create payment intent failed",
			"amount", req.AmountMinorUnits,
			"currency", req.Currency,
			"error", err,
		)
		return nil, convertStripeError(err)
	}

	g.logger.Info("payment intent created",
		"payment_id", pi.ID,
		"amount", pi.Amount,
		"currency", pi.Currency,
	)
	return paymentFromIntent(pi), nil
}

// GetPayment implements Gateway.
func (g *StripeGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, ErrPaymentNotFound
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	start := time.Now()
	pi, err := g.intents.Get(paymentID, params)
	observeStripe("get_payment_intent", start)
	if err != nil {
		return nil, convertStripeError(err)
	}
	return paymentFromIntent(pi), nil
}

// ParseWebhook implements Gateway.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent from webhook: %w", err)
	}
	out.Payment = paymentFromIntent(&pi)
	return out, nil
}

func paymentFromIntent(pi *stripe.PaymentIntent) *Payment {
	p := &Payment{
		ID:               pi.ID,
		ClientSecret:     pi.ClientSecret,
		AmountMinorUnits: pi.Amount,
		Currency:         strings.ToUpper(string(pi.Currency)),
		Status:           mapIntentStatus(pi),
		Metadata:         pi.Metadata,
	}
	if pi.Created > 0 {
		p.CreatedAt = time.Unix(pi.Created, 0)
	}
	if pi.LastPaymentError != nil {
		p.FailureMessage = pi.LastPaymentError.Msg
	}
	return p
}

func mapIntentStatus(pi *stripe.PaymentIntent) PaymentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return PaymentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return PaymentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return PaymentStatusCanceled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// Stripe returns here after a declined attempt.
		if pi.LastPaymentError != nil {
			return PaymentStatusFailed
		}
		return PaymentStatusPending
	default:
		return PaymentStatusPending
	}
}

func convertStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return err
	}

	if stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrPaymentNotFound, stripeErr.Msg)
	}
	if stripeErr.Type == stripe.ErrorTypeIdempotency {
		return fmt.Errorf("%w: %s", ErrIdempotencyConflict, stripeErr.Msg)
	}

	return &StripeError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		DeclineCode:   string(stripeErr.DeclineCode),
		HTTPStatus:    stripeErr.HTTPStatusCode,
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
}

func observeStripe(operation string, start time.Time) {
	if telemetry.Business != nil {
		telemetry.Business.StripeAPILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

var _ Gateway = (*StripeGateway)(nil)
