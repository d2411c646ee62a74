// Package billing hands checkout totals to a payment gateway and reads back
// the outcome. The checkout engine never implements payment protocol
// details itself.
package billing

import (
	"context"
	"time"
)

// Gateway is the payment collaborator of the checkout engine.
// Implementations can use Stripe, Paystack, Flutterwave, etc.
type Gateway interface {
	// Name identifies the gateway in logs and metrics.
	Name() string

	// CreatePayment starts a payment for the given amount. The returned
	// payment carries the client secret the frontend confirms with.
	CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error)

	// GetPayment returns the current state of a payment.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)

	// ParseWebhook verifies a webhook payload and extracts the payment it
	// refers to. Events that do not concern payments return a nil Payment.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// PaymentRequest is what the checkout engine hands off to the gateway.
type PaymentRequest struct {
	// AmountMinorUnits is the amount in the currency's smallest unit
	// (kobo for NGN).
	AmountMinorUnits int64

	// Currency is an ISO 4217 code, e.g. "NGN".
	Currency string

	CustomerEmail string
	Description   string

	// Metadata is attached to the payment, always including session_id.
	Metadata map[string]string

	// IdempotencyKey prevents duplicate payments for the same checkout.
	IdempotencyKey string
}

// PaymentStatus is the gateway-neutral state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCanceled   PaymentStatus = "canceled"
)

// Payment is a payment as seen by the gateway.
type Payment struct {
	ID               string
	ClientSecret     string
	AmountMinorUnits int64
	Currency         string
	Status           PaymentStatus
	Metadata         map[string]string
	CreatedAt        time.Time

	// FailureMessage explains the last failed attempt, if any.
	FailureMessage string
}

// Succeeded reports whether the payment has been collected.
func (p *Payment) Succeeded() bool {
	return p != nil && p.Status == PaymentStatusSucceeded
}

// WebhookEvent is a verified gateway callback.
type WebhookEvent struct {
	ID      string
	Type    string
	Payment *Payment
}
