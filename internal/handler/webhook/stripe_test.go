package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedResolver struct {
	km float64
}

func (f fixedResolver) Resolve(ctx context.Context, q distance.Query) domain.ResolvedDistance {
	km := f.km
	return domain.ResolvedDistance{Kilometers: &km, Source: domain.DistanceSourceGeocoded}
}

type webhookFixture struct {
	handler   *StripeHandler
	gateway   *billing.MockGateway
	submitter *order.MockSubmitter
	registry  *checkout.Registry
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &webhookFixture{
		gateway:   billing.NewMockGateway(),
		submitter: order.NewMockSubmitter(),
	}
	f.registry = checkout.NewRegistry(checkout.Config{
		Resolver:       fixedResolver{km: 12},
		Gateway:        f.gateway,
		Submitter:      f.submitter,
		Tariff:         shipping.DefaultTariff(),
		TaxRatePercent: decimal.RequireFromString("7.5"),
		Debounce:       -1,
		Logger:         logger,
	}, checkout.RegistryConfig{})
	t.Cleanup(f.registry.Close)

	f.handler = NewStripeHandler(f.gateway, f.registry, logger)
	return f
}

// pendingCheckout opens a session and starts a checkout on it.
func (f *webhookFixture) pendingCheckout(t *testing.T) (*checkout.Session, *checkout.Checkout) {
	t.Helper()
	s := f.registry.Open(uuid.New())

	require.NoError(t, s.SetLines([]domain.CartLine{{
		ID: "line-1",
		Product: domain.Product{
			ID:       "p-1",
			Name:     "Inverter",
			Price:    decimal.NewNullDecimal(decimal.NewFromInt(85000)),
			Location: "Ikeja, Lagos",
		},
		Quantity: 1,
	}}))
	s.SelectAddress(domain.Address{ID: "addr-1", Street: "5 Admiralty Way", City: "Lekki", State: "Lagos"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.AwaitDistance(ctx)
	require.NoError(t, err)

	co, err := s.ProceedToCheckout(context.Background(), "ada@example.com")
	require.NoError(t, err)
	return s, co
}

func (f *webhookFixture) deliver(eventType string, payment *billing.Payment) *httptest.ResponseRecorder {
	f.gateway.ParseWebhookFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{ID: "evt_1", Type: eventType, Payment: payment}, nil
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set(SignatureHeader, "t=1,v1=abc")
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)
	return rec
}

func TestHandleWebhook_MissingSignature(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, f.gateway.CallLog(), "ParseWebhook")
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "t=1,v1=forged")
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signature")
}

func TestHandleWebhook_MalformedEvent(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.ParseWebhookFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return nil, errors.New("decode payment intent from webhook: unexpected EOF")
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "t=1,v1=abc")
	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWebhook_BodyTooLarge(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "t=1,v1=abc")
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	f.handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleWebhook_PaymentSucceededSubmitsOrder(t *testing.T) {
	f := newWebhookFixture(t)
	s, co := f.pendingCheckout(t)
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))

	rec := f.deliver("payment_intent.succeeded", &billing.Payment{
		ID:       co.PaymentID,
		Status:   billing.PaymentStatusSucceeded,
		Metadata: map[string]string{"session_id": s.ID()},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["received"])

	submitted := f.submitter.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, co.PaymentID, submitted[0].PaymentID)
	assert.Empty(t, s.Lines())
}

func TestHandleWebhook_DuplicateDeliveryIsIdempotent(t *testing.T) {
	f := newWebhookFixture(t)
	s, co := f.pendingCheckout(t)
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))

	payment := &billing.Payment{
		ID:       co.PaymentID,
		Status:   billing.PaymentStatusSucceeded,
		Metadata: map[string]string{"session_id": s.ID()},
	}
	first := f.deliver("payment_intent.succeeded", payment)
	second := f.deliver("payment_intent.succeeded", payment)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, f.submitter.Submitted(), 1)
}

func TestHandleWebhook_StorefrontConfirmThenWebhook(t *testing.T) {
	f := newWebhookFixture(t)
	s, co := f.pendingCheckout(t)
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))

	receipt, err := s.ConfirmPayment(context.Background(), co.PaymentID)
	require.NoError(t, err)
	require.NotEmpty(t, receipt.OrderID)

	rec := f.deliver("payment_intent.succeeded", &billing.Payment{
		ID:       co.PaymentID,
		Status:   billing.PaymentStatusSucceeded,
		Metadata: map[string]string{"session_id": s.ID()},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.submitter.Submitted(), 1)
}

func TestHandleWebhook_PaymentFailedKeepsCart(t *testing.T) {
	f := newWebhookFixture(t)
	s, co := f.pendingCheckout(t)
	require.NoError(t, f.gateway.SimulateFailedPayment(co.PaymentID, "card declined"))

	rec := f.deliver("payment_intent.payment_failed", &billing.Payment{
		ID:             co.PaymentID,
		Status:         billing.PaymentStatusFailed,
		FailureMessage: "card declined",
		Metadata:       map[string]string{"session_id": s.ID()},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.submitter.Submitted())
	assert.Len(t, s.Lines(), 1)
}

func TestHandleWebhook_UnroutablePayments(t *testing.T) {
	tests := []struct {
		name    string
		payment *billing.Payment
	}{
		{name: "no payment", payment: nil},
		{name: "no session metadata", payment: &billing.Payment{ID: "pi_1"}},
		{name: "expired session", payment: &billing.Payment{
			ID:       "pi_1",
			Metadata: map[string]string{"session_id": "gone"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t)
			rec := f.deliver("payment_intent.succeeded", tt.payment)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, f.submitter.Submitted())
		})
	}
}

func TestHandleWebhook_StalePaymentIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	s, _ := f.pendingCheckout(t)

	rec := f.deliver("payment_intent.succeeded", &billing.Payment{
		ID:       "pi_superseded",
		Status:   billing.PaymentStatusSucceeded,
		Metadata: map[string]string{"session_id": s.ID()},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.submitter.Submitted())
	assert.Len(t, s.Lines(), 1)
}

func TestHandleWebhook_UnhandledEventType(t *testing.T) {
	f := newWebhookFixture(t)

	rec := f.deliver("customer.created", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
}
