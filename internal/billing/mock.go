package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway is a mock payment gateway for testing.
// Simulates payment flows without calling Stripe.
type MockGateway struct {
	// CreatePaymentFunc allows customizing payment creation behavior
	CreatePaymentFunc func(ctx context.Context, req PaymentRequest) (*Payment, error)

	// GetPaymentFunc allows customizing payment retrieval behavior
	GetPaymentFunc func(ctx context.Context, paymentID string) (*Payment, error)

	// ParseWebhookFunc allows customizing webhook parsing behavior
	ParseWebhookFunc func(payload []byte, signature string) (*WebhookEvent, error)

	mu       sync.Mutex
	payments map[string]*Payment
	requests []PaymentRequest
	callLog  []string
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{payments: make(map[string]*Payment)}
}

// Name implements Gateway.
func (m *MockGateway) Name() string {
	return "mock"
}

// CreatePayment records the request and creates a pending payment.
func (m *MockGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	m.mu.Lock()
	m.callLog = append(m.callLog, fmt.Sprintf("CreatePayment(%d, %s)", req.AmountMinorUnits, req.Currency))
	m.requests = append(m.requests, req)
	fn := m.CreatePaymentFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	id := "pi_" + uuid.New().String()
	p := &Payment{
		ID:               id,
		ClientSecret:     id + "_secret_" + uuid.New().String()[:8],
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
		Status:           PaymentStatusPending,
		Metadata:         req.Metadata,
		CreatedAt:        time.Now(),
	}

	m.mu.Lock()
	m.payments[id] = p
	m.mu.Unlock()

	cp := *p
	return &cp, nil
}

// GetPayment returns a stored payment.
func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	m.mu.Lock()
	m.callLog = append(m.callLog, fmt.Sprintf("GetPayment(%s)", paymentID))
	fn := m.GetPaymentFunc
	p, ok := m.payments[paymentID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, paymentID)
	}
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

// ParseWebhook delegates to ParseWebhookFunc or rejects the payload.
func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	m.mu.Lock()
	m.callLog = append(m.callLog, "ParseWebhook")
	fn := m.ParseWebhookFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(payload, signature)
	}
	return nil, ErrInvalidWebhookSignature
}

// SimulateSucceededPayment marks a payment as collected.
// Used in tests to simulate successful payment confirmation.
func (m *MockGateway) SimulateSucceededPayment(paymentID string) error {
	return m.setStatus(paymentID, PaymentStatusSucceeded, "")
}

// SimulateFailedPayment marks a payment as declined.
// Used in tests to simulate payment failures.
func (m *MockGateway) SimulateFailedPayment(paymentID, message string) error {
	return m.setStatus(paymentID, PaymentStatusFailed, message)
}

func (m *MockGateway) setStatus(paymentID string, status PaymentStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[paymentID]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	p.FailureMessage = message
	return nil
}

// Requests returns the payment requests received so far.
func (m *MockGateway) Requests() []PaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PaymentRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallLog returns the method calls made so far.
func (m *MockGateway) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.callLog))
	copy(out, m.callLog)
	return out
}

var _ Gateway = (*MockGateway)(nil)
