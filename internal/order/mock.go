package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockSubmitter is a mock order service for testing.
type MockSubmitter struct {
	// SubmitFunc allows customizing submission behavior
	SubmitFunc func(ctx context.Context, payload Payload) (*Receipt, error)

	mu        sync.Mutex
	submitted []Payload
}

// NewMockSubmitter creates a submitter that accepts every order.
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{}
}

// Name implements Submitter.
func (m *MockSubmitter) Name() string {
	return "mock"
}

// Submit records the payload and accepts it unless SubmitFunc says otherwise.
func (m *MockSubmitter) Submit(ctx context.Context, payload Payload) (*Receipt, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, payload)
	fn := m.SubmitFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, payload)
	}
	return &Receipt{OrderID: "ord_" + uuid.New().String(), SubmittedAt: time.Now()}, nil
}

// Submitted returns every payload received so far.
func (m *MockSubmitter) Submitted() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payload, len(m.submitted))
	copy(out, m.submitted)
	return out
}

var _ Submitter = (*MockSubmitter)(nil)
