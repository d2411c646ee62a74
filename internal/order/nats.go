package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// DefaultSubject is the request subject the order service listens on.
	DefaultSubject = "orders.create"

	// DefaultRequestTimeout bounds a single submission round-trip.
	DefaultRequestTimeout = 10 * time.Second
)

// Requester is the part of *nats.Conn the submitter uses.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSSubmitter submits orders with NATS request/reply.
type NATSSubmitter struct {
	conn    Requester
	subject string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NATSConfig configures a NATSSubmitter.
type NATSConfig struct {
	Subject string
	Timeout time.Duration
	Logger  *slog.Logger
}

// reply is the order service response body.
type reply struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error,omitempty"`
}

// Connect dials NATS with reconnect settings suitable for a long-lived
// service connection.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return nats.Connect(url,
		nats.Name("souk-checkout"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

// NewNATSSubmitter creates a submitter over an established connection.
func NewNATSSubmitter(conn Requester, cfg NATSConfig) *NATSSubmitter {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &NATSSubmitter{
		conn:    conn,
		subject: cfg.Subject,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.With("component", "order", "submitter", "nats"),
		now:     time.Now,
	}
}

// Name implements Submitter.
func (s *NATSSubmitter) Name() string {
	return "nats"
}

// Submit implements Submitter.
func (s *NATSSubmitter) Submit(ctx context.Context, payload Payload) (*Receipt, error) {
	if len(payload.Items) == 0 {
		return nil, ErrNoItems
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.conn.RequestWithContext(ctx, s.subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("order request: %w", err)
	}

	var r reply
	if err := json.Unmarshal(msg.Data, &r); err != nil {
		return nil, fmt.Errorf("decode order reply: %w", err)
	}
	if r.Error != "" || r.OrderID == "" {
		s.logger.Warn("order rejected",
			"session_id", payload.SessionID,
			"payment_id", payload.PaymentID,
			"reason", r.Error,
		)
		return nil, fmt.Errorf("%w: %s", ErrRejected, r.Error)
	}

	s.logger.Info("order submitted",
		"order_id", r.OrderID,
		"session_id", payload.SessionID,
		"payment_id", payload.PaymentID,
	)
	return &Receipt{OrderID: r.OrderID, SubmittedAt: s.now()}, nil
}

var _ Submitter = (*NATSSubmitter)(nil)
