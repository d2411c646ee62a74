package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/dukerupert/souk/internal/telemetry"
)

var (
	// ErrPaymentFailed is returned when the gateway did not collect the
	// payment. The cart is kept so the shopper can retry.
	ErrPaymentFailed = domain.Errorf(domain.EPAYMENT, "checkout.confirm", "Payment was not completed. Please try again.")

	// ErrOrderSubmissionFailed is returned when payment succeeded but the
	// order service did not accept the order. The payment is not reversed.
	ErrOrderSubmissionFailed = domain.Errorf(domain.EUNAVAILABLE, "checkout.confirm",
		"Your payment was received but we could not place your order. Please contact support.")

	// ErrPaymentInProgress is returned when a confirmation for the same
	// payment is already running.
	ErrPaymentInProgress = domain.Conflict("checkout.confirm", "Payment is already being confirmed")

	// ErrNoGateway is returned when the session has no payment gateway.
	ErrNoGateway = domain.Errorf(domain.ENOTIMPL, "checkout.proceed", "Payments are not available")
)

// pendingPayment is the cart snapshot a payment was created for.
type pendingPayment struct {
	payment *billing.Payment
	draft   order.Draft
}

type orderResult struct {
	receipt *order.Receipt
	err     error
}

// Checkout is the hand-off returned by ProceedToCheckout.
type Checkout struct {
	PaymentID    string             `json:"payment_id"`
	ClientSecret string             `json:"client_secret"`
	Amount       int64              `json:"amount"`
	Currency     string             `json:"currency"`
	Totals       pricing.CartTotals `json:"totals"`
}

// ProceedToCheckout verifies the gate and creates a payment for the grand
// total. It fails with ErrNoAddressSelected or ErrDistancePending while
// the gate is closed, and with pricing.ErrInvalidPriceData when a line
// cannot be priced.
func (s *Session) ProceedToCheckout(ctx context.Context, email string) (*Checkout, error) {
	if s.cfg.Gateway == nil {
		return nil, ErrNoGateway
	}

	s.mu.Lock()
	s.touch()
	if err := s.gate.Proceed(); err != nil {
		s.mu.Unlock()
		checkoutBlocked(err)
		return nil, err
	}
	if len(s.lines) == 0 {
		s.mu.Unlock()
		checkoutBlocked(domain.ErrCartEmpty)
		return nil, domain.ErrCartEmpty
	}
	q, err := s.quote()
	if err != nil {
		s.mu.Unlock()
		checkoutBlocked(err)
		return nil, err
	}
	gen := s.gate.Generation()
	s.mu.Unlock()

	amount := pricing.MinorUnits(q.Totals.GrandTotal)
	req := billing.PaymentRequest{
		AmountMinorUnits: amount,
		Currency:         s.cfg.Currency,
		CustomerEmail:    email,
		Description:      fmt.Sprintf("Order for %d item(s)", len(q.Lines)),
		Metadata:         map[string]string{"session_id": s.id},
		// Same cart, address and amount reuse the same payment.
		IdempotencyKey: fmt.Sprintf("checkout-%s-%d-%d", s.id, gen, amount),
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.WithLabelValues(string(q.Distance.Source)).Inc()
		telemetry.Business.PaymentAttempts.WithLabelValues(s.cfg.Gateway.Name()).Inc()
		telemetry.Business.CartValue.Observe(q.Totals.GrandTotal.InexactFloat64())
	}

	payment, err := s.cfg.Gateway.CreatePayment(ctx, req)
	if err != nil {
		s.logger.Error("create payment failed", "amount", amount, "error", err)
		return nil, createPaymentError(err)
	}

	s.mu.Lock()
	s.payments[payment.ID] = &pendingPayment{
		payment: payment,
		draft: order.Draft{
			SessionID:     s.id,
			PaymentID:     payment.ID,
			CustomerEmail: email,
			Lines:         q.Lines,
			Totals:        q.Totals,
			Currency:      s.cfg.Currency,
			Address:       *q.Address,
		},
	}
	s.latestPayment = payment.ID
	s.mu.Unlock()

	s.logger.Info("checkout started",
		"payment_id", payment.ID,
		"amount", amount,
		"distance_source", q.Distance.Source,
	)

	return &Checkout{
		PaymentID:    payment.ID,
		ClientSecret: payment.ClientSecret,
		Amount:       amount,
		Currency:     s.cfg.Currency,
		Totals:       q.Totals,
	}, nil
}

// ConfirmPayment checks the payment with the gateway. On success the order
// is submitted for the cart the payment was created for, and the cart is
// cleared when that payment is the newest one. Confirming the same payment
// again returns the first outcome.
func (s *Session) ConfirmPayment(ctx context.Context, paymentID string) (*order.Receipt, error) {
	if s.cfg.Gateway == nil {
		return nil, ErrNoGateway
	}

	s.mu.Lock()
	s.touch()
	if r, ok := s.orders[paymentID]; ok {
		s.mu.Unlock()
		return r.receipt, r.err
	}
	if _, ok := s.payments[paymentID]; !ok {
		_, running := s.confirming[paymentID]
		s.mu.Unlock()
		if running {
			return nil, ErrPaymentInProgress
		}
		return nil, domain.NotFound("checkout.confirm", "payment", paymentID)
	}
	s.mu.Unlock()

	payment, err := s.cfg.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, billing.ErrPaymentNotFound) {
			return nil, domain.NotFound("checkout.confirm", "payment", paymentID)
		}
		return nil, domain.Internal(err, "checkout.confirm", "failed to read payment")
	}

	if !payment.Succeeded() {
		if telemetry.Business != nil {
			telemetry.Business.PaymentFailed.WithLabelValues(string(payment.Status)).Inc()
		}
		s.logger.Warn("payment not completed",
			"payment_id", paymentID,
			"status", payment.Status,
			"reason", payment.FailureMessage,
		)
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, payment.Status)
	}

	s.mu.Lock()
	if r, ok := s.orders[paymentID]; ok {
		s.mu.Unlock()
		return r.receipt, r.err
	}
	p, ok := s.payments[paymentID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrPaymentInProgress
	}
	delete(s.payments, paymentID)
	s.confirming[paymentID] = struct{}{}
	current := s.latestPayment
	latest := paymentID == current
	if latest {
		s.latestPayment = ""
		s.lines = nil
		s.promo.Clear()
	}
	s.mu.Unlock()

	if telemetry.Business != nil {
		telemetry.Business.PaymentSucceeded.Inc()
		if latest {
			telemetry.Business.CartCleared.Inc()
		}
	}
	if !latest {
		// The cart changed after this payment was created. The shopper paid
		// for the earlier cart, so that is the order placed.
		s.logger.Warn("superseded payment succeeded",
			"payment_id", paymentID,
			"latest_payment_id", current,
		)
	}

	receipt, err := s.submit(ctx, p.draft)

	s.mu.Lock()
	s.orders[paymentID] = &orderResult{receipt: receipt, err: err}
	delete(s.confirming, paymentID)
	s.mu.Unlock()

	return receipt, err
}

func (s *Session) submit(ctx context.Context, draft order.Draft) (*order.Receipt, error) {
	submitter := "none"
	if s.cfg.Submitter != nil {
		submitter = s.cfg.Submitter.Name()
	}

	fail := func(err error) (*order.Receipt, error) {
		if telemetry.Business != nil {
			telemetry.Business.OrderSubmissionFailed.WithLabelValues(submitter).Inc()
		}
		s.logger.Error("order submission failed after payment",
			"payment_id", draft.PaymentID,
			"error", err,
		)
		telemetry.CaptureErrorWithSession(err, s.id, map[string]interface{}{
			"payment_id":  draft.PaymentID,
			"grand_total": draft.Totals.GrandTotal.String(),
		})
		return nil, fmt.Errorf("%w: %w", ErrOrderSubmissionFailed, err)
	}

	if s.cfg.Submitter == nil {
		return fail(errors.New("no order submitter configured"))
	}

	payload, err := order.BuildPayload(draft, s.cfg.Now())
	if err != nil {
		return fail(err)
	}

	receipt, err := s.cfg.Submitter.Submit(ctx, payload)
	if err != nil {
		return fail(err)
	}

	if telemetry.Business != nil {
		telemetry.Business.OrdersSubmitted.WithLabelValues(submitter).Inc()
		telemetry.Business.OrderValue.Observe(payload.TotalAmount.InexactFloat64())
	}
	s.logger.Info("order placed",
		"order_id", receipt.OrderID,
		"payment_id", draft.PaymentID,
		"estimated_delivery", payload.EstimatedDeliveryDate,
	)
	return receipt, nil
}

// createPaymentError maps a gateway failure to what the shopper can do
// about it.
func createPaymentError(err error) error {
	const op = "checkout.proceed"

	var se *billing.StripeError
	if errors.As(err, &se) {
		switch {
		case se.IsDeclined():
			return domain.WrapError(err, domain.EPAYMENT, op, "Your card was declined. Please use another payment method.")
		case se.IsTemporary():
			return domain.WrapError(err, domain.EUNAVAILABLE, op, "Payments are temporarily unavailable. Please try again.")
		}
	}
	if errors.Is(err, billing.ErrAmountTooSmall) || errors.Is(err, billing.ErrUnsupportedCurrency) {
		return domain.WrapError(err, domain.EINVALID, op, "This order cannot be paid online")
	}
	return domain.Internal(err, op, "failed to create payment")
}

func checkoutBlocked(err error) {
	if telemetry.Business == nil {
		return
	}
	reason := "invalid_cart"
	switch {
	case errors.Is(err, ErrNoAddressSelected):
		reason = "no_address"
	case errors.Is(err, ErrDistancePending):
		reason = "distance_pending"
	case errors.Is(err, domain.ErrCartEmpty):
		reason = "empty_cart"
	case errors.Is(err, pricing.ErrInvalidPriceData):
		reason = "invalid_price"
	}
	telemetry.Business.CheckoutBlocked.WithLabelValues(reason).Inc()
}
