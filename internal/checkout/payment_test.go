package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/souk/internal/billing"
	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/distance"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	session   *checkout.Session
	gateway   *billing.MockGateway
	submitter *order.MockSubmitter
	now       time.Time
}

func newPaymentFixture(t *testing.T, r checkout.DistanceResolver) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		gateway:   billing.NewMockGateway(),
		submitter: order.NewMockSubmitter(),
		now:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	cfg := testConfig(r)
	cfg.Gateway = f.gateway
	cfg.Submitter = f.submitter
	cfg.Now = func() time.Time { return f.now }

	f.session = checkout.NewSession("sess-1", cfg)
	t.Cleanup(f.session.Close)
	return f
}

func (f *paymentFixture) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.SetLines([]domain.CartLine{generatorLine()}))
	f.session.SelectAddress(lekki)
	_, err := f.session.AwaitDistance(awaitCtx(t))
	require.NoError(t, err)
}

func TestProceedToCheckout_NoAddress(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	require.NoError(t, f.session.SetLines([]domain.CartLine{generatorLine()}))

	_, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, checkout.ErrNoAddressSelected)
	assert.Empty(t, f.gateway.Requests())
}

func TestProceedToCheckout_DistancePending(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	f := newPaymentFixture(t, &stubResolver{fn: func(ctx context.Context, _ distance.Query) domain.ResolvedDistance {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return domain.Unresolved()
	}})
	require.NoError(t, f.session.SetLines([]domain.CartLine{generatorLine()}))
	f.session.SelectAddress(lekki)

	_, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, checkout.ErrDistancePending)
	assert.Equal(t, "Delivery cost is still being calculated", domain.ErrorMessage(err))
	assert.Empty(t, f.gateway.Requests())
}

func TestProceedToCheckout_EmptyCart(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.session.SelectAddress(lekki)
	_, err := f.session.AwaitDistance(awaitCtx(t))
	require.NoError(t, err)

	_, err = f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestProceedToCheckout_InvalidPrice(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)

	line := generatorLine()
	line.Product.Price.Valid = false
	require.NoError(t, f.session.SetLines([]domain.CartLine{line}))

	_, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, pricing.ErrInvalidPriceData)
	assert.Empty(t, f.gateway.Requests())
}

func TestProceedToCheckout_HandsOffGrandTotal(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)

	co, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, co.PaymentID)
	assert.NotEmpty(t, co.ClientSecret)
	assert.Equal(t, int64(11467563), co.Amount, "114675.625 NGN in kobo")
	assert.Equal(t, "NGN", co.Currency)

	reqs := f.gateway.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(11467563), reqs[0].AmountMinorUnits)
	assert.Equal(t, "NGN", reqs[0].Currency)
	assert.Equal(t, "ada@example.com", reqs[0].CustomerEmail)
	assert.Equal(t, "sess-1", reqs[0].Metadata["session_id"])
	assert.NotEmpty(t, reqs[0].IdempotencyKey)

	// Same cart, same idempotency key.
	_, err = f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	require.NoError(t, err)
	reqs = f.gateway.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].IdempotencyKey, reqs[1].IdempotencyKey)
}

func TestProceedToCheckout_GatewayError(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)
	f.gateway.CreatePaymentFunc = func(context.Context, billing.PaymentRequest) (*billing.Payment, error) {
		return nil, errors.New("stripe down")
	}

	_, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestProceedToCheckout_GatewayErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{
			name:    "card declined",
			err:     &billing.StripeError{Message: "Your card was declined.", Code: "card_declined", HTTPStatus: 402},
			code:    domain.EPAYMENT,
			message: "Your card was declined. Please use another payment method.",
		},
		{
			name:    "rate limited",
			err:     &billing.StripeError{Message: "Too many requests", Code: "rate_limit", HTTPStatus: 429},
			code:    domain.EUNAVAILABLE,
			message: "Payments are temporarily unavailable. Please try again.",
		},
		{
			name:    "gateway outage",
			err:     &billing.StripeError{Message: "api error", HTTPStatus: 502},
			code:    domain.EUNAVAILABLE,
			message: "Payments are temporarily unavailable. Please try again.",
		},
		{
			name:    "below minimum",
			err:     billing.ErrAmountTooSmall,
			code:    domain.EINVALID,
			message: "This order cannot be paid online",
		},
		{
			name: "bad request",
			err:  &billing.StripeError{Message: "invalid param", Code: "parameter_invalid_integer", HTTPStatus: 400},
			code: domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, &stubResolver{})
			f.ready(t)
			f.gateway.CreatePaymentFunc = func(context.Context, billing.PaymentRequest) (*billing.Payment, error) {
				return nil, tt.err
			}

			_, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
			require.Error(t, err)
			assert.Equal(t, tt.code, domain.ErrorCode(err))
			assert.ErrorIs(t, err, tt.err)
			if tt.message != "" {
				assert.Equal(t, tt.message, domain.ErrorMessage(err))
			}
			assert.Len(t, f.session.Lines(), 1, "cart kept")
		})
	}
}

func TestConfirmPayment_Success(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)
	ctx := context.Background()

	co, err := f.session.ProceedToCheckout(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))

	receipt, err := f.session.ConfirmPayment(ctx, co.PaymentID)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)

	assert.Empty(t, f.session.Lines(), "cart is cleared after payment")

	submitted := f.submitter.Submitted()
	require.Len(t, submitted, 1)
	p := submitted[0]
	assert.Equal(t, co.PaymentID, p.PaymentID)
	assert.Equal(t, "ada@example.com", p.CustomerEmail)
	assert.True(t, p.TotalAmount.Equal(dec("114675.625")))
	assert.Equal(t, "addr-1", p.ShippingAddress.ID)
	assert.Equal(t, f.now.Add(21*24*time.Hour), p.EstimatedDeliveryDate)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "p-gen", p.Items[0].ProductID)

	// Confirming again returns the same order without resubmitting.
	again, err := f.session.ConfirmPayment(ctx, co.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, receipt.OrderID, again.OrderID)
	assert.Len(t, f.submitter.Submitted(), 1)
}

func TestConfirmPayment_FailedKeepsCart(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)
	ctx := context.Background()

	co, err := f.session.ProceedToCheckout(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.gateway.SimulateFailedPayment(co.PaymentID, "card declined"))

	_, err = f.session.ConfirmPayment(ctx, co.PaymentID)
	assert.ErrorIs(t, err, checkout.ErrPaymentFailed)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	assert.Len(t, f.session.Lines(), 1, "cart kept for retry")
	assert.Empty(t, f.submitter.Submitted())

	// Retry succeeds.
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))
	_, err = f.session.ConfirmPayment(ctx, co.PaymentID)
	require.NoError(t, err)
	assert.Empty(t, f.session.Lines())
}

func TestConfirmPayment_PendingIsNotSuccess(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)

	co, err := f.session.ProceedToCheckout(context.Background(), "ada@example.com")
	require.NoError(t, err)

	_, err = f.session.ConfirmPayment(context.Background(), co.PaymentID)
	assert.ErrorIs(t, err, checkout.ErrPaymentFailed)
	assert.Len(t, f.session.Lines(), 1)
}

func TestConfirmPayment_SubmissionFailureKeepsPayment(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)
	ctx := context.Background()
	f.submitter.SubmitFunc = func(context.Context, order.Payload) (*order.Receipt, error) {
		return nil, order.ErrUnavailable
	}

	co, err := f.session.ProceedToCheckout(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.gateway.SimulateSucceededPayment(co.PaymentID))

	_, err = f.session.ConfirmPayment(ctx, co.PaymentID)
	assert.ErrorIs(t, err, checkout.ErrOrderSubmissionFailed)
	assert.ErrorIs(t, err, order.ErrUnavailable)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Contains(t, domain.ErrorMessage(err), "contact support")

	assert.Empty(t, f.session.Lines(), "payment succeeded, so the cart is still cleared")

	// The outcome is sticky; the order is not resubmitted.
	_, err = f.session.ConfirmPayment(ctx, co.PaymentID)
	assert.ErrorIs(t, err, checkout.ErrOrderSubmissionFailed)
	assert.Len(t, f.submitter.Submitted(), 1)
}

func TestConfirmPayment_SupersededPaymentStillPlacesOrder(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)
	ctx := context.Background()

	first, err := f.session.ProceedToCheckout(ctx, "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.session.UpdateQuantity("gen", 2))
	second, err := f.session.ProceedToCheckout(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.PaymentID, second.PaymentID)
	require.NotEqual(t, first.Amount, second.Amount)

	// The shopper completes the payment for the earlier cart.
	require.NoError(t, f.gateway.SimulateSucceededPayment(first.PaymentID))

	receipt, err := f.session.ConfirmPayment(ctx, first.PaymentID)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderID)

	submitted := f.submitter.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, first.PaymentID, submitted[0].PaymentID)
	assert.True(t, submitted[0].TotalAmount.Equal(dec("114675.625")), "order matches the cart that was paid for")
	require.Len(t, submitted[0].Items, 1)
	assert.Equal(t, 1, submitted[0].Items[0].Quantity)

	lines := f.session.Lines()
	require.Len(t, lines, 1, "newer cart is kept")
	assert.Equal(t, 2, lines[0].Quantity)

	// The newer payment can still be confirmed on its own.
	require.NoError(t, f.gateway.SimulateSucceededPayment(second.PaymentID))
	_, err = f.session.ConfirmPayment(ctx, second.PaymentID)
	require.NoError(t, err)
	assert.Len(t, f.submitter.Submitted(), 2)
	assert.Empty(t, f.session.Lines())
}

func TestConfirmPayment_UnknownPayment(t *testing.T) {
	f := newPaymentFixture(t, &stubResolver{})
	f.ready(t)

	_, err := f.session.ConfirmPayment(context.Background(), "pi_other")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestCheckout_NoGateway(t *testing.T) {
	s := checkout.NewSession("sess-1", testConfig(&stubResolver{}))
	defer s.Close()

	_, err := s.ProceedToCheckout(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, checkout.ErrNoGateway)
}
