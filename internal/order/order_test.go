package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/order"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func testDraft() order.Draft {
	return order.Draft{
		SessionID:     "sess-1",
		PaymentID:     "pi_1",
		CustomerEmail: "ada@example.com",
		Lines: []domain.CartLine{
			{
				Product:  domain.Product{ID: "p-1", Name: "Cement 50kg", Price: price("5000"), VendorID: "v-1"},
				Quantity: 4,
			},
			{
				Product:  domain.Product{ID: "p-2", Name: "Paint", Price: price("9000")},
				Variant:  &domain.ProductVariant{ID: "v-blue", Name: "20L", Price: price("12000")},
				Quantity: 1,
				Color:    "blue",
			},
		},
		Totals:   pricing.CartTotals{GrandTotal: decimal.RequireFromString("40000")},
		Currency: "NGN",
		Address:  domain.Address{Street: "1 Marina", City: "Lagos Island", State: "Lagos"},
	}
}

func TestBuildPayload(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p, err := order.BuildPayload(testDraft(), now)
	require.NoError(t, err)

	require.Len(t, p.Items, 2)
	assert.True(t, p.Items[0].UnitPrice.Equal(decimal.NewFromInt(5000)))
	assert.True(t, p.Items[0].LineTotal.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, "v-1", p.Items[0].VendorID)

	assert.Equal(t, "v-blue", p.Items[1].VariantID)
	assert.True(t, p.Items[1].UnitPrice.Equal(decimal.NewFromInt(12000)), "variant price wins")
	assert.Equal(t, "blue", p.Items[1].Color)

	assert.True(t, p.TotalAmount.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, "Lagos", p.ShippingAddress.State)
	assert.Equal(t, time.Date(2024, 3, 22, 12, 0, 0, 0, time.UTC), p.EstimatedDeliveryDate)
}

func TestBuildPayload_InvalidPrice(t *testing.T) {
	d := testDraft()
	d.Lines[0].Product.Price = decimal.NullDecimal{}

	_, err := order.BuildPayload(d, time.Now())
	assert.ErrorIs(t, err, pricing.ErrInvalidPriceData)
}

func TestEstimatedDeliveryDate(t *testing.T) {
	now := time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), order.EstimatedDeliveryDate(now))
}

// fakeConn answers requests the way the order service would.
type fakeConn struct {
	subject string
	data    []byte
	reply   func(data []byte) (*nats.Msg, error)
}

func (f *fakeConn) RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error) {
	f.subject = subj
	f.data = data
	return f.reply(data)
}

func TestNATSSubmitter_Submit(t *testing.T) {
	conn := &fakeConn{reply: func([]byte) (*nats.Msg, error) {
		return &nats.Msg{Data: []byte(`{"order_id":"ord-42"}`)}, nil
	}}
	s := order.NewNATSSubmitter(conn, order.NATSConfig{})

	payload, err := order.BuildPayload(testDraft(), time.Now())
	require.NoError(t, err)

	receipt, err := s.Submit(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "ord-42", receipt.OrderID)
	assert.Equal(t, order.DefaultSubject, conn.subject)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(conn.data, &sent))
	assert.Equal(t, "pi_1", sent["payment_id"])
	assert.Equal(t, "40000", sent["total_amount"])
	assert.Len(t, sent["items"], 2)
	assert.Contains(t, sent, "estimated_delivery_date")
}

func TestNATSSubmitter_Errors(t *testing.T) {
	payload, err := order.BuildPayload(testDraft(), time.Now())
	require.NoError(t, err)

	tests := []struct {
		name  string
		reply func([]byte) (*nats.Msg, error)
		want  error
	}{
		{
			name:  "rejected",
			reply: func([]byte) (*nats.Msg, error) { return &nats.Msg{Data: []byte(`{"error":"out of stock"}`)}, nil },
			want:  order.ErrRejected,
		},
		{
			name:  "no responders",
			reply: func([]byte) (*nats.Msg, error) { return nil, nats.ErrNoResponders },
			want:  order.ErrUnavailable,
		},
		{
			name:  "timeout",
			reply: func([]byte) (*nats.Msg, error) { return nil, context.DeadlineExceeded },
			want:  order.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := order.NewNATSSubmitter(&fakeConn{reply: tt.reply}, order.NATSConfig{Subject: "orders.test"})
			_, err := s.Submit(context.Background(), payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNATSSubmitter_BadReply(t *testing.T) {
	conn := &fakeConn{reply: func([]byte) (*nats.Msg, error) {
		return &nats.Msg{Data: []byte("not json")}, nil
	}}
	payload, err := order.BuildPayload(testDraft(), time.Now())
	require.NoError(t, err)

	_, err = order.NewNATSSubmitter(conn, order.NATSConfig{}).Submit(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode order reply")
}

func TestNATSSubmitter_NoItems(t *testing.T) {
	s := order.NewNATSSubmitter(&fakeConn{}, order.NATSConfig{})
	_, err := s.Submit(context.Background(), order.Payload{})
	assert.ErrorIs(t, err, order.ErrNoItems)
}

func TestMockSubmitter(t *testing.T) {
	m := order.NewMockSubmitter()
	r, err := m.Submit(context.Background(), order.Payload{PaymentID: "pi_1"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.OrderID)

	m.SubmitFunc = func(context.Context, order.Payload) (*order.Receipt, error) {
		return nil, errors.New("down")
	}
	_, err = m.Submit(context.Background(), order.Payload{PaymentID: "pi_2"})
	assert.Error(t, err)
	assert.Len(t, m.Submitted(), 2)
}
