package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/souk/internal/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderStore implements order.Submitter by writing orders to PostgreSQL.
// It is used when no order service is reachable over NATS.
type OrderStore struct {
	pool *pgxpool.Pool
}

var _ order.Submitter = (*OrderStore)(nil)

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Name implements order.Submitter.
func (s *OrderStore) Name() string {
	return "postgres"
}

// Submit stores the order and its items in one transaction. Submitting the
// same payment twice returns the existing order.
func (s *OrderStore) Submit(ctx context.Context, payload order.Payload) (*order.Receipt, error) {
	if len(payload.Items) == 0 {
		return nil, order.ErrNoItems
	}

	address, err := json.Marshal(payload.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (session_id, payment_id, customer_email, currency, subtotal, tax, discount,
                    delivery_fee, total_amount, shipping_address, estimated_delivery_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (payment_id) DO NOTHING
RETURNING id, created_at
`
	t := payload.Totals
	var (
		orderID   pgtype.UUID
		createdAt time.Time
	)
	err = tx.QueryRow(ctx, insertOrder,
		payload.SessionID,
		payload.PaymentID,
		payload.CustomerEmail,
		payload.Currency,
		numeric(t.Subtotal),
		numeric(t.Tax),
		numeric(t.Discount),
		numeric(t.DeliveryFee),
		numeric(payload.TotalAmount),
		address,
		payload.EstimatedDeliveryDate,
	).Scan(&orderID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.existing(ctx, payload.PaymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	rows := make([][]any, len(payload.Items))
	for i, item := range payload.Items {
		rows[i] = []any{
			orderID, i + 1, item.ProductID, item.VariantID, item.Name, item.VariantName,
			item.Color, item.VendorID, item.Quantity, numeric(item.UnitPrice), numeric(item.LineTotal),
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "position", "product_id", "variant_id", "name", "variant_name",
			"color", "vendor_id", "quantity", "unit_price", "line_total"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return &order.Receipt{OrderID: uuid.UUID(orderID.Bytes).String(), SubmittedAt: createdAt}, nil
}

func (s *OrderStore) existing(ctx context.Context, paymentID string) (*order.Receipt, error) {
	var r order.Receipt
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, created_at FROM orders WHERE payment_id = $1`, paymentID,
	).Scan(&r.OrderID, &r.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("load existing order: %w", err)
	}
	return &r, nil
}
