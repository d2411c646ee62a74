// Package order builds the order handed to the external order service once
// a payment has been collected, and submits it.
package order

import (
	"context"
	"time"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/shopspring/decimal"
)

// DeliveryWindow is the fixed estimated delivery policy.
const DeliveryWindow = 21 * 24 * time.Hour

// Submitter hands a paid order to the order-creation service.
// Submission is a single accept-or-reject operation.
type Submitter interface {
	// Name identifies the submitter in logs and metrics.
	Name() string

	Submit(ctx context.Context, payload Payload) (*Receipt, error)
}

// Item is one order line with its resolved unit price.
type Item struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	Name        string          `json:"name"`
	VariantName string          `json:"variant_name,omitempty"`
	Color       string          `json:"color,omitempty"`
	VendorID    string          `json:"vendor_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Payload is the order sent to the order service.
type Payload struct {
	SessionID             string             `json:"session_id"`
	PaymentID             string             `json:"payment_id"`
	CustomerEmail         string             `json:"customer_email,omitempty"`
	Items                 []Item             `json:"items"`
	Totals                pricing.CartTotals `json:"totals"`
	TotalAmount           decimal.Decimal    `json:"total_amount"`
	Currency              string             `json:"currency"`
	ShippingAddress       domain.Address     `json:"shipping_address"`
	EstimatedDeliveryDate time.Time          `json:"estimated_delivery_date"`
}

// Receipt acknowledges an accepted order.
type Receipt struct {
	OrderID     string    `json:"order_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// EstimatedDeliveryDate returns now plus the delivery window.
func EstimatedDeliveryDate(now time.Time) time.Time {
	return now.Add(DeliveryWindow)
}

// Draft holds what the checkout knows at the moment payment succeeds.
type Draft struct {
	SessionID     string
	PaymentID     string
	CustomerEmail string
	Lines         []domain.CartLine
	Totals        pricing.CartTotals
	Currency      string
	Address       domain.Address
}

// BuildPayload prices each line and stamps the estimated delivery date.
func BuildPayload(d Draft, now time.Time) (Payload, error) {
	items := make([]Item, 0, len(d.Lines))
	for _, line := range d.Lines {
		unit, err := pricing.ResolveUnitPrice(line)
		if err != nil {
			return Payload{}, err
		}
		item := Item{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Color:     line.Color,
			VendorID:  line.Product.VendorID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
		}
		if line.Variant != nil {
			item.VariantID = line.Variant.ID
			item.VariantName = line.Variant.Name
		}
		items = append(items, item)
	}

	return Payload{
		SessionID:             d.SessionID,
		PaymentID:             d.PaymentID,
		CustomerEmail:         d.CustomerEmail,
		Items:                 items,
		Totals:                d.Totals,
		TotalAmount:           d.Totals.GrandTotal,
		Currency:              d.Currency,
		ShippingAddress:       d.Address,
		EstimatedDeliveryDate: EstimatedDeliveryDate(now),
	}, nil
}
