package api

import (
	"net/http"

	"github.com/dukerupert/souk/internal/checkout"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/dukerupert/souk/internal/handler"
	"github.com/dukerupert/souk/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// lineView is a cart line as returned to clients. UnitPrice and LineTotal
// are omitted when the line has no valid price.
type lineView struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"product_id"`
	VariantID   string           `json:"variant_id,omitempty"`
	Name        string           `json:"name"`
	VariantName string           `json:"variant_name,omitempty"`
	Color       string           `json:"color,omitempty"`
	VendorID    string           `json:"vendor_id,omitempty"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}

func lineViews(lines []domain.CartLine) []lineView {
	views := make([]lineView, 0, len(lines))
	for _, l := range lines {
		v := lineView{
			ID:        l.ID,
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Color:     l.Color,
			VendorID:  l.Product.VendorID,
			Quantity:  l.Quantity,
		}
		if l.Variant != nil {
			v.VariantID = l.Variant.ID
			v.VariantName = l.Variant.Name
		}
		if unit, err := pricing.ResolveUnitPrice(l); err == nil {
			total := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
			v.UnitPrice = &unit
			v.LineTotal = &total
		}
		views = append(views, v)
	}
	return views
}

// quoteView is the JSON shape of a priced cart.
type quoteView struct {
	checkout.Quote
	Lines             []lineView `json:"lines"`
	GrandTotalDisplay string     `json:"grand_total_display"`
	Warnings          []string   `json:"warnings,omitempty"`
}

func newQuoteView(q checkout.Quote) quoteView {
	return quoteView{
		Quote:             q,
		Lines:             lineViews(q.Lines),
		GrandTotalDisplay: pricing.FormatNaira(q.Totals.GrandTotal),
	}
}

// shopperID returns the request's shopper, writing a 401 when absent.
func shopperID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id := domain.IdentityIDFromContext(r.Context())
	if id == uuid.Nil {
		handler.UnauthorizedResponse(w, r)
		return uuid.Nil, false
	}
	return id, true
}
