package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository implements domain.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// Compile-time check that ProductRepository implements domain.ProductRepository.
var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetProduct returns a product with its price, discount and weight.
func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	const q = `
SELECT id, name, category, price, discount_price, weight_kg, location, vendor_id, vendor_name
FROM products
WHERE id = $1
`
	var (
		p                         domain.Product
		price, discount, weightKg pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, q, productID).Scan(
		&p.ID, &p.Name, &p.Category, &price, &discount, &weightKg, &p.Location, &p.VendorID, &p.VendorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("product.get", "product", productID)
		}
		return nil, domain.Internal(err, "product.get", "failed to load product")
	}

	p.Price = nullDecimal(price)
	p.DiscountPrice = nullDecimal(discount)
	p.WeightKg = nullDecimal(weightKg)
	return &p, nil
}

// GetVariant returns one variant of a product.
func (r *ProductRepository) GetVariant(ctx context.Context, productID, variantID string) (*domain.ProductVariant, error) {
	const q = `
SELECT id, name, price, in_stock
FROM product_variants
WHERE product_id = $1 AND id = $2
`
	var (
		v     domain.ProductVariant
		price pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, q, productID, variantID).Scan(&v.ID, &v.Name, &price, &v.InStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("product.variant", "variant", variantID)
		}
		return nil, domain.Internal(err, "product.variant", "failed to load variant")
	}

	v.Price = nullDecimal(price)
	return &v, nil
}
