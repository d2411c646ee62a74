package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/souk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AddressRepository implements domain.AddressRepository using PostgreSQL.
// The checkout reads addresses; it never writes them.
type AddressRepository struct {
	pool *pgxpool.Pool
}

var _ domain.AddressRepository = (*AddressRepository)(nil)

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

const addressColumns = `id::text, type, name, street, city, state, country, phone, is_default, lat, lng`

// GetAddress returns an address owned by userID.
func (r *AddressRepository) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`

	addr, err := scanAddress(r.pool.QueryRow(ctx, q, userID, addressID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("address.get", "address", addressID)
		}
		return nil, domain.Internal(err, "address.get", "failed to load address")
	}
	return addr, nil
}

// ListAddresses returns a user's addresses, default first.
func (r *AddressRepository) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, domain.Internal(err, "address.list", "failed to list addresses")
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, domain.Internal(err, "address.list", "failed to read address")
		}
		out = append(out, *addr)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "address.list", "failed to list addresses")
	}
	return out, nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var (
		a        domain.Address
		typ      string
		lat, lng pgtype.Float8
	)
	if err := row.Scan(&a.ID, &typ, &a.Name, &a.Street, &a.City, &a.State, &a.Country, &a.Phone, &a.IsDefault, &lat, &lng); err != nil {
		return nil, err
	}
	a.Type = domain.AddressType(typ)
	if lat.Valid && lng.Valid {
		a.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &a, nil
}
