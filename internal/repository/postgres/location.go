package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"dropngo/internal/domain"
)

// LocationRepository is a PostgreSQL implementation of repository.LocationRepository.
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Upsert writes the porter's location. There is exactly one row per porter.
func (r *LocationRepository) Upsert(ctx context.Context, loc *domain.PorterLocation) error {
	query := `
		INSERT INTO porter_locations (porter_id, latitude, longitude, address, booking_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (porter_id) DO UPDATE
		SET latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			booking_id = EXCLUDED.booking_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		loc.PorterID,
		loc.Lat,
		loc.Lng,
		nullString(loc.Address),
		nullString(loc.BookingID),
		loc.Status,
		loc.UpdatedAt,
	)
	return translateError(err)
}

// GetByPorterID retrieves the last location of a porter.
func (r *LocationRepository) GetByPorterID(ctx context.Context, porterID string) (*domain.PorterLocation, error) {
	query := `
		SELECT porter_id, latitude, longitude, COALESCE(address, ''), COALESCE(booking_id::text, ''), status, updated_at
		FROM porter_locations
		WHERE porter_id = $1`
	return scanLocation(r.db.QueryRowContext(ctx, query, porterID))
}

// ListByPorterIDs retrieves the last locations of the given porters.
func (r *LocationRepository) ListByPorterIDs(ctx context.Context, porterIDs []string) ([]*domain.PorterLocation, error) {
	if len(porterIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT porter_id, latitude, longitude, COALESCE(address, ''), COALESCE(booking_id::text, ''), status, updated_at
		FROM porter_locations
		WHERE porter_id = ANY($1::uuid[])`
	return r.list(ctx, query, pq.Array(porterIDs))
}

// ListByStatus retrieves all porter locations with the given status.
func (r *LocationRepository) ListByStatus(ctx context.Context, status domain.PorterLocationStatus) ([]*domain.PorterLocation, error) {
	query := `
		SELECT porter_id, latitude, longitude, COALESCE(address, ''), COALESCE(booking_id::text, ''), status, updated_at
		FROM porter_locations
		WHERE status = $1`
	return r.list(ctx, query, status)
}

func (r *LocationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.PorterLocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PorterLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func scanLocation(row rowScanner) (*domain.PorterLocation, error) {
	var loc domain.PorterLocation
	if err := row.Scan(&loc.PorterID, &loc.Lat, &loc.Lng, &loc.Address, &loc.BookingID, &loc.Status, &loc.UpdatedAt); err != nil {
		return nil, translateError(err)
	}
	return &loc, nil
}
