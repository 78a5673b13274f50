package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"dropngo/internal/domain"
)

// PricingRepository is a PostgreSQL implementation of repository.PricingRepository.
type PricingRepository struct {
	db *sql.DB
}

// NewPricingRepository creates a new PostgreSQL pricing repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// List returns all pricing rows ordered by service type and size.
func (r *PricingRepository) List(ctx context.Context) ([]domain.Pricing, error) {
	query := `
		SELECT id, service_type, luggage_size, price_per_hour, base_pickup_fee, per_km_fee, updated_at
		FROM pricing
		ORDER BY service_type, price_per_hour`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Pricing
	for rows.Next() {
		var p domain.Pricing
		if err := rows.Scan(&p.ID, &p.ServiceType, &p.LuggageSize, &p.PricePerHour,
			&p.BasePickupFee, &p.PerKmFee, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces pricing rows in one transaction.
func (r *PricingRepository) Upsert(ctx context.Context, rows []domain.Pricing) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO pricing (id, service_type, luggage_size, price_per_hour, base_pickup_fee, per_km_fee, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (service_type, luggage_size) DO UPDATE
		SET price_per_hour = EXCLUDED.price_per_hour,
			base_pickup_fee = EXCLUDED.base_pickup_fee,
			per_km_fee = EXCLUDED.per_km_fee,
			updated_at = EXCLUDED.updated_at`

	for _, p := range rows {
		if _, err = tx.ExecContext(ctx, query,
			p.ID, p.ServiceType, p.LuggageSize, p.PricePerHour, p.BasePickupFee, p.PerKmFee, p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert pricing %s/%s: %w", p.ServiceType, p.LuggageSize, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pricing: %w", err)
	}
	return nil
}
