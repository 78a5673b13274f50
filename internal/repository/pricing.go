package repository

import (
	"context"

	"dropngo/internal/domain"
)

// PricingRepository defines the persistence operations for pricing rows.
type PricingRepository interface {
	// List returns all pricing rows.
	List(ctx context.Context) ([]domain.Pricing, error)

	// Upsert inserts or replaces pricing rows keyed by service type and size.
	Upsert(ctx context.Context, rows []domain.Pricing) error
}
