package repository

import (
	"context"

	"dropngo/internal/domain"
)

// LocationRepository persists the last known position of each porter.
type LocationRepository interface {
	// Upsert writes the porter's location, replacing any previous row.
	Upsert(ctx context.Context, loc *domain.PorterLocation) error

	// GetByPorterID retrieves the last location of a porter.
	GetByPorterID(ctx context.Context, porterID string) (*domain.PorterLocation, error)

	// ListByPorterIDs retrieves the last locations of the given porters.
	// Porters without a stored location are omitted.
	ListByPorterIDs(ctx context.Context, porterIDs []string) ([]*domain.PorterLocation, error)

	// ListByStatus retrieves all porter locations with the given status.
	ListByStatus(ctx context.Context, status domain.PorterLocationStatus) ([]*domain.PorterLocation, error)
}
