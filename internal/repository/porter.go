package repository

import (
	"context"

	"dropngo/internal/domain"
)

// PorterRepository defines the persistence operations for porter profiles.
type PorterRepository interface {
	// CreateProfile persists a porter profile.
	CreateProfile(ctx context.Context, profile *domain.PorterProfile) error

	// GetByUserID retrieves the porter (user + profile) for a user ID.
	GetByUserID(ctx context.Context, userID string) (*domain.Porter, error)

	// List retrieves porters matching the filter.
	List(ctx context.Context, filter UserFilter) ([]*domain.Porter, error)

	// SetAvailability toggles whether the porter accepts new bookings.
	SetAvailability(ctx context.Context, userID string, available bool) error

	// AddEarnings credits the porter's total earnings.
	AddEarnings(ctx context.Context, userID string, amount float64) error

	// AddDocument stores an onboarding document.
	AddDocument(ctx context.Context, doc *domain.PorterDocument) error

	// ListDocuments returns the onboarding documents of a porter.
	ListDocuments(ctx context.Context, userID string) ([]*domain.PorterDocument, error)
}
