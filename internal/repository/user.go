package repository

import (
	"context"

	"dropngo/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role         domain.Role
	Verification domain.VerificationStatus
	Search       string
}

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves users matching the filter, newest first.
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)

	// UpdateVerification sets the verification status of a user.
	UpdateVerification(ctx context.Context, id string, status domain.VerificationStatus) error

	// IncrementBookings bumps the user's booking counter by one.
	IncrementBookings(ctx context.Context, id string) error
}
