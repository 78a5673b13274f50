package repository

import (
	"context"

	"dropngo/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking together with its items and photos.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking with items and photos.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByNumber retrieves a booking by its public booking number.
	GetByNumber(ctx context.Context, number string) (*domain.Booking, error)

	// ListByUser retrieves a customer's bookings, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)

	// ListByPorter retrieves a porter's bookings, newest first.
	ListByPorter(ctx context.Context, porterID string) ([]*domain.Booking, error)

	// List retrieves bookings matching the filter, newest first.
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)

	// Update updates the mutable fields of an existing booking, provided its
	// stored status still equals expected. Otherwise it returns ErrStaleWrite.
	Update(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error

	// AddPhoto attaches a luggage photo to a booking.
	AddPhoto(ctx context.Context, photo *domain.LuggagePhoto) error

	// Stats aggregates bookings for the admin dashboard.
	Stats(ctx context.Context) (*domain.BookingStats, error)
}
