package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dropngo/internal/domain"
	"dropngo/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `id, booking_number, user_id, porter_id, service_type,
	pickup_location, delivery_location, pickup_lat, pickup_lng, delivery_lat, delivery_lng,
	storage_hours, status, total_amount, storage_fee, delivery_fee, insurance_fee,
	distance_km, porter_commission, pickup_time, delivery_time,
	actual_pickup_time, actual_delivery_time, otp,
	special_instructions, cancel_reason, created_at, updated_at`

// defaultListLimit caps admin listings when no limit is given.
const defaultListLimit = 200

// Create persists a booking with its luggage items and photos. Callers that
// need atomicity run it through a transaction-bound repository.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_number, user_id, porter_id, service_type,
			pickup_location, delivery_location, pickup_lat, pickup_lng, delivery_lat, delivery_lng,
			storage_hours, status, total_amount, storage_fee, delivery_fee, insurance_fee,
			distance_km, porter_commission, pickup_time, delivery_time, otp,
			special_instructions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $24)`

	_, err := r.q.ExecContext(ctx, query,
		b.ID,
		b.BookingNumber,
		b.UserID,
		nullString(b.PorterID),
		b.ServiceType,
		b.PickupLocation,
		b.DeliveryLocation,
		nullFloat(b.PickupLat),
		nullFloat(b.PickupLng),
		nullFloat(b.DeliveryLat),
		nullFloat(b.DeliveryLng),
		b.StorageHours,
		b.Status,
		b.TotalAmount,
		b.StorageFee,
		b.DeliveryFee,
		b.InsuranceFee,
		b.DistanceKm,
		b.PorterCommission,
		b.PickupTime,
		b.DeliveryTime,
		b.OTP,
		nullString(b.SpecialInstructions),
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", translateError(err))
	}

	for i := range b.Items {
		item := &b.Items[i]
		item.BookingID = b.ID
		query := `
			INSERT INTO luggage_items (id, booking_id, luggage_size, quantity, price_per_hour, total_price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := r.q.ExecContext(ctx, query,
			item.ID, item.BookingID, item.LuggageSize, item.Quantity, item.PricePerHour, item.TotalPrice, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert luggage item: %w", translateError(err))
		}
	}

	for i := range b.Photos {
		b.Photos[i].BookingID = b.ID
		if err := r.AddPhoto(ctx, &b.Photos[i]); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a booking with its items and photos.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByNumber retrieves a booking by its booking number.
func (r *BookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = $1`
	return r.getOne(ctx, query, number)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser retrieves a customer's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByPorter retrieves a porter's bookings, newest first.
func (r *BookingRepository) ListByPorter(ctx context.Context, porterID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE porter_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, porterID)
}

// List retrieves bookings matching the filter, newest first.
func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	var conds []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, likePattern(term))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(booking_number ILIKE $%d OR pickup_location ILIKE $%d OR delivery_location ILIKE $%d)", n, n, n))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	return r.list(ctx, query, args...)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, b := range bookings {
		if err := r.loadChildren(ctx, b); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// Update updates the mutable fields of a booking whose stored status is
// still expected.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET porter_id = $1, status = $2, porter_commission = $3,
			actual_pickup_time = $4, actual_delivery_time = $5,
			cancel_reason = $6, updated_at = $7
		WHERE id = $8 AND status = $9`

	result, err := r.q.ExecContext(ctx, query,
		nullString(b.PorterID),
		b.Status,
		b.PorterCommission,
		nullTime(b.ActualPickupTime),
		nullTime(b.ActualDeliveryTime),
		nullString(b.CancelReason),
		b.UpdatedAt,
		b.ID,
		expected,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStaleWrite
}

// AddPhoto attaches a luggage photo to a booking.
func (r *BookingRepository) AddPhoto(ctx context.Context, photo *domain.LuggagePhoto) error {
	query := `
		INSERT INTO luggage_photos (id, booking_id, photo_url, photo_type, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query,
		photo.ID, photo.BookingID, photo.PhotoURL, photo.PhotoType, nullString(photo.UploadedBy), photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert luggage photo: %w", translateError(err))
	}
	return nil
}

// Stats aggregates bookings for the admin dashboard.
func (r *BookingRepository) Stats(ctx context.Context) (*domain.BookingStats, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(porter_commission), 0)
		FROM bookings
		GROUP BY status`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.BookingStats{ByStatus: make(map[domain.BookingStatus]int)}
	for rows.Next() {
		var (
			status     domain.BookingStatus
			count      int
			total      float64
			commission float64
		)
		if err := rows.Scan(&status, &count, &total, &commission); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalBookings += count
		switch status {
		case domain.BookingStatusDelivered:
			stats.Revenue += total
			stats.Commission += commission
		case domain.BookingStatusCancelled:
		default:
			stats.PendingRevenue += total
		}
	}
	return stats, rows.Err()
}

func (r *BookingRepository) loadChildren(ctx context.Context, b *domain.Booking) error {
	itemRows, err := r.q.QueryContext(ctx, `
		SELECT id, booking_id, luggage_size, quantity, price_per_hour, total_price, created_at
		FROM luggage_items WHERE booking_id = $1 ORDER BY created_at, id`, b.ID)
	if err != nil {
		return err
	}
	for itemRows.Next() {
		var it domain.LuggageItem
		if err := itemRows.Scan(&it.ID, &it.BookingID, &it.LuggageSize, &it.Quantity,
			&it.PricePerHour, &it.TotalPrice, &it.CreatedAt); err != nil {
			itemRows.Close()
			return err
		}
		b.Items = append(b.Items, it)
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return err
	}

	photoRows, err := r.q.QueryContext(ctx, `
		SELECT id, booking_id, photo_url, photo_type, COALESCE(uploaded_by::text, ''), created_at
		FROM luggage_photos WHERE booking_id = $1 ORDER BY created_at, id`, b.ID)
	if err != nil {
		return err
	}
	defer photoRows.Close()
	for photoRows.Next() {
		var p domain.LuggagePhoto
		if err := photoRows.Scan(&p.ID, &p.BookingID, &p.PhotoURL, &p.PhotoType, &p.UploadedBy, &p.CreatedAt); err != nil {
			return err
		}
		b.Photos = append(b.Photos, p)
	}
	return photoRows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b                                 domain.Booking
		porterID                          sql.NullString
		pickupLat, pickupLng              sql.NullFloat64
		deliveryLat, deliveryLng          sql.NullFloat64
		actualPickup, actualDelivery      sql.NullTime
		specialInstructions, cancelReason sql.NullString
	)

	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.UserID,
		&porterID,
		&b.ServiceType,
		&b.PickupLocation,
		&b.DeliveryLocation,
		&pickupLat,
		&pickupLng,
		&deliveryLat,
		&deliveryLng,
		&b.StorageHours,
		&b.Status,
		&b.TotalAmount,
		&b.StorageFee,
		&b.DeliveryFee,
		&b.InsuranceFee,
		&b.DistanceKm,
		&b.PorterCommission,
		&b.PickupTime,
		&b.DeliveryTime,
		&actualPickup,
		&actualDelivery,
		&b.OTP,
		&specialInstructions,
		&cancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	b.PorterID = porterID.String
	b.PickupLat = floatPtr(pickupLat)
	b.PickupLng = floatPtr(pickupLng)
	b.DeliveryLat = floatPtr(deliveryLat)
	b.DeliveryLng = floatPtr(deliveryLng)
	if actualPickup.Valid {
		b.ActualPickupTime = actualPickup.Time
	}
	if actualDelivery.Valid {
		b.ActualDeliveryTime = actualDelivery.Time
	}
	b.SpecialInstructions = specialInstructions.String
	b.CancelReason = cancelReason.String

	return &b, nil
}
