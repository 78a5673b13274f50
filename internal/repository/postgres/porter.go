package postgres

import (
	"context"
	"database/sql"

	"dropngo/internal/domain"
	"dropngo/internal/repository"
)

// PorterRepository is a PostgreSQL implementation of repository.PorterRepository.
type PorterRepository struct {
	q Querier
}

// NewPorterRepository creates a new PostgreSQL porter repository.
func NewPorterRepository(db *sql.DB) *PorterRepository {
	return &PorterRepository{q: db}
}

// NewPorterRepositoryWithTx creates a porter repository using a transaction.
func NewPorterRepositoryWithTx(tx *sql.Tx) *PorterRepository {
	return &PorterRepository{q: tx}
}

const porterColumns = `u.id, u.email, u.phone, u.full_name, u.role, u.password_hash,
	COALESCE(u.address, ''), COALESCE(u.city, ''), u.verification_status, u.is_active,
	u.rating, u.total_bookings, u.created_at, u.updated_at,
	p.id, p.user_id, p.license_number, p.vehicle_type, p.vehicle_number, p.is_available,
	p.commission_rate, p.total_earnings, p.created_at, p.updated_at`

// CreateProfile persists a porter profile.
func (r *PorterRepository) CreateProfile(ctx context.Context, profile *domain.PorterProfile) error {
	query := `
		INSERT INTO porter_profiles (id, user_id, license_number, vehicle_type, vehicle_number,
			is_available, commission_rate, total_earnings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	_, err := r.q.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.LicenseNumber,
		profile.VehicleType,
		profile.VehicleNumber,
		profile.IsAvailable,
		profile.CommissionRate,
		profile.TotalEarnings,
		profile.CreatedAt,
	)
	return translateError(err)
}

// GetByUserID retrieves the porter (user and profile) for a user ID.
func (r *PorterRepository) GetByUserID(ctx context.Context, userID string) (*domain.Porter, error) {
	query := `SELECT ` + porterColumns + `
		FROM users u JOIN porter_profiles p ON p.user_id = u.id
		WHERE u.id = $1`
	return scanPorter(r.q.QueryRowContext(ctx, query, userID))
}

// List retrieves porters matching the filter, newest first.
func (r *PorterRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.Porter, error) {
	filter.Role = domain.RolePorter
	where, args := userWhere(filter, "u.")
	query := `SELECT ` + porterColumns + `
		FROM users u JOIN porter_profiles p ON p.user_id = u.id` + where + `
		ORDER BY u.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var porters []*domain.Porter
	for rows.Next() {
		porter, err := scanPorter(rows)
		if err != nil {
			return nil, err
		}
		porters = append(porters, porter)
	}
	return porters, rows.Err()
}

// SetAvailability toggles whether the porter accepts new bookings.
func (r *PorterRepository) SetAvailability(ctx context.Context, userID string, available bool) error {
	query := `UPDATE porter_profiles SET is_available = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.q.ExecContext(ctx, query, available, userID)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// AddEarnings credits amount to the porter's total earnings.
func (r *PorterRepository) AddEarnings(ctx context.Context, userID string, amount float64) error {
	query := `UPDATE porter_profiles SET total_earnings = total_earnings + $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.q.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// AddDocument stores an onboarding document.
func (r *PorterRepository) AddDocument(ctx context.Context, doc *domain.PorterDocument) error {
	query := `INSERT INTO porter_documents (id, user_id, doc_type, url, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, doc.ID, doc.UserID, doc.Type, doc.URL, doc.CreatedAt)
	return translateError(err)
}

// ListDocuments returns the onboarding documents of a porter.
func (r *PorterRepository) ListDocuments(ctx context.Context, userID string) ([]*domain.PorterDocument, error) {
	query := `SELECT id, user_id, doc_type, url, created_at FROM porter_documents WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.PorterDocument
	for rows.Next() {
		var doc domain.PorterDocument
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Type, &doc.URL, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func scanPorter(row rowScanner) (*domain.Porter, error) {
	var p domain.Porter
	err := row.Scan(
		&p.User.ID,
		&p.User.Email,
		&p.User.Phone,
		&p.User.FullName,
		&p.User.Role,
		&p.User.PasswordHash,
		&p.User.Address,
		&p.User.City,
		&p.User.VerificationStatus,
		&p.User.IsActive,
		&p.User.Rating,
		&p.User.TotalBookings,
		&p.User.CreatedAt,
		&p.User.UpdatedAt,
		&p.Profile.ID,
		&p.Profile.UserID,
		&p.Profile.LicenseNumber,
		&p.Profile.VehicleType,
		&p.Profile.VehicleNumber,
		&p.Profile.IsAvailable,
		&p.Profile.CommissionRate,
		&p.Profile.TotalEarnings,
		&p.Profile.CreatedAt,
		&p.Profile.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}
