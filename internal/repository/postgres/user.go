package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dropngo/internal/domain"
	"dropngo/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, email, phone, full_name, role, password_hash,
	COALESCE(address, ''), COALESCE(city, ''), verification_status, is_active,
	rating, total_bookings, created_at, updated_at`

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, phone, full_name, role, password_hash, address, city,
			verification_status, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.Phone,
		user.FullName,
		user.Role,
		user.PasswordHash,
		nullString(user.Address),
		nullString(user.City),
		user.VerificationStatus,
		user.IsActive,
		user.CreatedAt,
	)
	return translateError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.q.QueryRowContext(ctx, query, email))
}

// List retrieves users matching the filter, newest first.
func (r *UserRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	where, args := userWhere(filter, "")
	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateVerification sets the verification status of a user.
func (r *UserRepository) UpdateVerification(ctx context.Context, id string, status domain.VerificationStatus) error {
	query := `UPDATE users SET verification_status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// IncrementBookings bumps the booking counter of a user.
func (r *UserRepository) IncrementBookings(ctx context.Context, id string) error {
	query := `UPDATE users SET total_bookings = total_bookings + 1, updated_at = NOW() WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.FullName,
		&user.Role,
		&user.PasswordHash,
		&user.Address,
		&user.City,
		&user.VerificationStatus,
		&user.IsActive,
		&user.Rating,
		&user.TotalBookings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// userWhere builds the WHERE clause for a user filter. prefix qualifies the
// users table when it is joined.
func userWhere(filter repository.UserFilter, prefix string) (string, []any) {
	var conds []string
	var args []any

	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("%srole = $%d", prefix, len(args)))
	}
	if filter.Verification != "" {
		args = append(args, filter.Verification)
		conds = append(conds, fmt.Sprintf("%sverification_status = $%d", prefix, len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, likePattern(term))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(%sfull_name ILIKE $%d OR %semail ILIKE $%d OR %sphone ILIKE $%d)",
			prefix, n, prefix, n, prefix, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
