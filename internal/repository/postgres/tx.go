package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"dropngo/internal/repository"
)

// TxManager implements repository.TxManager on top of *sql.DB.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTx runs fn in a transaction, committing on success.
func (m *TxManager) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txStore{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (s txStore) Users() repository.UserRepository {
	return NewUserRepositoryWithTx(s.tx)
}

func (s txStore) Porters() repository.PorterRepository {
	return NewPorterRepositoryWithTx(s.tx)
}

func (s txStore) Bookings() repository.BookingRepository {
	return NewBookingRepositoryWithTx(s.tx)
}

var (
	_ repository.TxManager          = (*TxManager)(nil)
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.PorterRepository   = (*PorterRepository)(nil)
	_ repository.BookingRepository  = (*BookingRepository)(nil)
	_ repository.PricingRepository  = (*PricingRepository)(nil)
	_ repository.LocationRepository = (*LocationRepository)(nil)
)
