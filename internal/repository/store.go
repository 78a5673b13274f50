package repository

import "context"

// Store groups the repositories that can take part in one transaction.
type Store interface {
	Users() UserRepository
	Porters() PorterRepository
	Bookings() BookingRepository
}

// TxManager runs fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
type TxManager interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}
