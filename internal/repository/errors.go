package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("entity already exists")

	// ErrStaleWrite is returned when a conditional update finds the entity
	// no longer in the expected state.
	ErrStaleWrite = errors.New("entity changed concurrently")
)
