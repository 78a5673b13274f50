package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func bookingLockKey(bookingID string) string {
	return fmt.Sprintf("lock:booking:%s", bookingID)
}

// AcquireBookingLock attempts to take the assignment lock of a booking.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, bookingLockKey(bookingID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseBookingLock releases the assignment lock of a booking.
func (s *LockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, bookingLockKey(bookingID)).Err()
}
