package redis

import (
	"context"
	"time"

	"dropngo/internal/domain"
)

// LocationStoreInterface defines the interface for porter GEO operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, porterID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]GeoHit, error)
	RemoveLocation(ctx context.Context, porterID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID string) error
}

// RateCache defines the rate table cache operations.
type RateCache interface {
	GetRates(ctx context.Context) (*domain.RateTable, error)
	SetRates(ctx context.Context, table *domain.RateTable) error
	InvalidateRates(ctx context.Context) error
}

// PorterCache defines the porter card cache operations.
type PorterCache interface {
	SetPorter(ctx context.Context, porter *CachedPorter) error
	InvalidatePorter(ctx context.Context, porterID string) error
	GetPortersBatch(ctx context.Context, porterIDs []string) (map[string]*CachedPorter, []string, error)
}

// LocationBrokerInterface defines live location fan-out.
type LocationBrokerInterface interface {
	Publish(ctx context.Context, loc *domain.PorterLocation) error
	Subscribe(ctx context.Context, porterID string) (<-chan domain.PorterLocation, func())
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface  = (*LocationStore)(nil)
	_ LockStoreInterface      = (*LockStore)(nil)
	_ RateCache               = (*CacheStore)(nil)
	_ PorterCache             = (*CacheStore)(nil)
	_ LocationBrokerInterface = (*LocationBroker)(nil)
)
