package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"dropngo/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client   *redis.Client
	ratesTTL time.Duration
}

// NewCacheStore creates a new CacheStore. ratesTTL bounds how long a rate
// table is served from cache.
func NewCacheStore(client *redis.Client, ratesTTL time.Duration) *CacheStore {
	return &CacheStore{client: client, ratesTTL: ratesTTL}
}

// PorterCacheTTL bounds how stale porter card data can get.
const PorterCacheTTL = 30 * time.Second

const (
	ratesCacheKey     = "cache:pricing:rates"
	porterCachePrefix = "cache:porter:"
)

// CachedPorter is the porter data shown next to a live location.
type CachedPorter struct {
	ID                 string  `json:"id"`
	FullName           string  `json:"full_name"`
	Phone              string  `json:"phone"`
	Rating             float64 `json:"rating"`
	VehicleType        string  `json:"vehicle_type"`
	IsAvailable        bool    `json:"is_available"`
	VerificationStatus string  `json:"verification_status"`
}

// GetRates returns the cached rate table, or nil on a cache miss.
func (s *CacheStore) GetRates(ctx context.Context) (*domain.RateTable, error) {
	data, err := s.client.Get(ctx, ratesCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var table domain.RateTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// SetRates caches the rate table.
func (s *CacheStore) SetRates(ctx context.Context, table *domain.RateTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, ratesCacheKey, data, s.ratesTTL).Err()
}

// InvalidateRates removes the cached rate table.
func (s *CacheStore) InvalidateRates(ctx context.Context) error {
	return s.client.Del(ctx, ratesCacheKey).Err()
}

// SetPorter caches porter card data.
func (s *CacheStore) SetPorter(ctx context.Context, porter *CachedPorter) error {
	data, err := json.Marshal(porter)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, porterCachePrefix+porter.ID, data, PorterCacheTTL).Err()
}

// InvalidatePorter removes a porter from cache.
func (s *CacheStore) InvalidatePorter(ctx context.Context, porterID string) error {
	return s.client.Del(ctx, porterCachePrefix+porterID).Err()
}

// GetPortersBatch retrieves multiple porters in one pipeline. It returns the
// cached porters by ID and the IDs that missed.
func (s *CacheStore) GetPortersBatch(ctx context.Context, porterIDs []string) (map[string]*CachedPorter, []string, error) {
	result := make(map[string]*CachedPorter, len(porterIDs))
	if len(porterIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(porterIDs))
	for _, id := range porterIDs {
		cmds[id] = pipe.Get(ctx, porterCachePrefix+id)
	}

	// Exec reports redis.Nil when any key is missing; per-command errors are
	// inspected below.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for _, id := range porterIDs {
		data, err := cmds[id].Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var porter CachedPorter
		if err := json.Unmarshal(data, &porter); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &porter
	}
	return result, missing, nil
}
