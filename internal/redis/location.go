package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const porterLocationKey = "porters:locations"

// GeoHit is a porter found by a radius search.
type GeoHit struct {
	PorterID   string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore keeps the porter GEO index in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a porter's position using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, porterID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, porterLocationKey, &redis.GeoLocation{
		Name:      porterID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearby returns porters within radiusKm, closest first.
func (s *LocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]GeoHit, error) {
	results, err := s.client.GeoSearchLocation(ctx, porterLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	hits := make([]GeoHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, GeoHit{
			PorterID:   r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}
	return hits, nil
}

// RemoveLocation drops a porter from the GEO index.
func (s *LocationStore) RemoveLocation(ctx context.Context, porterID string) error {
	return s.client.ZRem(ctx, porterLocationKey, porterID).Err()
}
