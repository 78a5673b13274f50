package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/geo"
	"dropngo/internal/logger"
	"dropngo/internal/metrics"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
)

// LocationService records porter positions and answers proximity queries.
type LocationService struct {
	locationRepo    repository.LocationRepository
	porterRepo      repository.PorterRepository
	geoStore        redis.LocationStoreInterface
	porterCache     redis.PorterCache
	broker          redis.LocationBrokerInterface
	geocoder        Geocoder
	defaultRadiusKm float64
	log             logger.ILogger
	now             func() time.Time
}

// NewLocationService creates a new LocationService. geoStore, porterCache,
// broker and geocoder may be nil.
func NewLocationService(
	locationRepo repository.LocationRepository,
	porterRepo repository.PorterRepository,
	geoStore redis.LocationStoreInterface,
	porterCache redis.PorterCache,
	broker redis.LocationBrokerInterface,
	geocoder Geocoder,
	defaultRadiusKm float64,
	log logger.ILogger,
) *LocationService {
	return &LocationService{
		locationRepo:    locationRepo,
		porterRepo:      porterRepo,
		geoStore:        geoStore,
		porterCache:     porterCache,
		broker:          broker,
		geocoder:        geocoder,
		defaultRadiusKm: defaultRadiusKm,
		log:             log,
		now:             time.Now,
	}
}

// UpdateLocationRequest contains the parameters for a porter location report.
type UpdateLocationRequest struct {
	PorterID  string
	Lat       float64
	Lng       float64
	Address   string
	BookingID string
	Status    domain.PorterLocationStatus
}

// UpdatePorterLocation stores the porter's latest position, keeps the GEO
// index in sync and publishes the update to live subscribers.
func (s *LocationService) UpdatePorterLocation(ctx context.Context, req UpdateLocationRequest) (*domain.PorterLocation, error) {
	if req.PorterID == "" {
		return nil, ErrInvalidPorterID
	}
	if !geo.ValidLatitude(req.Lat) || !geo.ValidLongitude(req.Lng) {
		return nil, ErrInvalidLocation
	}

	status := req.Status
	if status == "" {
		status = domain.PorterAvailable
	}
	if !domain.ValidPorterLocationStatus(status) {
		return nil, ErrInvalidLocationStatus
	}

	address := strings.TrimSpace(req.Address)
	if address == "" && s.geocoder != nil {
		resolved, err := s.geocoder.ReverseGeocode(ctx, req.Lat, req.Lng)
		if err != nil {
			s.log.Warning("reverse geocoding failed", logger.String("porter_id", req.PorterID), logger.Error(err))
		} else {
			address = resolved
		}
	}

	loc := &domain.PorterLocation{
		PorterID:  req.PorterID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Address:   address,
		BookingID: req.BookingID,
		Status:    status,
		UpdatedAt: s.now(),
	}

	if err := s.locationRepo.Upsert(ctx, loc); err != nil {
		return nil, fmt.Errorf("save porter location: %w", err)
	}

	if s.geoStore != nil {
		var err error
		if status == domain.PorterAvailable {
			err = s.geoStore.UpdateLocation(ctx, loc.PorterID, loc.Lat, loc.Lng)
		} else {
			err = s.geoStore.RemoveLocation(ctx, loc.PorterID)
		}
		if err != nil {
			s.log.Warning("geo index update failed", logger.String("porter_id", loc.PorterID), logger.Error(err))
		}
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, loc); err != nil {
			s.log.Warning("location publish failed", logger.String("porter_id", loc.PorterID), logger.Error(err))
		}
	}

	metrics.IncLocationReport(string(status))
	return loc, nil
}

// GetPorterLocation returns the last reported position of a porter.
func (s *LocationService) GetPorterLocation(ctx context.Context, porterID string) (*domain.PorterLocation, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	return s.locationRepo.GetByPorterID(ctx, porterID)
}

// NearbyPorters returns available porters with available profiles within
// radiusKm of the point, closest first. A non-positive radius uses the default.
func (s *LocationService) NearbyPorters(ctx context.Context, lat, lng, radiusKm float64) ([]domain.NearbyPorter, error) {
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	candidates, err := s.candidates(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.NearbyPorter{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PorterID
	}
	cards := s.porterCards(ctx, ids)

	nearby := make([]domain.NearbyPorter, 0, len(candidates))
	for _, c := range candidates {
		card, ok := cards[c.PorterID]
		if !ok || !card.IsAvailable || card.VerificationStatus != string(domain.VerificationVerified) {
			continue
		}
		nearby = append(nearby, domain.NearbyPorter{
			PorterLocation: c.PorterLocation,
			DistanceKm:     c.DistanceKm,
			FullName:       card.FullName,
			Phone:          card.Phone,
			Rating:         card.Rating,
			VehicleType:    card.VehicleType,
		})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

type candidate struct {
	domain.PorterLocation
	DistanceKm float64
}

// candidates lists available porter positions within the radius. The Redis
// GEO index is used when present, the location table otherwise.
func (s *LocationService) candidates(ctx context.Context, lat, lng, radiusKm float64) ([]candidate, error) {
	var out []candidate

	if s.geoStore != nil {
		hits, err := s.geoStore.FindNearby(ctx, lat, lng, radiusKm)
		if err == nil {
			rows := s.storedLocations(ctx, hits)
			for _, h := range hits {
				loc := domain.PorterLocation{
					PorterID: h.PorterID,
					Lat:      h.Lat,
					Lng:      h.Lng,
					Status:   domain.PorterAvailable,
				}
				if row, ok := rows[h.PorterID]; ok {
					loc.Address = row.Address
					loc.BookingID = row.BookingID
					loc.UpdatedAt = row.UpdatedAt
				}
				out = append(out, candidate{
					PorterLocation: loc,
					DistanceKm:     geo.DistanceKm(lat, lng, h.Lat, h.Lng),
				})
			}
			return out, nil
		}
		s.log.Warning("geo search failed, falling back to database", logger.Error(err))
	}

	locations, err := s.locationRepo.ListByStatus(ctx, domain.PorterAvailable)
	if err != nil {
		return nil, err
	}
	for _, loc := range locations {
		d := geo.DistanceKm(lat, lng, loc.Lat, loc.Lng)
		if d > radiusKm {
			continue
		}
		out = append(out, candidate{PorterLocation: *loc, DistanceKm: d})
	}
	return out, nil
}

// storedLocations loads the location rows behind GEO hits. A failed read
// leaves the hits without address and timestamp.
func (s *LocationService) storedLocations(ctx context.Context, hits []redis.GeoHit) map[string]*domain.PorterLocation {
	rows := make(map[string]*domain.PorterLocation, len(hits))
	if len(hits) == 0 {
		return rows
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.PorterID
	}
	locations, err := s.locationRepo.ListByPorterIDs(ctx, ids)
	if err != nil {
		s.log.Warning("porter location read failed", logger.Error(err))
		return rows
	}
	for _, loc := range locations {
		rows[loc.PorterID] = loc
	}
	return rows
}

// porterCards resolves display data for porters, cache first.
func (s *LocationService) porterCards(ctx context.Context, ids []string) map[string]*redis.CachedPorter {
	cards := make(map[string]*redis.CachedPorter, len(ids))
	missing := ids

	if s.porterCache != nil {
		cached, miss, err := s.porterCache.GetPortersBatch(ctx, ids)
		if err != nil {
			s.log.Warning("porter cache read failed", logger.Error(err))
		} else {
			cards = cached
			missing = miss
		}
	}

	for _, id := range missing {
		porter, err := s.porterRepo.GetByUserID(ctx, id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.log.Warning("porter lookup failed", logger.String("porter_id", id), logger.Error(err))
			}
			continue
		}
		card := PorterCard(porter)
		cards[id] = card
		if s.porterCache != nil {
			if err := s.porterCache.SetPorter(ctx, card); err != nil {
				s.log.Warning("porter cache write failed", logger.String("porter_id", id), logger.Error(err))
			}
		}
	}
	return cards
}

// PorterCard converts a porter into its cached display form.
func PorterCard(p *domain.Porter) *redis.CachedPorter {
	return &redis.CachedPorter{
		ID:                 p.User.ID,
		FullName:           p.User.FullName,
		Phone:              p.User.Phone,
		Rating:             p.User.Rating,
		VehicleType:        p.Profile.VehicleType,
		IsAvailable:        p.Profile.IsAvailable,
		VerificationStatus: string(p.User.VerificationStatus),
	}
}

// Subscribe streams live location updates of one porter until ctx is done
// or the returned cancel func is called.
func (s *LocationService) Subscribe(ctx context.Context, porterID string) (<-chan domain.PorterLocation, func(), error) {
	if porterID == "" {
		return nil, nil, ErrInvalidPorterID
	}
	if s.broker == nil {
		return nil, nil, ErrLiveTrackingUnavailable
	}
	ch, cancel := s.broker.Subscribe(ctx, porterID)
	return ch, cancel, nil
}

// Geocode resolves an address to coordinates.
func (s *LocationService) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if s.geocoder == nil {
		return 0, 0, ErrGeocoderUnavailable
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, ErrInvalidLocation
	}
	return s.geocoder.Geocode(ctx, address)
}

// ReverseGeocode resolves coordinates to a formatted address.
func (s *LocationService) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if s.geocoder == nil {
		return "", ErrGeocoderUnavailable
	}
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return "", ErrInvalidLocation
	}
	return s.geocoder.ReverseGeocode(ctx, lat, lng)
}
