package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dropngo/internal/config"
	"dropngo/internal/domain"
	"dropngo/internal/geo"
	"dropngo/internal/logger"
	"dropngo/internal/metrics"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
)

// Distance sources reported on a quote.
const (
	DistanceExplicit    = "explicit"
	DistanceCoordinates = "coordinates"
	DistanceGeocoded    = "geocoded"
	DistanceDefault     = "default"
)

// QuoteRequest is the input of CalculateQuote.
type QuoteRequest struct {
	Items        map[domain.LuggageSize]int
	StorageHours int
	DistanceKm   float64
	Insurance    bool
}

// QuoteLine is the storage cost of one luggage size.
type QuoteLine struct {
	LuggageSize  domain.LuggageSize `json:"luggage_size"`
	Quantity     int                `json:"quantity"`
	PricePerHour float64            `json:"price_per_hour"`
	Total        float64            `json:"total"`
}

// Quote is a priced booking.
type Quote struct {
	Items          []QuoteLine `json:"items"`
	Hours          int         `json:"hours"`
	DistanceKm     float64     `json:"distance_km"`
	DistanceSource string      `json:"distance_source,omitempty"`
	Storage        float64     `json:"storage"`
	Delivery       float64     `json:"delivery"`
	Insurance      float64     `json:"insurance"`
	Total          float64     `json:"total"`

	// route carries coordinates resolved while pricing.
	route Route
}

// DefaultRateTable builds the fallback rate table from configuration.
func DefaultRateTable(cfg config.PricingConfig) domain.RateTable {
	return domain.RateTable{
		Rates: map[domain.LuggageSize]float64{
			domain.LuggageSmall:      cfg.SmallRate,
			domain.LuggageMedium:     cfg.MediumRate,
			domain.LuggageLarge:      cfg.LargeRate,
			domain.LuggageExtraLarge: cfg.ExtraLargeRate,
		},
		BasePickupFee: cfg.BasePickupFee,
		PerKmFee:      cfg.PerKmFee,
		InsuranceFee:  cfg.InsuranceFee,
	}
}

// CalculateQuote prices a booking:
//
//	storage  = sum(quantity * hours * rate(size))
//	delivery = base pickup fee + distance * per km fee
//	total    = storage + delivery + insurance
//
// Every amount is rounded to cents and total is the sum of the rounded parts.
func CalculateQuote(table domain.RateTable, req QuoteRequest) (Quote, error) {
	if req.StorageHours < 1 {
		return Quote{}, ErrInvalidStorageHours
	}
	if req.DistanceKm < 0 {
		return Quote{}, ErrInvalidDistance
	}

	bags := 0
	for size, qty := range req.Items {
		if _, ok := table.Rates[size]; !ok {
			return Quote{}, fmt.Errorf("%w: %q", ErrUnknownLuggageSize, size)
		}
		if qty < 0 {
			return Quote{}, fmt.Errorf("%w: %s=%d", ErrInvalidQuantity, size, qty)
		}
		bags += qty
	}
	if bags == 0 {
		return Quote{}, ErrNoLuggage
	}

	q := Quote{
		Hours:      req.StorageHours,
		DistanceKm: roundMoney(req.DistanceKm),
	}

	var storage float64
	for _, size := range domain.LuggageSizes {
		qty := req.Items[size]
		if qty == 0 {
			continue
		}
		rate := table.Rates[size]
		line := float64(qty) * float64(req.StorageHours) * rate
		storage += line
		q.Items = append(q.Items, QuoteLine{
			LuggageSize:  size,
			Quantity:     qty,
			PricePerHour: rate,
			Total:        roundMoney(line),
		})
	}

	q.Storage = roundMoney(storage)
	q.Delivery = roundMoney(table.BasePickupFee + req.DistanceKm*table.PerKmFee)
	if req.Insurance {
		q.Insurance = roundMoney(table.InsuranceFee)
	}
	q.Total = roundMoney(q.Storage + q.Delivery + q.Insurance)

	return q, nil
}

// Geocoder resolves addresses to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (float64, float64, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Route is the pickup and delivery of a booking. Coordinates are optional.
type Route struct {
	PickupAddress   string
	DeliveryAddress string
	PickupLat       *float64
	PickupLng       *float64
	DeliveryLat     *float64
	DeliveryLng     *float64
}

func (r Route) hasPickupCoords() bool {
	return r.PickupLat != nil && r.PickupLng != nil
}

func (r Route) hasDeliveryCoords() bool {
	return r.DeliveryLat != nil && r.DeliveryLng != nil
}

// PriceRequest is the input of PricingService.Quote.
type PriceRequest struct {
	Items        map[domain.LuggageSize]int
	StorageHours int
	Insurance    bool
	// DistanceKm, when set, overrides any distance derived from Route.
	DistanceKm *float64
	Route      Route
}

// PricingService serves the current rate table and price quotes.
type PricingService struct {
	pricingRepo       repository.PricingRepository
	rateCache         redis.RateCache
	geocoder          Geocoder
	defaults          domain.RateTable
	defaultDistanceKm float64
	log               logger.ILogger
}

// NewPricingService creates a new PricingService. rateCache and geocoder may be nil.
func NewPricingService(
	pricingRepo repository.PricingRepository,
	rateCache redis.RateCache,
	geocoder Geocoder,
	cfg config.PricingConfig,
	log logger.ILogger,
) *PricingService {
	return &PricingService{
		pricingRepo:       pricingRepo,
		rateCache:         rateCache,
		geocoder:          geocoder,
		defaults:          DefaultRateTable(cfg),
		defaultDistanceKm: cfg.DefaultDistanceKm,
		log:               log,
	}
}

// CurrentRates returns the active rate table. Rows missing from the pricing
// table fall back to the configured defaults.
func (s *PricingService) CurrentRates(ctx context.Context) (domain.RateTable, error) {
	if s.rateCache != nil {
		cached, err := s.rateCache.GetRates(ctx)
		if err != nil {
			s.log.Warning("rate cache read failed", logger.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	rows, err := s.pricingRepo.List(ctx)
	if err != nil {
		return domain.RateTable{}, fmt.Errorf("load pricing: %w", err)
	}

	table := s.tableFromRows(rows)

	if s.rateCache != nil {
		if err := s.rateCache.SetRates(ctx, &table); err != nil {
			s.log.Warning("rate cache write failed", logger.Error(err))
		}
	}
	return table, nil
}

func (s *PricingService) tableFromRows(rows []domain.Pricing) domain.RateTable {
	table := domain.RateTable{
		Rates:         make(map[domain.LuggageSize]float64, len(domain.LuggageSizes)),
		BasePickupFee: s.defaults.BasePickupFee,
		PerKmFee:      s.defaults.PerKmFee,
		InsuranceFee:  s.defaults.InsuranceFee,
	}
	for size, rate := range s.defaults.Rates {
		table.Rates[size] = rate
	}

	first := true
	for _, row := range rows {
		if row.ServiceType != domain.ServiceTypePickup {
			continue
		}
		table.Rates[row.LuggageSize] = row.PricePerHour
		if first {
			table.BasePickupFee = row.BasePickupFee
			table.PerKmFee = row.PerKmFee
			first = false
		}
	}
	return table
}

// UpdateRates replaces the per-size rates and fees. The insurance fee is
// configuration only and is not persisted.
func (s *PricingService) UpdateRates(ctx context.Context, table domain.RateTable) (domain.RateTable, error) {
	if err := validateRateTable(table); err != nil {
		return domain.RateTable{}, err
	}

	now := time.Now()
	rows := make([]domain.Pricing, 0, len(domain.LuggageSizes))
	for _, size := range domain.LuggageSizes {
		rows = append(rows, domain.Pricing{
			ID:            uuid.New().String(),
			ServiceType:   domain.ServiceTypePickup,
			LuggageSize:   size,
			PricePerHour:  table.Rates[size],
			BasePickupFee: table.BasePickupFee,
			PerKmFee:      table.PerKmFee,
			UpdatedAt:     now,
		})
	}

	if err := s.pricingRepo.Upsert(ctx, rows); err != nil {
		return domain.RateTable{}, fmt.Errorf("save pricing: %w", err)
	}

	if s.rateCache != nil {
		if err := s.rateCache.InvalidateRates(ctx); err != nil {
			s.log.Warning("rate cache invalidation failed", logger.Error(err))
		}
	}

	return s.CurrentRates(ctx)
}

func validateRateTable(table domain.RateTable) error {
	for _, size := range domain.LuggageSizes {
		rate, ok := table.Rates[size]
		if !ok || rate < 0 {
			return fmt.Errorf("%w: rate for %s", ErrInvalidRates, size)
		}
	}
	for size := range table.Rates {
		if !domain.ValidLuggageSize(size) {
			return fmt.Errorf("%w: %q", ErrUnknownLuggageSize, size)
		}
	}
	if table.BasePickupFee < 0 || table.PerKmFee < 0 {
		return fmt.Errorf("%w: negative fee", ErrInvalidRates)
	}
	return nil
}

// Quote prices a request against the current rate table.
func (s *PricingService) Quote(ctx context.Context, req PriceRequest) (*Quote, error) {
	table, err := s.CurrentRates(ctx)
	if err != nil {
		return nil, err
	}

	distance, source, err := s.resolveDistance(ctx, req.DistanceKm, &req.Route)
	if err != nil {
		return nil, err
	}

	q, err := CalculateQuote(table, QuoteRequest{
		Items:        req.Items,
		StorageHours: req.StorageHours,
		DistanceKm:   distance,
		Insurance:    req.Insurance,
	})
	if err != nil {
		return nil, err
	}
	q.DistanceSource = source
	q.route = req.Route

	metrics.IncQuote(source)
	return &q, nil
}

// resolveDistance picks the delivery distance: an explicit value, the
// haversine distance between coordinates (geocoding addresses when needed),
// or the configured default. Geocoded coordinates are written back to route.
func (s *PricingService) resolveDistance(ctx context.Context, explicit *float64, route *Route) (float64, string, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, "", ErrInvalidDistance
		}
		return *explicit, DistanceExplicit, nil
	}

	for _, c := range []*float64{route.PickupLat, route.DeliveryLat} {
		if c != nil && !geo.ValidLatitude(*c) {
			return 0, "", ErrInvalidLocation
		}
	}
	for _, c := range []*float64{route.PickupLng, route.DeliveryLng} {
		if c != nil && !geo.ValidLongitude(*c) {
			return 0, "", ErrInvalidLocation
		}
	}

	source := DistanceCoordinates
	if s.geocoder != nil {
		if !route.hasPickupCoords() && route.PickupAddress != "" {
			if lat, lng, err := s.geocoder.Geocode(ctx, route.PickupAddress); err == nil {
				route.PickupLat, route.PickupLng = &lat, &lng
				source = DistanceGeocoded
			} else {
				s.log.Warning("pickup geocoding failed", logger.String("address", route.PickupAddress), logger.Error(err))
			}
		}
		if !route.hasDeliveryCoords() && route.DeliveryAddress != "" {
			if lat, lng, err := s.geocoder.Geocode(ctx, route.DeliveryAddress); err == nil {
				route.DeliveryLat, route.DeliveryLng = &lat, &lng
				source = DistanceGeocoded
			} else {
				s.log.Warning("delivery geocoding failed", logger.String("address", route.DeliveryAddress), logger.Error(err))
			}
		}
	}

	if route.hasPickupCoords() && route.hasDeliveryCoords() {
		return geo.DistanceKm(*route.PickupLat, *route.PickupLng, *route.DeliveryLat, *route.DeliveryLng), source, nil
	}
	return s.defaultDistanceKm, DistanceDefault, nil
}
