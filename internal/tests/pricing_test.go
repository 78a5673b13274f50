package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"dropngo/internal/domain"
	"dropngo/internal/geo"
	"dropngo/internal/logger"
	"dropngo/internal/service"
)

// ──────────────────────────────────────────────
// 1. QUOTE CALCULATION
// ──────────────────────────────────────────────

func TestQuote_SumsStorageDeliveryAndInsurance(t *testing.T) {
	t.Parallel()

	table := service.DefaultRateTable(testPricing)
	q, err := service.CalculateQuote(table, service.QuoteRequest{
		Items: map[domain.LuggageSize]int{
			domain.LuggageSmall: 2,
			domain.LuggageLarge: 1,
		},
		StorageHours: 3,
		DistanceKm:   4,
		Insurance:    true,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// 2*3*30 + 1*3*65
	if q.Storage != 375 {
		t.Errorf("expected storage 375, got %v", q.Storage)
	}
	// 100 + 4*10
	if q.Delivery != 140 {
		t.Errorf("expected delivery 140, got %v", q.Delivery)
	}
	if q.Insurance != 50 {
		t.Errorf("expected insurance 50, got %v", q.Insurance)
	}
	if q.Total != 565 {
		t.Errorf("expected total 565, got %v", q.Total)
	}

	if len(q.Items) != 2 {
		t.Fatalf("expected 2 quote lines, got %d", len(q.Items))
	}
	if q.Items[0].LuggageSize != domain.LuggageSmall || q.Items[0].Total != 180 {
		t.Errorf("unexpected first line: %+v", q.Items[0])
	}
	if q.Items[1].LuggageSize != domain.LuggageLarge || q.Items[1].Total != 195 {
		t.Errorf("unexpected second line: %+v", q.Items[1])
	}
}

func TestQuote_NoInsuranceByDefault(t *testing.T) {
	t.Parallel()

	q, err := service.CalculateQuote(service.DefaultRateTable(testPricing), service.QuoteRequest{
		Items:        map[domain.LuggageSize]int{domain.LuggageExtraLarge: 1},
		StorageHours: 1,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if q.Insurance != 0 {
		t.Errorf("expected no insurance, got %v", q.Insurance)
	}
	// 85 + 100 base pickup at zero distance
	if q.Total != 185 {
		t.Errorf("expected total 185, got %v", q.Total)
	}
}

func TestQuote_TotalIsSumOfRoundedParts(t *testing.T) {
	t.Parallel()

	table := domain.RateTable{
		Rates:         map[domain.LuggageSize]float64{domain.LuggageSmall: 1.111},
		BasePickupFee: 0.333,
		PerKmFee:      0.777,
	}
	q, err := service.CalculateQuote(table, service.QuoteRequest{
		Items:        map[domain.LuggageSize]int{domain.LuggageSmall: 3},
		StorageHours: 7,
		DistanceKm:   2.5,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !almostEqual(q.Total, q.Storage+q.Delivery+q.Insurance, 1e-9) {
		t.Errorf("total %v is not the sum of %v + %v + %v", q.Total, q.Storage, q.Delivery, q.Insurance)
	}
	if q.Storage != 23.33 {
		t.Errorf("expected storage rounded to 23.33, got %v", q.Storage)
	}
}

func TestQuote_InvalidInput_Fails(t *testing.T) {
	t.Parallel()

	table := service.DefaultRateTable(testPricing)
	testCases := []struct {
		name    string
		req     service.QuoteRequest
		wantErr error
	}{
		{
			name:    "zero storage hours",
			req:     service.QuoteRequest{Items: map[domain.LuggageSize]int{domain.LuggageSmall: 1}},
			wantErr: service.ErrInvalidStorageHours,
		},
		{
			name:    "negative distance",
			req:     service.QuoteRequest{Items: map[domain.LuggageSize]int{domain.LuggageSmall: 1}, StorageHours: 1, DistanceKm: -1},
			wantErr: service.ErrInvalidDistance,
		},
		{
			name:    "unknown size",
			req:     service.QuoteRequest{Items: map[domain.LuggageSize]int{"huge": 1}, StorageHours: 1},
			wantErr: service.ErrUnknownLuggageSize,
		},
		{
			name:    "negative quantity",
			req:     service.QuoteRequest{Items: map[domain.LuggageSize]int{domain.LuggageSmall: -2, domain.LuggageLarge: 3}, StorageHours: 1},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name:    "no bags",
			req:     service.QuoteRequest{Items: map[domain.LuggageSize]int{domain.LuggageSmall: 0}, StorageHours: 2},
			wantErr: service.ErrNoLuggage,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := service.CalculateQuote(table, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. RATE TABLE
// ──────────────────────────────────────────────

func TestRates_FallBackToConfiguredDefaults(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	table, err := env.pricingService.CurrentRates(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if table.Rates[domain.LuggageMedium] != testPricing.MediumRate {
		t.Errorf("expected medium rate %v, got %v", testPricing.MediumRate, table.Rates[domain.LuggageMedium])
	}
	if table.InsuranceFee != testPricing.InsuranceFee {
		t.Errorf("expected insurance fee %v, got %v", testPricing.InsuranceFee, table.InsuranceFee)
	}
}

func TestRates_ServedFromCacheAfterFirstLoad(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := env.pricingService.CurrentRates(ctx); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
	}
	if got := atomic.LoadInt32(&env.pricing.ListCallCount); got != 1 {
		t.Errorf("expected 1 database read, got %d", got)
	}
	if !env.cache.HasRates() {
		t.Error("expected rate table to be cached")
	}
}

func TestRates_CacheFailureFallsBackToDatabase(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.cache.GetRatesError = ErrMockTimeout

	if _, err := env.pricingService.CurrentRates(context.Background()); err != nil {
		t.Fatalf("expected cache errors to be tolerated, got: %v", err)
	}
	if got := atomic.LoadInt32(&env.pricing.ListCallCount); got != 1 {
		t.Errorf("expected database read, got %d", got)
	}
}

func TestRates_UpdateReplacesRatesAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	if _, err := env.pricingService.CurrentRates(ctx); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	updated, err := env.adminService.UpdatePricing(ctx, domain.RateTable{
		Rates: map[domain.LuggageSize]float64{
			domain.LuggageSmall:      40,
			domain.LuggageMedium:     55,
			domain.LuggageLarge:      75,
			domain.LuggageExtraLarge: 95,
		},
		BasePickupFee: 120,
		PerKmFee:      12,
		InsuranceFee:  999,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if atomic.LoadInt32(&env.cache.InvalidateRatesCallCount) != 1 {
		t.Error("expected rate cache to be invalidated")
	}
	if updated.Rates[domain.LuggageSmall] != 40 || updated.BasePickupFee != 120 || updated.PerKmFee != 12 {
		t.Errorf("unexpected rate table after update: %+v", updated)
	}
	if updated.InsuranceFee != testPricing.InsuranceFee {
		t.Errorf("expected insurance fee to stay %v, got %v", testPricing.InsuranceFee, updated.InsuranceFee)
	}
}

func TestRates_UpdateRejectsInvalidTables(t *testing.T) {
	t.Parallel()

	full := func() map[domain.LuggageSize]float64 {
		return map[domain.LuggageSize]float64{
			domain.LuggageSmall:      1,
			domain.LuggageMedium:     2,
			domain.LuggageLarge:      3,
			domain.LuggageExtraLarge: 4,
		}
	}

	missing := full()
	delete(missing, domain.LuggageLarge)
	negative := full()
	negative[domain.LuggageSmall] = -1
	unknown := full()
	unknown["gigantic"] = 9

	testCases := []struct {
		name    string
		table   domain.RateTable
		wantErr error
	}{
		{name: "missing size", table: domain.RateTable{Rates: missing}, wantErr: service.ErrInvalidRates},
		{name: "negative rate", table: domain.RateTable{Rates: negative}, wantErr: service.ErrInvalidRates},
		{name: "negative fee", table: domain.RateTable{Rates: full(), PerKmFee: -5}, wantErr: service.ErrInvalidRates},
		{name: "unknown size", table: domain.RateTable{Rates: unknown}, wantErr: service.ErrUnknownLuggageSize},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			_, err := env.pricingService.UpdateRates(context.Background(), tc.table)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if atomic.LoadInt32(&env.pricing.UpsertCallCount) != 0 {
				t.Error("expected nothing to be persisted")
			}
		})
	}
}

// ──────────────────────────────────────────────
// 3. DISTANCE RESOLUTION
// ──────────────────────────────────────────────

func TestQuoteDistance_Sources(t *testing.T) {
	t.Parallel()

	items := map[domain.LuggageSize]int{domain.LuggageSmall: 1}
	coordsKm := geo.DistanceKm(mgRoadLat, mgRoadLng, indiranagarLat, indiranagarLng)

	testCases := []struct {
		name       string
		req        service.PriceRequest
		wantSource string
		wantKm     float64
	}{
		{
			name:       "explicit distance wins",
			req:        service.PriceRequest{Items: items, StorageHours: 1, DistanceKm: ptr(7.5)},
			wantSource: service.DistanceExplicit,
			wantKm:     7.5,
		},
		{
			name: "coordinates",
			req: service.PriceRequest{Items: items, StorageHours: 1, Route: service.Route{
				PickupLat: ptr(mgRoadLat), PickupLng: ptr(mgRoadLng),
				DeliveryLat: ptr(indiranagarLat), DeliveryLng: ptr(indiranagarLng),
			}},
			wantSource: service.DistanceCoordinates,
			wantKm:     coordsKm,
		},
		{
			name: "geocoded addresses",
			req: service.PriceRequest{Items: items, StorageHours: 1, Route: service.Route{
				PickupAddress: "MG Road", DeliveryAddress: "Indiranagar",
			}},
			wantSource: service.DistanceGeocoded,
			wantKm:     coordsKm,
		},
		{
			name: "unresolvable address uses default",
			req: service.PriceRequest{Items: items, StorageHours: 1, Route: service.Route{
				PickupAddress: "MG Road", DeliveryAddress: "Atlantis",
			}},
			wantSource: service.DistanceDefault,
			wantKm:     testPricing.DefaultDistanceKm,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			geocoder := NewMockGeocoder()
			geocoder.AddAddress("MG Road", mgRoadLat, mgRoadLng)
			geocoder.AddAddress("Indiranagar", indiranagarLat, indiranagarLng)
			svc := service.NewPricingService(NewMockPricingRepository(), nil, geocoder, testPricing, logger.Nop())

			q, err := svc.Quote(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if q.DistanceSource != tc.wantSource {
				t.Errorf("expected source %s, got %s", tc.wantSource, q.DistanceSource)
			}
			if !almostEqual(q.DistanceKm, tc.wantKm, 0.01) {
				t.Errorf("expected distance %.2f, got %.2f", tc.wantKm, q.DistanceKm)
			}
		})
	}
}

func TestQuoteDistance_InvalidCoordinates_Fail(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	_, err := env.pricingService.Quote(context.Background(), service.PriceRequest{
		Items:        map[domain.LuggageSize]int{domain.LuggageSmall: 1},
		StorageHours: 1,
		Route:        service.Route{PickupLat: ptr(95.0), PickupLng: ptr(77.0)},
	})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}

	_, err = env.pricingService.Quote(context.Background(), service.PriceRequest{
		Items:        map[domain.LuggageSize]int{domain.LuggageSmall: 1},
		StorageHours: 1,
		DistanceKm:   ptr(-3.0),
	})
	if !errors.Is(err, service.ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance, got %v", err)
	}
}
