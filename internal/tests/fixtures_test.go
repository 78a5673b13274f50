package tests

import (
	"math"
	"time"

	"dropngo/internal/config"
	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/service"
)

var testPricing = config.PricingConfig{
	SmallRate:         30,
	MediumRate:        45,
	LargeRate:         65,
	ExtraLargeRate:    85,
	BasePickupFee:     100,
	PerKmFee:          10,
	InsuranceFee:      50,
	DefaultDistanceKm: 15,
	CommissionRate:    0.20,
}

// Bangalore landmarks used across location tests.
const (
	mgRoadLat      = 12.9756
	mgRoadLng      = 77.6050
	indiranagarLat = 12.9784
	indiranagarLng = 77.6408
	airportLat     = 13.1986
	airportLng     = 77.7066
)

// testEnv wires every service over fresh mocks.
type testEnv struct {
	users     *MockUserRepository
	porters   *MockPorterRepository
	bookings  *MockBookingRepository
	pricing   *MockPricingRepository
	locations *MockLocationRepository
	tx        *MockTxManager
	locks     *MockLockStore
	geoIndex  *MockLocationStore
	cache     *MockCacheStore
	broker    *MockLocationBroker
	geocoder  *MockGeocoder
	notifier  *MockNotifier

	pricingService  *service.PricingService
	bookingService  *service.BookingService
	locationService *service.LocationService
	porterService   *service.PorterService
	adminService    *service.AdminService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:     NewMockUserRepository(),
		bookings:  NewMockBookingRepository(),
		pricing:   NewMockPricingRepository(),
		locations: NewMockLocationRepository(),
		locks:     NewMockLockStore(),
		geoIndex:  NewMockLocationStore(),
		cache:     NewMockCacheStore(),
		broker:    NewMockLocationBroker(),
		geocoder:  NewMockGeocoder(),
		notifier:  NewMockNotifier(),
	}
	env.porters = NewMockPorterRepository(env.users)
	env.tx = NewMockTxManager(env.users, env.porters, env.bookings)

	log := logger.Nop()
	env.pricingService = service.NewPricingService(env.pricing, env.cache, nil, testPricing, log)
	env.bookingService = service.NewBookingService(
		env.tx, env.bookings, env.users, env.porters,
		env.pricingService, env.locks, env.notifier, testPricing.CommissionRate, log,
	)
	env.locationService = service.NewLocationService(
		env.locations, env.porters, env.geoIndex, env.cache, env.broker, env.geocoder, 10, log,
	)
	env.porterService = service.NewPorterService(env.porters, env.bookings, env.cache, env.geoIndex, log)
	env.adminService = service.NewAdminService(
		env.users, env.porters, env.bookings, env.pricingService, env.cache, env.notifier, log,
	)
	return env
}

func newCustomer(id string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:                 id,
		Email:              id + "@example.com",
		Phone:              "+919800000000",
		FullName:           "Customer " + id,
		Role:               domain.RoleCustomer,
		VerificationStatus: domain.VerificationVerified,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func newPorter(id string, status domain.VerificationStatus, available bool) *domain.Porter {
	now := time.Now()
	return &domain.Porter{
		User: domain.User{
			ID:                 id,
			Email:              id + "@porters.example.com",
			Phone:              "+919811111111",
			FullName:           "Porter " + id,
			Role:               domain.RolePorter,
			VerificationStatus: status,
			IsActive:           true,
			Rating:             4.5,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
		Profile: domain.PorterProfile{
			ID:             "profile-" + id,
			UserID:         id,
			LicenseNumber:  "KA01-" + id,
			VehicleType:    "bike",
			VehicleNumber:  "KA-01-AB-1234",
			IsAvailable:    available,
			CommissionRate: 0.20,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func newPendingBooking(id, userID string) *domain.Booking {
	now := time.Now()
	return &domain.Booking{
		ID:               id,
		BookingNumber:    "DN" + id,
		UserID:           userID,
		ServiceType:      domain.ServiceTypePickup,
		PickupLocation:   "MG Road",
		DeliveryLocation: "Kempegowda Airport",
		StorageHours:     4,
		Status:           domain.BookingStatusPending,
		TotalAmount:      500,
		StorageFee:       250,
		DeliveryFee:      250,
		DistanceKm:       15,
		PickupTime:       now,
		DeliveryTime:     service.CalculateDeliveryTime(now, 4),
		OTP:              "4321",
		CreatedAt:        now,
		UpdatedAt:        now,
		Items: []domain.LuggageItem{
			{ID: "item-" + id, BookingID: id, LuggageSize: domain.LuggageMedium, Quantity: 2, PricePerHour: 45},
		},
	}
}

func validBookingRequest(userID string) service.CreateBookingRequest {
	distance := 4.0
	return service.CreateBookingRequest{
		UserID:           userID,
		PickupLocation:   "MG Road, Bangalore",
		DeliveryLocation: "Indiranagar, Bangalore",
		PickupTime:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		StorageHours:     3,
		Items: map[domain.LuggageSize]int{
			domain.LuggageSmall: 2,
			domain.LuggageLarge: 1,
		},
		Insurance:  true,
		DistanceKm: &distance,
		PhotoURLs:  []string{"https://cdn.test/luggage/bag-1.jpg"},
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func ptr[T any](v T) *T {
	return &v
}
