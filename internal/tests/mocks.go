package tests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/geo"
	"dropngo/internal/notify"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
	"dropngo/internal/storage"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount             int32
	IncrementBookingsCallCount  int32
	UpdateVerificationCallCount int32

	// Error injection
	CreateError  error
	GetByIDError error
	ListError    error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; exists {
		return repository.ErrConflict
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		if !matchesUser(u, filter) {
			continue
		}
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) UpdateVerification(ctx context.Context, id string, status domain.VerificationStatus) error {
	atomic.AddInt32(&m.UpdateVerificationCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.VerificationStatus = status
	return nil
}

func (m *MockUserRepository) IncrementBookings(ctx context.Context, id string) error {
	atomic.AddInt32(&m.IncrementBookingsCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TotalBookings++
	return nil
}

// GetUser returns user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// GetUserByEmail returns the user with email for test assertions.
func (m *MockUserRepository) GetUserByEmail(email string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// CountUsers returns the number of users.
func (m *MockUserRepository) CountUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func matchesUser(u *domain.User, filter repository.UserFilter) bool {
	if filter.Role != "" && u.Role != filter.Role {
		return false
	}
	if filter.Verification != "" && u.VerificationStatus != filter.Verification {
		return false
	}
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.FullName), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(u.Phone, q) {
			return false
		}
	}
	return true
}

// ──────────────────────────────────────────────
// MOCK PORTER REPOSITORY
// ──────────────────────────────────────────────

// MockPorterRepository is a mock implementation of PorterRepository. The
// user half of each porter lives in the shared MockUserRepository, the same
// way the porter query joins the users table.
type MockPorterRepository struct {
	mu        sync.RWMutex
	users     *MockUserRepository
	profiles  map[string]*domain.PorterProfile
	documents map[string][]*domain.PorterDocument

	// Counters for verification
	GetCallCount             int32
	SetAvailabilityCallCount int32
	AddEarningsCallCount     int32

	// Error injection
	CreateProfileError error
	AddEarningsError   error
	AddDocumentError   error
}

// NewMockPorterRepository creates a new mock porter repository backed by users.
func NewMockPorterRepository(users *MockUserRepository) *MockPorterRepository {
	return &MockPorterRepository{
		users:     users,
		profiles:  make(map[string]*domain.PorterProfile),
		documents: make(map[string][]*domain.PorterDocument),
	}
}

// AddPorter adds a porter's user and profile to the mock repositories.
func (m *MockPorterRepository) AddPorter(porter *domain.Porter) {
	user := porter.User
	m.users.AddUser(&user)

	profile := porter.Profile
	profile.UserID = user.ID
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[user.ID] = &profile
}

func (m *MockPorterRepository) CreateProfile(ctx context.Context, profile *domain.PorterProfile) error {
	if m.CreateProfileError != nil {
		return m.CreateProfileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[profile.UserID]; exists {
		return repository.ErrConflict
	}
	copy := *profile
	m.profiles[profile.UserID] = &copy
	return nil
}

func (m *MockPorterRepository) GetByUserID(ctx context.Context, userID string) (*domain.Porter, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	profile, ok := m.profiles[userID]
	var p domain.PorterProfile
	if ok {
		p = *profile
	}
	m.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Porter{User: *user, Profile: p}, nil
}

func (m *MockPorterRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.Porter, error) {
	filter.Role = domain.RolePorter
	users, err := m.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Porter, 0, len(users))
	for _, u := range users {
		profile, ok := m.profiles[u.ID]
		if !ok {
			continue
		}
		result = append(result, &domain.Porter{User: *u, Profile: *profile})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].User.CreatedAt.After(result[j].User.CreatedAt)
	})
	return result, nil
}

func (m *MockPorterRepository) SetAvailability(ctx context.Context, userID string, available bool) error {
	atomic.AddInt32(&m.SetAvailabilityCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.IsAvailable = available
	return nil
}

func (m *MockPorterRepository) AddEarnings(ctx context.Context, userID string, amount float64) error {
	atomic.AddInt32(&m.AddEarningsCallCount, 1)
	if m.AddEarningsError != nil {
		return m.AddEarningsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	profile.TotalEarnings += amount
	return nil
}

func (m *MockPorterRepository) AddDocument(ctx context.Context, doc *domain.PorterDocument) error {
	if m.AddDocumentError != nil {
		return m.AddDocumentError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *doc
	m.documents[doc.UserID] = append(m.documents[doc.UserID], &copy)
	return nil
}

func (m *MockPorterRepository) ListDocuments(ctx context.Context, userID string) ([]*domain.PorterDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PorterDocument, 0, len(m.documents[userID]))
	for _, d := range m.documents[userID] {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

// GetProfile returns the stored profile for test assertions.
func (m *MockPorterRepository) GetProfile(userID string) *domain.PorterProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID]
}

// CountDocuments returns the number of documents stored for a porter.
func (m *MockPorterRepository) CountDocuments(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents[userID])
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	ListError   error

	// ConflictsLeft makes the next Create calls fail with ErrConflict.
	ConflictsLeft int32
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = cloneBooking(booking)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	if atomic.AddInt32(&m.ConflictsLeft, -1) >= 0 {
		return repository.ErrConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.BookingNumber == booking.BookingNumber {
			return repository.ErrConflict
		}
	}
	m.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func (m *MockBookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.BookingNumber == number {
			return cloneBooking(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	return m.collect(func(b *domain.Booking) bool { return b.UserID == userID }, 0), nil
}

func (m *MockBookingRepository) ListByPorter(ctx context.Context, porterID string) ([]*domain.Booking, error) {
	return m.collect(func(b *domain.Booking) bool { return b.PorterID == porterID }, 0), nil
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	q := strings.ToLower(filter.Search)
	return m.collect(func(b *domain.Booking) bool {
		if filter.Status != "" && b.Status != filter.Status {
			return false
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.BookingNumber), q) &&
			!strings.Contains(strings.ToLower(b.PickupLocation), q) &&
			!strings.Contains(strings.ToLower(b.DeliveryLocation), q) {
			return false
		}
		return true
	}, filter.Limit), nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != expected {
		return repository.ErrStaleWrite
	}
	updated := cloneBooking(booking)
	updated.Photos = existing.Photos
	m.bookings[booking.ID] = updated
	return nil
}

func (m *MockBookingRepository) AddPhoto(ctx context.Context, photo *domain.LuggagePhoto) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[photo.BookingID]
	if !ok {
		return repository.ErrNotFound
	}
	booking.Photos = append(booking.Photos, *photo)
	return nil
}

func (m *MockBookingRepository) Stats(ctx context.Context) (*domain.BookingStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &domain.BookingStats{ByStatus: make(map[domain.BookingStatus]int)}
	for _, b := range m.bookings {
		stats.ByStatus[b.Status]++
		stats.TotalBookings++
		switch b.Status {
		case domain.BookingStatusDelivered:
			stats.Revenue += b.TotalAmount
			stats.Commission += b.PorterCommission
		case domain.BookingStatusCancelled:
		default:
			stats.PendingRevenue += b.TotalAmount
		}
	}
	return stats, nil
}

// GetBooking returns booking for assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// CountBookings returns the number of bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) collect(keep func(*domain.Booking) bool, limit int) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if keep(b) {
			result = append(result, cloneBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	copy := *b
	copy.Items = append([]domain.LuggageItem(nil), b.Items...)
	copy.Photos = append([]domain.LuggagePhoto(nil), b.Photos...)
	return &copy
}

// ──────────────────────────────────────────────
// GATED BOOKING READS
// ──────────────────────────────────────────────

// GatedBookingRepository holds the first parties GetByID callers until all
// of them have read, so their writes overlap.
type GatedBookingRepository struct {
	*MockBookingRepository
	parties int32
	arrived int32
	release chan struct{}
}

// NewGatedBookingRepository wraps a booking mock with a read barrier.
func NewGatedBookingRepository(inner *MockBookingRepository, parties int) *GatedBookingRepository {
	return &GatedBookingRepository{
		MockBookingRepository: inner,
		parties:               int32(parties),
		release:               make(chan struct{}),
	}
}

func (g *GatedBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := g.MockBookingRepository.GetByID(ctx, id)
	n := atomic.AddInt32(&g.arrived, 1)
	switch {
	case n == g.parties:
		close(g.release)
	case n > g.parties:
		return booking, err
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return booking, err
}

// ──────────────────────────────────────────────
// MOCK PRICING REPOSITORY
// ──────────────────────────────────────────────

// MockPricingRepository is a mock implementation of PricingRepository.
type MockPricingRepository struct {
	mu   sync.RWMutex
	rows map[domain.LuggageSize]domain.Pricing

	// Counters for verification
	ListCallCount   int32
	UpsertCallCount int32

	// Error injection
	ListError   error
	UpsertError error
}

// NewMockPricingRepository creates a new mock pricing repository.
func NewMockPricingRepository() *MockPricingRepository {
	return &MockPricingRepository{
		rows: make(map[domain.LuggageSize]domain.Pricing),
	}
}

func (m *MockPricingRepository) List(ctx context.Context) ([]domain.Pricing, error) {
	atomic.AddInt32(&m.ListCallCount, 1)
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.Pricing, 0, len(m.rows))
	for _, size := range domain.LuggageSizes {
		if row, ok := m.rows[size]; ok {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *MockPricingRepository) Upsert(ctx context.Context, rows []domain.Pricing) error {
	atomic.AddInt32(&m.UpsertCallCount, 1)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows[row.LuggageSize] = row
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION REPOSITORY
// ──────────────────────────────────────────────

// MockLocationRepository is a mock implementation of LocationRepository.
type MockLocationRepository struct {
	mu        sync.RWMutex
	locations map[string]*domain.PorterLocation

	// Counters for verification
	UpsertCallCount          int32
	ListByStatusCallCount    int32
	ListByPorterIDsCallCount int32

	// Error injection
	UpsertError          error
	ListByPorterIDsError error
}

// NewMockLocationRepository creates a new mock location repository.
func NewMockLocationRepository() *MockLocationRepository {
	return &MockLocationRepository{
		locations: make(map[string]*domain.PorterLocation),
	}
}

func (m *MockLocationRepository) Upsert(ctx context.Context, loc *domain.PorterLocation) error {
	atomic.AddInt32(&m.UpsertCallCount, 1)
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *loc
	m.locations[loc.PorterID] = &copy
	return nil
}

func (m *MockLocationRepository) GetByPorterID(ctx context.Context, porterID string) (*domain.PorterLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[porterID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *loc
	return &copy, nil
}

func (m *MockLocationRepository) ListByPorterIDs(ctx context.Context, porterIDs []string) ([]*domain.PorterLocation, error) {
	atomic.AddInt32(&m.ListByPorterIDsCallCount, 1)
	if m.ListByPorterIDsError != nil {
		return nil, m.ListByPorterIDsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PorterLocation
	for _, id := range porterIDs {
		if loc, ok := m.locations[id]; ok {
			copy := *loc
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockLocationRepository) ListByStatus(ctx context.Context, status domain.PorterLocationStatus) ([]*domain.PorterLocation, error) {
	atomic.AddInt32(&m.ListByStatusCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.PorterLocation
	for _, loc := range m.locations {
		if loc.Status == status {
			copy := *loc
			result = append(result, &copy)
		}
	}
	return result, nil
}

// CountLocations returns the number of stored locations.
func (m *MockLocationRepository) CountLocations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.locations)
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs transactions directly against the mock repositories.
// It does not roll back partial writes.
type MockTxManager struct {
	users    *MockUserRepository
	porters  *MockPorterRepository
	bookings *MockBookingRepository

	// Counters for verification
	WithTxCallCount int32

	// Error injection
	BeginError error
}

// NewMockTxManager creates a transaction manager over the given repositories.
func NewMockTxManager(users *MockUserRepository, porters *MockPorterRepository, bookings *MockBookingRepository) *MockTxManager {
	return &MockTxManager{users: users, porters: porters, bookings: bookings}
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	atomic.AddInt32(&m.WithTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(mockStore{m})
}

type mockStore struct {
	m *MockTxManager
}

func (s mockStore) Users() repository.UserRepository       { return s.m.users }
func (s mockStore) Porters() repository.PorterRepository   { return s.m.porters }
func (s mockStore) Bookings() repository.BookingRepository { return s.m.bookings }

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:booking:" + bookingID
	if expiry, exists := m.locks[key]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:booking:"+bookingID)
	return nil
}

// Hold locks a booking as if another request were accepting it.
func (m *MockLockStore) Hold(bookingID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:booking:"+bookingID] = time.Now().Add(ttl)
}

// IsLocked checks if a booking is locked (for test assertions).
func (m *MockLockStore) IsLocked(bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:booking:"+bookingID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string][2]float64

	// Counters
	UpdateCallCount int32
	RemoveCallCount int32
	FindCallCount   int32

	// Error injection
	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string][2]float64),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, porterID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[porterID] = [2]float64{lat, lng}
	return nil
}

func (m *MockLocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]redis.GeoHit, error) {
	atomic.AddInt32(&m.FindCallCount, 1)
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []redis.GeoHit
	for id, pos := range m.locations {
		d := geo.DistanceKm(lat, lng, pos[0], pos[1])
		if d <= radiusKm {
			hits = append(hits, redis.GeoHit{PorterID: id, Lat: pos[0], Lng: pos[1], DistanceKm: d})
		}
	}
	return hits, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, porterID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, porterID)
	return nil
}

// HasLocation checks if a porter is in the index.
func (m *MockLocationStore) HasLocation(porterID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[porterID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of RateCache and PorterCache.
type MockCacheStore struct {
	mu      sync.RWMutex
	rates   *domain.RateTable
	porters map[string]*redis.CachedPorter

	// Counters
	GetRatesCallCount        int32
	InvalidateRatesCallCount int32
	SetPorterCallCount       int32
	InvalidatePorterCount    int32

	// Error injection
	GetRatesError error
	BatchError    error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		porters: make(map[string]*redis.CachedPorter),
	}
}

func (m *MockCacheStore) GetRates(ctx context.Context) (*domain.RateTable, error) {
	atomic.AddInt32(&m.GetRatesCallCount, 1)
	if m.GetRatesError != nil {
		return nil, m.GetRatesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rates == nil {
		return nil, nil
	}
	copy := *m.rates
	return &copy, nil
}

func (m *MockCacheStore) SetRates(ctx context.Context, table *domain.RateTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *table
	m.rates = &copy
	return nil
}

func (m *MockCacheStore) InvalidateRates(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateRatesCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = nil
	return nil
}

func (m *MockCacheStore) SetPorter(ctx context.Context, porter *redis.CachedPorter) error {
	atomic.AddInt32(&m.SetPorterCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *porter
	m.porters[porter.ID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidatePorter(ctx context.Context, porterID string) error {
	atomic.AddInt32(&m.InvalidatePorterCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.porters, porterID)
	return nil
}

func (m *MockCacheStore) GetPortersBatch(ctx context.Context, porterIDs []string) (map[string]*redis.CachedPorter, []string, error) {
	if m.BatchError != nil {
		return nil, nil, m.BatchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := make(map[string]*redis.CachedPorter, len(porterIDs))
	var missing []string
	for _, id := range porterIDs {
		if p, ok := m.porters[id]; ok {
			copy := *p
			found[id] = &copy
			continue
		}
		missing = append(missing, id)
	}
	return found, missing, nil
}

// HasRates reports whether a rate table is cached.
func (m *MockCacheStore) HasRates() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rates != nil
}

// HasPorter reports whether a porter card is cached.
func (m *MockCacheStore) HasPorter(porterID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.porters[porterID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCATION BROKER
// ──────────────────────────────────────────────

// MockLocationBroker fans published locations out to in-process subscribers.
type MockLocationBroker struct {
	mu          sync.Mutex
	published   []domain.PorterLocation
	subscribers map[string][]chan domain.PorterLocation

	// Error injection
	PublishError error
}

// NewMockLocationBroker creates a new mock location broker.
func NewMockLocationBroker() *MockLocationBroker {
	return &MockLocationBroker{
		subscribers: make(map[string][]chan domain.PorterLocation),
	}
}

func (m *MockLocationBroker) Publish(ctx context.Context, loc *domain.PorterLocation) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, *loc)
	for _, ch := range m.subscribers[loc.PorterID] {
		select {
		case ch <- *loc:
		default:
		}
	}
	return nil
}

func (m *MockLocationBroker) Subscribe(ctx context.Context, porterID string) (<-chan domain.PorterLocation, func()) {
	ch := make(chan domain.PorterLocation, 16)
	m.mu.Lock()
	m.subscribers[porterID] = append(m.subscribers[porterID], ch)
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subs := m.subscribers[porterID]
			for i, c := range subs {
				if c == ch {
					m.subscribers[porterID] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Published returns every published location.
func (m *MockLocationBroker) Published() []domain.PorterLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PorterLocation(nil), m.published...)
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records notifications instead of sending them.
type MockNotifier struct {
	mu sync.Mutex

	Created   []string
	Statuses  []domain.BookingStatus
	Cancelled []string
	Reviewed  map[string]domain.VerificationStatus
	Applied   []string
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Reviewed: make(map[string]domain.VerificationStatus),
	}
}

func (m *MockNotifier) NotifyBookingCreated(ctx context.Context, booking *domain.Booking, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, booking.ID)
}

func (m *MockNotifier) NotifyStatusChanged(ctx context.Context, booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, booking.Status)
}

func (m *MockNotifier) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, cancelledBy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancelled = append(m.Cancelled, cancelledBy)
}

func (m *MockNotifier) NotifyPorterReviewed(ctx context.Context, porter *domain.User, status domain.VerificationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reviewed[porter.ID] = status
}

func (m *MockNotifier) NotifyPorterApplied(ctx context.Context, porter *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applied = append(m.Applied, porter.ID)
}

// StatusHistory returns the notified statuses in order.
func (m *MockNotifier) StatusHistory() []domain.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.BookingStatus(nil), m.Statuses...)
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION CHANNEL
// ──────────────────────────────────────────────

// MockChannel is a mock notify.Channel.
type MockChannel struct {
	mu   sync.Mutex
	name string
	sent []notify.Notification

	// Block, when set, holds Send until it is closed or ctx ends.
	Block chan struct{}

	// Error injection
	SendError error
}

// NewMockChannel creates a new mock channel.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

func (c *MockChannel) Name() string { return c.name }

func (c *MockChannel) Send(ctx context.Context, n notify.Notification) error {
	if c.Block != nil {
		select {
		case <-c.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return c.SendError
}

// Sent returns the notifications handed to the channel.
func (c *MockChannel) Sent() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Notification(nil), c.sent...)
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockGeocoder resolves a fixed set of addresses.
type MockGeocoder struct {
	mu        sync.RWMutex
	addresses map[string][2]float64

	// Reverse is returned by ReverseGeocode.
	Reverse string

	// Counters
	GeocodeCallCount int32
	ReverseCallCount int32

	// Error injection
	ReverseError error
}

// NewMockGeocoder creates a new mock geocoder.
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		addresses: make(map[string][2]float64),
	}
}

// AddAddress registers coordinates for an address.
func (m *MockGeocoder) AddAddress(address string, lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[address] = [2]float64{lat, lng}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	atomic.AddInt32(&m.GeocodeCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.addresses[address]
	if !ok {
		return 0, 0, ErrMockNoResults
	}
	return pos[0], pos[1], nil
}

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	atomic.AddInt32(&m.ReverseCallCount, 1)
	if m.ReverseError != nil {
		return "", m.ReverseError
	}
	return m.Reverse, nil
}

// ──────────────────────────────────────────────
// MOCK STORAGE
// ──────────────────────────────────────────────

// MockStorage keeps uploaded objects in memory.
type MockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// Error injection
	SaveError error
}

// NewMockStorage creates a new mock storage backend.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		objects: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(ctx context.Context, obj storage.Object) (string, error) {
	if m.SaveError != nil {
		return "", m.SaveError
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://cdn.test/%s/%s%s", obj.Folder, obj.Name, obj.Ext)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[url] = data
	return url, nil
}

// Object returns the stored bytes for url.
func (m *MockStorage) Object(url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[url]
	return data, ok
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
	ErrMockNoResults    = errors.New("mock: no geocoding results")
)
