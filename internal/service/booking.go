package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/metrics"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
)

const (
	// processingTime is added to the storage window when planning delivery.
	processingTime = time.Hour

	// bookingLockTTL bounds how long an accept attempt holds the booking.
	bookingLockTTL = 10 * time.Second

	// maxNumberAttempts is how often creation retries on a booking number clash.
	maxNumberAttempts = 3
)

// bookingTransitions is the allowed status graph.
var bookingTransitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingStatusPending:          {domain.BookingStatusConfirmed, domain.BookingStatusCancelled},
	domain.BookingStatusConfirmed:        {domain.BookingStatusPickupPending, domain.BookingStatusCancelled},
	domain.BookingStatusPickupPending:    {domain.BookingStatusInStorage, domain.BookingStatusCancelled},
	domain.BookingStatusInStorage:        {domain.BookingStatusReadyForDelivery},
	domain.BookingStatusReadyForDelivery: {domain.BookingStatusInTransit},
	domain.BookingStatusInTransit:        {domain.BookingStatusDelivered},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to domain.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// GenerateBookingNumber returns "DN" followed by the last six digits of the
// current millisecond timestamp and three random digits.
func GenerateBookingNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("DN%s%03d", ms, mrand.IntN(1000))
}

// GenerateOTP returns a four digit handoff code in [1000, 9999].
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return strconv.Itoa(1000 + mrand.IntN(9000))
	}
	return strconv.FormatInt(1000+n.Int64(), 10)
}

// CalculateDeliveryTime returns the planned delivery: pickup plus the storage
// window plus one hour of processing.
func CalculateDeliveryTime(pickup time.Time, storageHours int) time.Time {
	return pickup.Add(time.Duration(storageHours)*time.Hour + processingTime)
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role domain.Role
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	UserID              string
	PickupLocation      string
	DeliveryLocation    string
	PickupLat           *float64
	PickupLng           *float64
	DeliveryLat         *float64
	DeliveryLng         *float64
	PickupTime          time.Time
	StorageHours        int
	Items               map[domain.LuggageSize]int
	Insurance           bool
	DistanceKm          *float64
	SpecialInstructions string
	PhotoURLs           []string
}

// ValidateBookingRequest checks that a booking can be confirmed: a logged in
// user, pickup and delivery locations, at least one bag, a storage window of
// at least one hour and at least one luggage photo.
func ValidateBookingRequest(req CreateBookingRequest) error {
	if req.UserID == "" {
		return ErrNotLoggedIn
	}
	if strings.TrimSpace(req.PickupLocation) == "" {
		return ErrMissingPickupLocation
	}
	if strings.TrimSpace(req.DeliveryLocation) == "" {
		return ErrMissingDeliveryLocation
	}

	bags := 0
	for size, qty := range req.Items {
		if !domain.ValidLuggageSize(size) {
			return fmt.Errorf("%w: %q", ErrUnknownLuggageSize, size)
		}
		if qty < 0 {
			return ErrInvalidQuantity
		}
		bags += qty
	}
	if bags == 0 {
		return ErrNoLuggage
	}

	if req.StorageHours < 1 {
		return ErrInvalidStorageHours
	}

	photos := 0
	for _, url := range req.PhotoURLs {
		if strings.TrimSpace(url) != "" {
			photos++
		}
	}
	if photos == 0 {
		return ErrNoPhotos
	}
	return nil
}

// Quoter prices booking requests.
type Quoter interface {
	Quote(ctx context.Context, req PriceRequest) (*Quote, error)
}

// Ensure PricingService implements Quoter.
var _ Quoter = (*PricingService)(nil)

// BookingService handles booking creation and lifecycle.
type BookingService struct {
	txManager      repository.TxManager
	bookingRepo    repository.BookingRepository
	userRepo       repository.UserRepository
	porterRepo     repository.PorterRepository
	quoter         Quoter
	lockStore      redis.LockStoreInterface
	notifier       Notifier
	commissionRate float64
	log            logger.ILogger
	now            func() time.Time
}

// NewBookingService creates a new BookingService. lockStore may be nil.
func NewBookingService(
	txManager repository.TxManager,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	porterRepo repository.PorterRepository,
	quoter Quoter,
	lockStore redis.LockStoreInterface,
	notifier Notifier,
	commissionRate float64,
	log logger.ILogger,
) *BookingService {
	return &BookingService{
		txManager:      txManager,
		bookingRepo:    bookingRepo,
		userRepo:       userRepo,
		porterRepo:     porterRepo,
		quoter:         quoter,
		lockStore:      lockStore,
		notifier:       notifier,
		commissionRate: commissionRate,
		log:            log,
		now:            time.Now,
	}
}

// CreateBooking validates, prices and persists a booking with its items and
// photos in one transaction, then notifies the customer.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if err := ValidateBookingRequest(req); err != nil {
		return nil, err
	}

	route := Route{
		PickupAddress:   strings.TrimSpace(req.PickupLocation),
		DeliveryAddress: strings.TrimSpace(req.DeliveryLocation),
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DeliveryLat:     req.DeliveryLat,
		DeliveryLng:     req.DeliveryLng,
	}
	quote, err := s.quoter.Quote(ctx, PriceRequest{
		Items:        req.Items,
		StorageHours: req.StorageHours,
		Insurance:    req.Insurance,
		DistanceKm:   req.DistanceKm,
		Route:        route,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	pickup := req.PickupTime
	if pickup.IsZero() {
		pickup = now
	}

	booking := &domain.Booking{
		ID:                  uuid.New().String(),
		UserID:              req.UserID,
		ServiceType:         domain.ServiceTypePickup,
		PickupLocation:      route.PickupAddress,
		DeliveryLocation:    route.DeliveryAddress,
		PickupLat:           quote.route.PickupLat,
		PickupLng:           quote.route.PickupLng,
		DeliveryLat:         quote.route.DeliveryLat,
		DeliveryLng:         quote.route.DeliveryLng,
		StorageHours:        req.StorageHours,
		Status:              domain.BookingStatusPending,
		TotalAmount:         quote.Total,
		StorageFee:          quote.Storage,
		DeliveryFee:         quote.Delivery,
		InsuranceFee:        quote.Insurance,
		DistanceKm:          quote.DistanceKm,
		PickupTime:          pickup,
		DeliveryTime:        CalculateDeliveryTime(pickup, req.StorageHours),
		OTP:                 GenerateOTP(),
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	for _, line := range quote.Items {
		booking.Items = append(booking.Items, domain.LuggageItem{
			ID:           uuid.New().String(),
			BookingID:    booking.ID,
			LuggageSize:  line.LuggageSize,
			Quantity:     line.Quantity,
			PricePerHour: line.PricePerHour,
			TotalPrice:   line.Total,
			CreatedAt:    now,
		})
	}
	for _, url := range req.PhotoURLs {
		if url = strings.TrimSpace(url); url == "" {
			continue
		}
		booking.Photos = append(booking.Photos, domain.LuggagePhoto{
			ID:         uuid.New().String(),
			BookingID:  booking.ID,
			PhotoURL:   url,
			PhotoType:  domain.PhotoOriginal,
			UploadedBy: req.UserID,
			CreatedAt:  now,
		})
	}

	for attempt := 1; ; attempt++ {
		booking.BookingNumber = GenerateBookingNumber(s.now())
		err = s.txManager.WithTx(ctx, func(store repository.Store) error {
			if err := store.Bookings().Create(ctx, booking); err != nil {
				return err
			}
			return store.Users().IncrementBookings(ctx, booking.UserID)
		})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrConflict) && attempt < maxNumberAttempts {
			continue
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.log.Info("booking created",
		logger.String("booking_id", booking.ID),
		logger.String("booking_number", booking.BookingNumber),
		logger.Float64("total", booking.TotalAmount),
	)

	user, err := s.userRepo.GetByID(ctx, booking.UserID)
	if err != nil {
		s.log.Warning("booking owner lookup failed", logger.String("user_id", booking.UserID), logger.Error(err))
	}
	s.notifier.NotifyBookingCreated(ctx, booking, user)

	return booking, nil
}

// GetBooking retrieves a booking visible to actor. Customers see their own
// bookings, porters see bookings assigned to them and open bookings.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !canView(actor, booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func canView(actor Actor, b *domain.Booking) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RolePorter:
		return b.PorterID == actor.ID || (b.PorterID == "" && b.Status == domain.BookingStatusPending)
	default:
		return b.UserID == actor.ID
	}
}

// ListByUser returns a customer's bookings, newest first.
func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if userID == "" {
		return nil, ErrNotLoggedIn
	}
	return s.bookingRepo.ListByUser(ctx, userID)
}

// ListByPorter returns a porter's bookings, newest first.
func (s *BookingService) ListByPorter(ctx context.Context, porterID string) ([]*domain.Booking, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	return s.bookingRepo.ListByPorter(ctx, porterID)
}

// ListOpen returns unassigned pending bookings porters can accept.
func (s *BookingService) ListOpen(ctx context.Context) ([]*domain.Booking, error) {
	bookings, err := s.bookingRepo.List(ctx, domain.BookingFilter{Status: domain.BookingStatusPending})
	if err != nil {
		return nil, err
	}
	open := bookings[:0]
	for _, b := range bookings {
		if b.PorterID == "" {
			open = append(open, b)
		}
	}
	return open, nil
}

// ListAll returns bookings matching filter for the admin console.
func (s *BookingService) ListAll(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	if filter.Status != "" && !domain.ValidBookingStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	return s.bookingRepo.List(ctx, filter)
}

// UpdateStatusRequest contains the parameters for an admin status change.
type UpdateStatusRequest struct {
	BookingID string
	Status    domain.BookingStatus
	Reason    string
}

// UpdateStatus moves a booking along the status graph.
func (s *BookingService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if !domain.ValidBookingStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	err = s.transition(ctx, booking, req.Status, func(b *domain.Booking, now time.Time) {
		switch req.Status {
		case domain.BookingStatusInStorage:
			b.ActualPickupTime = now
		case domain.BookingStatusDelivered:
			b.ActualDeliveryTime = now
		case domain.BookingStatusCancelled:
			b.CancelReason = req.Reason
		}
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// AcceptBooking assigns a pending booking to a verified, available porter.
// A Redis lock keeps two porters from taking the same booking.
func (s *BookingService) AcceptBooking(ctx context.Context, porterID, bookingID string) (*domain.Booking, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	porter, err := s.porterRepo.GetByUserID(ctx, porterID)
	if err != nil {
		return nil, err
	}
	if porter.User.VerificationStatus != domain.VerificationVerified {
		return nil, ErrPorterNotVerified
	}
	if !porter.Profile.IsAvailable {
		return nil, ErrPorterUnavailable
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, bookingID, bookingLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrBookingTaken
		}
		defer func() {
			if err := s.lockStore.ReleaseBookingLock(ctx, bookingID); err != nil {
				s.log.Warning("booking lock release failed", logger.String("booking_id", bookingID), logger.Error(err))
			}
		}()
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PorterID != "" {
		return nil, ErrBookingTaken
	}

	rate := porter.Profile.CommissionRate
	if rate <= 0 {
		rate = s.commissionRate
	}

	err = s.transition(ctx, booking, domain.BookingStatusConfirmed, func(b *domain.Booking, _ time.Time) {
		b.PorterID = porterID
		b.PorterCommission = roundMoney(b.TotalAmount * rate)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// StartPickup marks that the assigned porter is heading to the pickup.
func (s *BookingService) StartPickup(ctx context.Context, porterID, bookingID string) (*domain.Booking, error) {
	return s.porterStep(ctx, porterID, bookingID, domain.BookingStatusPickupPending, "", nil)
}

// ConfirmPickup records the handoff at pickup after checking the OTP.
func (s *BookingService) ConfirmPickup(ctx context.Context, porterID, bookingID, otp string) (*domain.Booking, error) {
	return s.porterStep(ctx, porterID, bookingID, domain.BookingStatusInStorage, otp, func(b *domain.Booking, now time.Time) {
		b.ActualPickupTime = now
	})
}

// MarkReadyForDelivery marks stored luggage as ready to leave storage.
func (s *BookingService) MarkReadyForDelivery(ctx context.Context, porterID, bookingID string) (*domain.Booking, error) {
	return s.porterStep(ctx, porterID, bookingID, domain.BookingStatusReadyForDelivery, "", nil)
}

// StartDelivery marks that the porter is on the way to the delivery address.
func (s *BookingService) StartDelivery(ctx context.Context, porterID, bookingID string) (*domain.Booking, error) {
	return s.porterStep(ctx, porterID, bookingID, domain.BookingStatusInTransit, "", nil)
}

// CompleteDelivery records the handoff at delivery after checking the OTP and
// credits the porter's commission.
func (s *BookingService) CompleteDelivery(ctx context.Context, porterID, bookingID, otp string) (*domain.Booking, error) {
	return s.porterStep(ctx, porterID, bookingID, domain.BookingStatusDelivered, otp, func(b *domain.Booking, now time.Time) {
		b.ActualDeliveryTime = now
	})
}

// porterStep applies a transition by the assigned porter. Moving to
// in-storage or delivered requires the booking OTP.
func (s *BookingService) porterStep(
	ctx context.Context,
	porterID, bookingID string,
	to domain.BookingStatus,
	otp string,
	mutate func(*domain.Booking, time.Time),
) (*domain.Booking, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PorterID != porterID {
		return nil, ErrForbidden
	}

	needsOTP := to == domain.BookingStatusInStorage || to == domain.BookingStatusDelivered
	if needsOTP && !otpMatches(booking.OTP, otp) {
		return nil, ErrInvalidOTP
	}

	if err := s.transition(ctx, booking, to, mutate); err != nil {
		return nil, err
	}
	return booking, nil
}

func otpMatches(expected, got string) bool {
	got = strings.TrimSpace(got)
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// CancelBookingRequest contains the parameters for cancelling a booking.
type CancelBookingRequest struct {
	BookingID string
	Actor     Actor
	Reason    string
}

// CancelBooking cancels a booking that has not been picked up yet.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	switch req.Actor.Role {
	case domain.RoleAdmin:
	case domain.RolePorter:
		if booking.PorterID != req.Actor.ID {
			return nil, ErrForbidden
		}
	default:
		if booking.UserID != req.Actor.ID {
			return nil, ErrForbidden
		}
	}

	if !CanTransition(booking.Status, domain.BookingStatusCancelled) {
		return nil, ErrBookingNotCancellable
	}

	err = s.transition(ctx, booking, domain.BookingStatusCancelled, func(b *domain.Booking, _ time.Time) {
		b.CancelReason = strings.TrimSpace(req.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyBookingCancelled(ctx, booking, req.Actor.ID)
	return booking, nil
}

// AddPhotoRequest contains the parameters for attaching a luggage photo.
type AddPhotoRequest struct {
	BookingID string
	URL       string
	Type      domain.PhotoType
	Actor     Actor
}

// AddVerificationPhoto attaches a photo to a booking. Customers may add
// original photos; the assigned porter adds pickup and delivery proofs.
func (s *BookingService) AddVerificationPhoto(ctx context.Context, req AddPhotoRequest) (*domain.LuggagePhoto, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if !domain.ValidPhotoType(req.Type) {
		return nil, ErrInvalidPhotoType
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, ErrNoPhotos
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	switch req.Actor.Role {
	case domain.RoleAdmin:
	case domain.RolePorter:
		if booking.PorterID != req.Actor.ID {
			return nil, ErrForbidden
		}
	default:
		if booking.UserID != req.Actor.ID || req.Type != domain.PhotoOriginal {
			return nil, ErrForbidden
		}
	}

	photo := &domain.LuggagePhoto{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		PhotoURL:   strings.TrimSpace(req.URL),
		PhotoType:  req.Type,
		UploadedBy: req.Actor.ID,
		CreatedAt:  s.now(),
	}
	if err := s.bookingRepo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// transition validates and persists a status change. Delivery credits the
// porter's commission in the same transaction.
func (s *BookingService) transition(
	ctx context.Context,
	booking *domain.Booking,
	to domain.BookingStatus,
	mutate func(*domain.Booking, time.Time),
) error {
	from := booking.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := s.now()
	updated := *booking
	updated.Status = to
	updated.UpdatedAt = now
	if mutate != nil {
		mutate(&updated, now)
	}

	err := s.txManager.WithTx(ctx, func(store repository.Store) error {
		if err := store.Bookings().Update(ctx, &updated, from); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return fmt.Errorf("%w: %s -> %s: booking changed concurrently", ErrInvalidTransition, from, to)
			}
			return err
		}
		if to == domain.BookingStatusDelivered && updated.PorterID != "" && updated.PorterCommission > 0 {
			return store.Porters().AddEarnings(ctx, updated.PorterID, updated.PorterCommission)
		}
		return nil
	})
	if err != nil {
		return err
	}

	*booking = updated
	metrics.IncBookingTransition(string(to))
	s.log.Info("booking status changed",
		logger.String("booking_id", booking.ID),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
	)

	if to != domain.BookingStatusCancelled {
		s.notifier.NotifyStatusChanged(ctx, booking)
	}
	return nil
}
