package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
)

// Earnings periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// PorterService serves the porter's own profile, availability and earnings.
type PorterService struct {
	porterRepo  repository.PorterRepository
	bookingRepo repository.BookingRepository
	porterCache redis.PorterCache
	geoStore    redis.LocationStoreInterface
	log         logger.ILogger
	now         func() time.Time
}

// NewPorterService creates a new PorterService. porterCache and geoStore may be nil.
func NewPorterService(
	porterRepo repository.PorterRepository,
	bookingRepo repository.BookingRepository,
	porterCache redis.PorterCache,
	geoStore redis.LocationStoreInterface,
	log logger.ILogger,
) *PorterService {
	return &PorterService{
		porterRepo:  porterRepo,
		bookingRepo: bookingRepo,
		porterCache: porterCache,
		geoStore:    geoStore,
		log:         log,
		now:         time.Now,
	}
}

// PorterDetails is a porter with onboarding documents.
type PorterDetails struct {
	Porter    *domain.Porter
	Documents []*domain.PorterDocument
}

// GetProfile returns the porter with documents.
func (s *PorterService) GetProfile(ctx context.Context, porterID string) (*PorterDetails, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	porter, err := s.porterRepo.GetByUserID(ctx, porterID)
	if err != nil {
		return nil, err
	}
	docs, err := s.porterRepo.ListDocuments(ctx, porterID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &PorterDetails{Porter: porter, Documents: docs}, nil
}

// SetAvailability toggles whether the porter accepts new bookings. Only
// verified porters may go available.
func (s *PorterService) SetAvailability(ctx context.Context, porterID string, available bool) (*domain.Porter, error) {
	porter, err := s.porterRepo.GetByUserID(ctx, porterID)
	if err != nil {
		return nil, err
	}
	if available && porter.User.VerificationStatus != domain.VerificationVerified {
		return nil, ErrPorterNotVerified
	}

	if err := s.porterRepo.SetAvailability(ctx, porterID, available); err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}
	porter.Profile.IsAvailable = available

	if s.porterCache != nil {
		if err := s.porterCache.InvalidatePorter(ctx, porterID); err != nil {
			s.log.Warning("porter cache invalidation failed", logger.String("porter_id", porterID), logger.Error(err))
		}
	}
	if !available && s.geoStore != nil {
		if err := s.geoStore.RemoveLocation(ctx, porterID); err != nil {
			s.log.Warning("geo index removal failed", logger.String("porter_id", porterID), logger.Error(err))
		}
	}

	s.log.Info("porter availability changed",
		logger.String("porter_id", porterID),
		logger.Bool("available", available),
	)
	return porter, nil
}

// Bookings returns the porter's assigned bookings, newest first.
func (s *PorterService) Bookings(ctx context.Context, porterID string) ([]*domain.Booking, error) {
	if porterID == "" {
		return nil, ErrInvalidPorterID
	}
	return s.bookingRepo.ListByPorter(ctx, porterID)
}

// EarningEntry is the commission earned on one delivered booking.
type EarningEntry struct {
	BookingID     string    `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	Amount        float64   `json:"amount"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

// EarningsSummary aggregates a porter's commission over a period.
type EarningsSummary struct {
	Period         string         `json:"period"`
	TotalEarnings  float64        `json:"total_earnings"`
	PeriodEarnings float64        `json:"period_earnings"`
	Deliveries     int            `json:"deliveries"`
	Entries        []EarningEntry `json:"entries"`
}

// periodStart returns the earliest delivery time included in period. The
// zero time means no lower bound.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodAll, "":
		return time.Time{}, nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}

// Earnings summarizes commission on delivered bookings within period.
func (s *PorterService) Earnings(ctx context.Context, porterID, period string) (*EarningsSummary, error) {
	since, err := periodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodAll
	}

	porter, err := s.porterRepo.GetByUserID(ctx, porterID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListByPorter(ctx, porterID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	summary := &EarningsSummary{
		Period:        period,
		TotalEarnings: roundMoney(porter.Profile.TotalEarnings),
		Entries:       []EarningEntry{},
	}
	var sum float64
	for _, b := range bookings {
		if b.Status != domain.BookingStatusDelivered {
			continue
		}
		delivered := b.ActualDeliveryTime
		if delivered.IsZero() {
			delivered = b.UpdatedAt
		}
		if !since.IsZero() && delivered.Before(since) {
			continue
		}
		sum += b.PorterCommission
		summary.Entries = append(summary.Entries, EarningEntry{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			Amount:        roundMoney(b.PorterCommission),
			DeliveredAt:   delivered,
		})
	}
	sort.Slice(summary.Entries, func(i, j int) bool {
		return summary.Entries[i].DeliveredAt.After(summary.Entries[j].DeliveredAt)
	})
	summary.Deliveries = len(summary.Entries)
	summary.PeriodEarnings = roundMoney(sum)
	return summary, nil
}
