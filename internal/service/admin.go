package service

import (
	"context"
	"fmt"
	"io"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/metrics"
	"dropngo/internal/redis"
	"dropngo/internal/repository"
)

// Porter review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// exportLimit bounds the rows written to an XLSX export.
const exportLimit = 10000

// RateUpdater replaces the active rate table.
type RateUpdater interface {
	UpdateRates(ctx context.Context, table domain.RateTable) (domain.RateTable, error)
}

// AdminService backs the admin dashboard.
type AdminService struct {
	userRepo    repository.UserRepository
	porterRepo  repository.PorterRepository
	bookingRepo repository.BookingRepository
	rates       RateUpdater
	porterCache redis.PorterCache
	notifier    Notifier
	log         logger.ILogger
}

// NewAdminService creates a new AdminService. porterCache may be nil.
func NewAdminService(
	userRepo repository.UserRepository,
	porterRepo repository.PorterRepository,
	bookingRepo repository.BookingRepository,
	rates RateUpdater,
	porterCache redis.PorterCache,
	notifier Notifier,
	log logger.ILogger,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		porterRepo:  porterRepo,
		bookingRepo: bookingRepo,
		rates:       rates,
		porterCache: porterCache,
		notifier:    notifier,
		log:         log,
	}
}

// DashboardStats are the figures shown on the admin dashboard.
type DashboardStats struct {
	Bookings       *domain.BookingStats
	Porters        map[domain.VerificationStatus]int
	TotalPorters   int
	TotalCustomers int
}

// Stats aggregates bookings, revenue and porters by verification status.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	bookingStats, err := s.bookingRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking stats: %w", err)
	}

	porters, err := s.userRepo.List(ctx, repository.UserFilter{Role: domain.RolePorter})
	if err != nil {
		return nil, fmt.Errorf("list porters: %w", err)
	}
	customers, err := s.userRepo.List(ctx, repository.UserFilter{Role: domain.RoleCustomer})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	stats := &DashboardStats{
		Bookings: bookingStats,
		Porters: map[domain.VerificationStatus]int{
			domain.VerificationPending:  0,
			domain.VerificationVerified: 0,
			domain.VerificationRejected: 0,
		},
		TotalPorters:   len(porters),
		TotalCustomers: len(customers),
	}
	for _, p := range porters {
		stats.Porters[p.VerificationStatus]++
	}
	return stats, nil
}

// ListPorters lists porters with an optional verification filter and search.
func (s *AdminService) ListPorters(ctx context.Context, verification domain.VerificationStatus, search string) ([]*domain.Porter, error) {
	return s.porterRepo.List(ctx, repository.UserFilter{
		Verification: verification,
		Search:       search,
	})
}

// ReviewPorter approves or rejects a porter application. Rejected porters
// are also taken offline.
func (s *AdminService) ReviewPorter(ctx context.Context, porterID, decision string) (*domain.Porter, error) {
	var status domain.VerificationStatus
	switch decision {
	case DecisionApprove:
		status = domain.VerificationVerified
	case DecisionReject:
		status = domain.VerificationRejected
	default:
		return nil, ErrInvalidDecision
	}

	porter, err := s.porterRepo.GetByUserID(ctx, porterID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateVerification(ctx, porterID, status); err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}
	porter.User.VerificationStatus = status

	if status == domain.VerificationRejected && porter.Profile.IsAvailable {
		if err := s.porterRepo.SetAvailability(ctx, porterID, false); err != nil {
			return nil, fmt.Errorf("set availability: %w", err)
		}
		porter.Profile.IsAvailable = false
	}

	if s.porterCache != nil {
		if err := s.porterCache.InvalidatePorter(ctx, porterID); err != nil {
			s.log.Warning("porter cache invalidation failed", logger.String("porter_id", porterID), logger.Error(err))
		}
	}

	metrics.IncPorterDecision(decision)
	s.log.Info("porter reviewed",
		logger.String("porter_id", porterID),
		logger.String("status", string(status)),
	)
	s.notifier.NotifyPorterReviewed(ctx, &porter.User, status)
	return porter, nil
}

// UpdatePricing replaces the active rate table.
func (s *AdminService) UpdatePricing(ctx context.Context, table domain.RateTable) (domain.RateTable, error) {
	return s.rates.UpdateRates(ctx, table)
}

// ExportBookings writes the bookings matching filter to w as XLSX.
func (s *AdminService) ExportBookings(ctx context.Context, filter domain.BookingFilter, w io.Writer) error {
	if filter.Status != "" && !domain.ValidBookingStatus(filter.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	filter.Limit = exportLimit
	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return err
	}
	return WriteBookingsXLSX(w, bookings)
}
