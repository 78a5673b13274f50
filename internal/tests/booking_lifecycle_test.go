package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/repository"
	"dropngo/internal/service"
)

// ──────────────────────────────────────────────
// 1. STATUS GRAPH
// ──────────────────────────────────────────────

func TestStatusGraph_AllowsOnlyForwardSteps(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from, to domain.BookingStatus
		allowed  bool
	}{
		{domain.BookingStatusPending, domain.BookingStatusConfirmed, true},
		{domain.BookingStatusConfirmed, domain.BookingStatusPickupPending, true},
		{domain.BookingStatusPickupPending, domain.BookingStatusInStorage, true},
		{domain.BookingStatusInStorage, domain.BookingStatusReadyForDelivery, true},
		{domain.BookingStatusReadyForDelivery, domain.BookingStatusInTransit, true},
		{domain.BookingStatusInTransit, domain.BookingStatusDelivered, true},
		{domain.BookingStatusPending, domain.BookingStatusCancelled, true},
		{domain.BookingStatusConfirmed, domain.BookingStatusCancelled, true},
		{domain.BookingStatusPickupPending, domain.BookingStatusCancelled, true},

		{domain.BookingStatusPending, domain.BookingStatusInStorage, false},
		{domain.BookingStatusInStorage, domain.BookingStatusCancelled, false},
		{domain.BookingStatusInTransit, domain.BookingStatusCancelled, false},
		{domain.BookingStatusDelivered, domain.BookingStatusCancelled, false},
		{domain.BookingStatusDelivered, domain.BookingStatusPending, false},
		{domain.BookingStatusCancelled, domain.BookingStatusPending, false},
		{domain.BookingStatusInTransit, domain.BookingStatusInStorage, false},
	}

	for _, tc := range testCases {
		if got := service.CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

// ──────────────────────────────────────────────
// 2. ACCEPTING BOOKINGS
// ──────────────────────────────────────────────

func TestAccept_AssignsPorterAndCommission(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

	booking, err := env.bookingService.AcceptBooking(context.Background(), "porter-1", "b-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected confirmed, got %s", booking.Status)
	}
	if booking.PorterID != "porter-1" {
		t.Errorf("expected porter-1, got %s", booking.PorterID)
	}
	if booking.PorterCommission != 100 {
		t.Errorf("expected commission 100, got %v", booking.PorterCommission)
	}

	stored := env.bookings.GetBooking("b-1")
	if stored.PorterID != "porter-1" || stored.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected assignment to be persisted, got %+v", stored)
	}
	if env.locks.IsLocked("b-1") {
		t.Error("expected booking lock to be released")
	}
	if got := env.notifier.StatusHistory(); len(got) != 1 || got[0] != domain.BookingStatusConfirmed {
		t.Errorf("expected confirmed notification, got %v", got)
	}
}

func TestAccept_ProfileWithoutRateUsesDefaultCommission(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	porter := newPorter("porter-1", domain.VerificationVerified, true)
	porter.Profile.CommissionRate = 0
	env.porters.AddPorter(porter)
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

	booking, err := env.bookingService.AcceptBooking(context.Background(), "porter-1", "b-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if booking.PorterCommission != 500*testPricing.CommissionRate {
		t.Errorf("expected default commission, got %v", booking.PorterCommission)
	}
}

func TestAccept_RejectedForIneligiblePorters(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		porter  *domain.Porter
		wantErr error
	}{
		{
			name:    "pending verification",
			porter:  newPorter("porter-1", domain.VerificationPending, true),
			wantErr: service.ErrPorterNotVerified,
		},
		{
			name:    "rejected",
			porter:  newPorter("porter-1", domain.VerificationRejected, true),
			wantErr: service.ErrPorterNotVerified,
		},
		{
			name:    "off duty",
			porter:  newPorter("porter-1", domain.VerificationVerified, false),
			wantErr: service.ErrPorterUnavailable,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv()
			env.porters.AddPorter(tc.porter)
			env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

			_, err := env.bookingService.AcceptBooking(context.Background(), "porter-1", "b-1")
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if env.bookings.GetBooking("b-1").PorterID != "" {
				t.Error("expected booking to stay unassigned")
			}
		})
	}
}

func TestAccept_LockedBooking_IsTaken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	env.locks.Hold("b-1", time.Minute)

	_, err := env.bookingService.AcceptBooking(context.Background(), "porter-1", "b-1")
	if !errors.Is(err, service.ErrBookingTaken) {
		t.Errorf("expected ErrBookingTaken, got %v", err)
	}
	if atomic.LoadInt32(&env.bookings.UpdateCallCount) != 0 {
		t.Error("expected no update while locked")
	}
}

func TestAccept_AlreadyAssigned_IsTaken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.porters.AddPorter(newPorter("porter-2", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	ctx := context.Background()

	if _, err := env.bookingService.AcceptBooking(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	_, err := env.bookingService.AcceptBooking(ctx, "porter-2", "b-1")
	if !errors.Is(err, service.ErrBookingTaken) {
		t.Errorf("expected ErrBookingTaken, got %v", err)
	}
	if env.bookings.GetBooking("b-1").PorterID != "porter-1" {
		t.Error("expected first porter to keep the booking")
	}
}

func TestAccept_ConcurrentPorters_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	const porters = 8
	for i := 0; i < porters; i++ {
		env.porters.AddPorter(newPorter(porterName(i), domain.VerificationVerified, true))
	}
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

	var (
		wg        sync.WaitGroup
		successes int32
		taken     int32
	)
	for i := 0; i < porters; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.bookingService.AcceptBooking(context.Background(), id, "b-1")
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case errors.Is(err, service.ErrBookingTaken):
				atomic.AddInt32(&taken, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(porterName(i))
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful accept, got %d", successes)
	}
	if taken != porters-1 {
		t.Errorf("expected %d taken errors, got %d", porters-1, taken)
	}
}

func porterName(i int) string {
	return "porter-" + string(rune('a'+i))
}

// ──────────────────────────────────────────────
// 3. HANDOFF LIFECYCLE
// ──────────────────────────────────────────────

func TestLifecycle_PickupToDelivery_CreditsEarnings(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	ctx := context.Background()
	svc := env.bookingService

	if _, err := svc.AcceptBooking(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.StartPickup(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("start pickup: %v", err)
	}

	if _, err := svc.ConfirmPickup(ctx, "porter-1", "b-1", "0000"); !errors.Is(err, service.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if env.bookings.GetBooking("b-1").Status != domain.BookingStatusPickupPending {
		t.Fatal("expected wrong otp to leave status unchanged")
	}

	stored, err := svc.ConfirmPickup(ctx, "porter-1", "b-1", " 4321 ")
	if err != nil {
		t.Fatalf("confirm pickup: %v", err)
	}
	if stored.ActualPickupTime.IsZero() {
		t.Error("expected actual pickup time to be recorded")
	}

	if _, err := svc.MarkReadyForDelivery(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := svc.StartDelivery(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("start delivery: %v", err)
	}
	if _, err := svc.CompleteDelivery(ctx, "porter-1", "b-1", ""); !errors.Is(err, service.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for empty otp, got %v", err)
	}

	delivered, err := svc.CompleteDelivery(ctx, "porter-1", "b-1", "4321")
	if err != nil {
		t.Fatalf("complete delivery: %v", err)
	}
	if delivered.Status != domain.BookingStatusDelivered {
		t.Errorf("expected delivered, got %s", delivered.Status)
	}
	if delivered.ActualDeliveryTime.IsZero() {
		t.Error("expected actual delivery time to be recorded")
	}

	if got := env.porters.GetProfile("porter-1").TotalEarnings; got != 100 {
		t.Errorf("expected earnings of 100, got %v", got)
	}

	want := []domain.BookingStatus{
		domain.BookingStatusConfirmed,
		domain.BookingStatusPickupPending,
		domain.BookingStatusInStorage,
		domain.BookingStatusReadyForDelivery,
		domain.BookingStatusInTransit,
		domain.BookingStatusDelivered,
	}
	got := env.notifier.StatusHistory()
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestLifecycle_SkippingSteps_Fails(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	ctx := context.Background()

	if _, err := env.bookingService.AcceptBooking(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := env.bookingService.StartDelivery(ctx, "porter-1", "b-1")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	_, err = env.bookingService.CompleteDelivery(ctx, "porter-1", "b-1", "4321")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if atomic.LoadInt32(&env.porters.AddEarningsCallCount) != 0 {
		t.Error("expected no earnings before delivery")
	}
}

func TestLifecycle_OtherPorter_IsForbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.porters.AddPorter(newPorter("porter-2", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	ctx := context.Background()

	if _, err := env.bookingService.AcceptBooking(ctx, "porter-1", "b-1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err := env.bookingService.StartPickup(ctx, "porter-2", "b-1")
	if !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestLifecycle_FailedDeliveryWrite_CreditsNothing(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	booking := newPendingBooking("b-1", "user-1")
	booking.Status = domain.BookingStatusInTransit
	booking.PorterID = "porter-1"
	booking.PorterCommission = 100
	env.bookings.AddBooking(booking)
	env.bookings.UpdateError = ErrMockTimeout

	_, err := env.bookingService.CompleteDelivery(context.Background(), "porter-1", "b-1", "4321")
	if !errors.Is(err, ErrMockTimeout) {
		t.Errorf("expected ErrMockTimeout, got %v", err)
	}
	if env.porters.GetProfile("porter-1").TotalEarnings != 0 {
		t.Error("expected no earnings when the booking update fails")
	}
	if len(env.notifier.StatusHistory()) != 0 {
		t.Error("expected no notification")
	}
}

// ──────────────────────────────────────────────
// 4. CANCELLATION
// ──────────────────────────────────────────────

func TestCancel_CustomerCancelsPendingBooking(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

	booking, err := env.bookingService.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID: "b-1",
		Actor:     service.Actor{ID: "user-1", Role: domain.RoleCustomer},
		Reason:    "  change of plans ",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", booking.Status)
	}
	if booking.CancelReason != "change of plans" {
		t.Errorf("expected trimmed reason, got %q", booking.CancelReason)
	}
	if len(env.notifier.Cancelled) != 1 || env.notifier.Cancelled[0] != "user-1" {
		t.Errorf("expected cancellation notification by user-1, got %v", env.notifier.Cancelled)
	}
	if len(env.notifier.StatusHistory()) != 0 {
		t.Error("expected cancellation to skip the status notification")
	}
}

func TestCancel_Rules(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  domain.BookingStatus
		actor   service.Actor
		wantErr error
	}{
		{
			name:    "owner before pickup",
			status:  domain.BookingStatusPickupPending,
			actor:   service.Actor{ID: "user-1", Role: domain.RoleCustomer},
			wantErr: nil,
		},
		{
			name:    "assigned porter",
			status:  domain.BookingStatusConfirmed,
			actor:   service.Actor{ID: "porter-1", Role: domain.RolePorter},
			wantErr: nil,
		},
		{
			name:    "admin",
			status:  domain.BookingStatusConfirmed,
			actor:   service.Actor{ID: "admin-1", Role: domain.RoleAdmin},
			wantErr: nil,
		},
		{
			name:    "other customer",
			status:  domain.BookingStatusPending,
			actor:   service.Actor{ID: "user-2", Role: domain.RoleCustomer},
			wantErr: service.ErrForbidden,
		},
		{
			name:    "other porter",
			status:  domain.BookingStatusConfirmed,
			actor:   service.Actor{ID: "porter-2", Role: domain.RolePorter},
			wantErr: service.ErrForbidden,
		},
		{
			name:    "in storage",
			status:  domain.BookingStatusInStorage,
			actor:   service.Actor{ID: "user-1", Role: domain.RoleCustomer},
			wantErr: service.ErrBookingNotCancellable,
		},
		{
			name:    "delivered",
			status:  domain.BookingStatusDelivered,
			actor:   service.Actor{ID: "admin-1", Role: domain.RoleAdmin},
			wantErr: service.ErrBookingNotCancellable,
		},
		{
			name:    "already cancelled",
			status:  domain.BookingStatusCancelled,
			actor:   service.Actor{ID: "user-1", Role: domain.RoleCustomer},
			wantErr: service.ErrBookingNotCancellable,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv()
			booking := newPendingBooking("b-1", "user-1")
			booking.Status = tc.status
			booking.PorterID = "porter-1"
			env.bookings.AddBooking(booking)

			_, err := env.bookingService.CancelBooking(context.Background(), service.CancelBookingRequest{
				BookingID: "b-1",
				Actor:     tc.actor,
			})
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if env.bookings.GetBooking("b-1").Status != domain.BookingStatusCancelled {
					t.Error("expected booking to be cancelled")
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if env.bookings.GetBooking("b-1").Status != tc.status {
				t.Error("expected status to be unchanged")
			}
		})
	}
}

// ──────────────────────────────────────────────
// 5. VISIBILITY, PHOTOS AND ADMIN OVERRIDES
// ──────────────────────────────────────────────

func TestVisibility_PortersSeeOpenAndAssignedBookings(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	open := newPendingBooking("open", "user-1")
	mine := newPendingBooking("mine", "user-1")
	mine.Status = domain.BookingStatusConfirmed
	mine.PorterID = "porter-1"
	theirs := newPendingBooking("theirs", "user-1")
	theirs.Status = domain.BookingStatusConfirmed
	theirs.PorterID = "porter-2"
	for _, b := range []*domain.Booking{open, mine, theirs} {
		env.bookings.AddBooking(b)
	}

	ctx := context.Background()
	porter := service.Actor{ID: "porter-1", Role: domain.RolePorter}
	for _, id := range []string{"open", "mine"} {
		if _, err := env.bookingService.GetBooking(ctx, porter, id); err != nil {
			t.Errorf("expected porter to see %s, got %v", id, err)
		}
	}
	if _, err := env.bookingService.GetBooking(ctx, porter, "theirs"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	list, err := env.bookingService.ListOpen(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(list) != 1 || list[0].ID != "open" {
		t.Errorf("expected only the open booking, got %d", len(list))
	}
}

func TestPhotos_UploadRules(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		photoType domain.PhotoType
		actor     service.Actor
		wantErr   error
	}{
		{"customer original", domain.PhotoOriginal, service.Actor{ID: "user-1", Role: domain.RoleCustomer}, nil},
		{"customer proof", domain.PhotoPickupVerification, service.Actor{ID: "user-1", Role: domain.RoleCustomer}, service.ErrForbidden},
		{"assigned porter proof", domain.PhotoDeliveryVerification, service.Actor{ID: "porter-1", Role: domain.RolePorter}, nil},
		{"other porter", domain.PhotoPickupVerification, service.Actor{ID: "porter-2", Role: domain.RolePorter}, service.ErrForbidden},
		{"unknown type", "selfie", service.Actor{ID: "admin-1", Role: domain.RoleAdmin}, service.ErrInvalidPhotoType},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv()
			booking := newPendingBooking("b-1", "user-1")
			booking.PorterID = "porter-1"
			env.bookings.AddBooking(booking)

			photo, err := env.bookingService.AddVerificationPhoto(context.Background(), service.AddPhotoRequest{
				BookingID: "b-1",
				URL:       "https://cdn.test/luggage/proof.jpg",
				Type:      tc.photoType,
				Actor:     tc.actor,
			})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if photo.UploadedBy != tc.actor.ID {
				t.Errorf("expected uploader %s, got %s", tc.actor.ID, photo.UploadedBy)
			}
			if len(env.bookings.GetBooking("b-1").Photos) != 1 {
				t.Error("expected photo to be stored")
			}
		})
	}
}

func TestAdminStatus_Update(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))
	ctx := context.Background()

	_, err := env.bookingService.UpdateStatus(ctx, service.UpdateStatusRequest{BookingID: "b-1", Status: "lost"})
	if !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}

	_, err = env.bookingService.UpdateStatus(ctx, service.UpdateStatusRequest{BookingID: "b-1", Status: domain.BookingStatusDelivered})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	booking, err := env.bookingService.UpdateStatus(ctx, service.UpdateStatusRequest{
		BookingID: "b-1",
		Status:    domain.BookingStatusCancelled,
		Reason:    "duplicate",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if booking.CancelReason != "duplicate" {
		t.Errorf("expected reason to be stored, got %q", booking.CancelReason)
	}

	_, err = env.bookingService.UpdateStatus(ctx, service.UpdateStatusRequest{BookingID: "missing", Status: domain.BookingStatusConfirmed})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 6. OVERLAPPING WRITES
// ──────────────────────────────────────────────

// gatedBookingService returns a booking service whose reads wait until
// parties callers have loaded the booking.
func gatedBookingService(env *testEnv, parties int) *service.BookingService {
	return service.NewBookingService(
		env.tx, NewGatedBookingRepository(env.bookings, parties), env.users, env.porters,
		env.pricingService, env.locks, env.notifier, testPricing.CommissionRate, logger.Nop(),
	)
}

// runOverlapping starts every call at once and returns their errors in order.
func runOverlapping(calls ...func() error) []error {
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call func() error) {
			defer wg.Done()
			errs[i] = call()
		}(i, call)
	}
	wg.Wait()
	return errs
}

func TestOverlap_DuplicateCompleteDelivery_CreditsOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	booking := newPendingBooking("b-1", "user-1")
	booking.Status = domain.BookingStatusInTransit
	booking.PorterID = "porter-1"
	booking.PorterCommission = 100
	env.bookings.AddBooking(booking)

	svc := gatedBookingService(env, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	complete := func() error {
		_, err := svc.CompleteDelivery(ctx, "porter-1", "b-1", "4321")
		return err
	}
	errs := runOverlapping(complete, complete)

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, service.ErrInvalidTransition):
			t.Errorf("expected ErrInvalidTransition for the losing call, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one delivery to succeed, got %d (%v)", succeeded, errs)
	}
	if got := env.porters.GetProfile("porter-1").TotalEarnings; got != 100 {
		t.Errorf("expected earnings of 100, got %v", got)
	}
	if got := atomic.LoadInt32(&env.porters.AddEarningsCallCount); got != 1 {
		t.Errorf("expected earnings credited once, got %d", got)
	}
	if got := env.notifier.StatusHistory(); len(got) != 1 {
		t.Errorf("expected one delivered notification, got %v", got)
	}
}

func TestOverlap_DuplicateConfirmPickup_OneWins(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	booking := newPendingBooking("b-1", "user-1")
	booking.Status = domain.BookingStatusPickupPending
	booking.PorterID = "porter-1"
	env.bookings.AddBooking(booking)

	svc := gatedBookingService(env, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	confirm := func() error {
		_, err := svc.ConfirmPickup(ctx, "porter-1", "b-1", "4321")
		return err
	}
	errs := runOverlapping(confirm, confirm)

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, service.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for the losing call, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one pickup confirmation, got %d (%v)", succeeded, errs)
	}
	if got := env.bookings.GetBooking("b-1").Status; got != domain.BookingStatusInStorage {
		t.Errorf("expected in-storage, got %s", got)
	}
}

func TestOverlap_CancelAgainstAccept_StateMatchesWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.porters.AddPorter(newPorter("porter-1", domain.VerificationVerified, true))
	env.bookings.AddBooking(newPendingBooking("b-1", "user-1"))

	svc := gatedBookingService(env, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := runOverlapping(
		func() error {
			_, err := svc.CancelBooking(ctx, service.CancelBookingRequest{
				BookingID: "b-1",
				Actor:     service.Actor{ID: "user-1", Role: domain.RoleCustomer},
				Reason:    "plans changed",
			})
			return err
		},
		func() error {
			_, err := svc.AcceptBooking(ctx, "porter-1", "b-1")
			return err
		},
	)
	cancelErr, acceptErr := errs[0], errs[1]

	if (cancelErr == nil) == (acceptErr == nil) {
		t.Fatalf("expected exactly one call to win, got cancel=%v accept=%v", cancelErr, acceptErr)
	}

	final := env.bookings.GetBooking("b-1")
	if cancelErr == nil {
		if final.Status != domain.BookingStatusCancelled || final.PorterID != "" {
			t.Errorf("cancel won but booking is %s with porter %q", final.Status, final.PorterID)
		}
		if !errors.Is(acceptErr, service.ErrInvalidTransition) {
			t.Errorf("expected accept to fail with ErrInvalidTransition, got %v", acceptErr)
		}
		return
	}

	if final.Status != domain.BookingStatusConfirmed || final.PorterID != "porter-1" {
		t.Errorf("accept won but booking is %s with porter %q", final.Status, final.PorterID)
	}
	if !errors.Is(cancelErr, service.ErrInvalidTransition) {
		t.Errorf("expected cancel to fail with ErrInvalidTransition, got %v", cancelErr)
	}
	if len(env.notifier.Cancelled) != 0 {
		t.Errorf("expected no cancellation notice, got %v", env.notifier.Cancelled)
	}
}
