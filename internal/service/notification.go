package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/metrics"
	"dropngo/internal/notify"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated    NotificationType = "BOOKING_CREATED"
	NotificationPorterAssigned    NotificationType = "PORTER_ASSIGNED"
	NotificationPickupStarted     NotificationType = "PICKUP_STARTED"
	NotificationLuggageStored     NotificationType = "LUGGAGE_STORED"
	NotificationReadyForDelivery  NotificationType = "READY_FOR_DELIVERY"
	NotificationOutForDelivery    NotificationType = "OUT_FOR_DELIVERY"
	NotificationDelivered         NotificationType = "DELIVERED"
	NotificationBookingCancelled  NotificationType = "BOOKING_CANCELLED"
	NotificationPorterApproved    NotificationType = "PORTER_APPROVED"
	NotificationPorterRejected    NotificationType = "PORTER_REJECTED"
	NotificationPorterApplication NotificationType = "PORTER_APPLICATION"
)

// Notifier is the notification surface used by the other services.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, booking *domain.Booking, user *domain.User)
	NotifyStatusChanged(ctx context.Context, booking *domain.Booking)
	NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, cancelledBy string)
	NotifyPorterReviewed(ctx context.Context, porter *domain.User, status domain.VerificationStatus)
	NotifyPorterApplied(ctx context.Context, porter *domain.User)
}

// Ensure NotificationService implements Notifier.
var _ Notifier = (*NotificationService)(nil)

// NotificationService fans notifications out to every configured channel.
// Delivery failures are logged and never returned to callers.
type NotificationService struct {
	channels []notify.Channel
	log      logger.ILogger

	// slots bounds in-flight background deliveries; nil delivers inline.
	slots   chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotificationService creates a NotificationService that delivers inline.
func NewNotificationService(log logger.ILogger, channels ...notify.Channel) *NotificationService {
	return &NotificationService{channels: channels, log: log}
}

// WithAsyncDelivery moves delivery off the caller's goroutine. At most
// maxInFlight notifications are delivered at once, each bounded by timeout
// and detached from the caller's cancellation.
func (s *NotificationService) WithAsyncDelivery(maxInFlight int, timeout time.Duration) *NotificationService {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	s.slots = make(chan struct{}, maxInFlight)
	s.timeout = timeout
	return s
}

// Close waits for background deliveries to finish or ctx to expire.
func (s *NotificationService) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyBookingCreated sends the booking confirmation with the handoff OTP.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking, user *domain.User) {
	n := notify.Notification{
		Type:        string(NotificationBookingCreated),
		RecipientID: booking.UserID,
		Title:       "Booking Confirmed",
		Message: fmt.Sprintf("Booking %s placed. Pickup from %s at %s. Total: %.2f",
			booking.BookingNumber, booking.PickupLocation, booking.PickupTime.Format(time.RFC1123), booking.TotalAmount),
		Data: map[string]string{
			"booking_id":     booking.ID,
			"booking_number": booking.BookingNumber,
			"otp":            booking.OTP,
		},
	}
	if user != nil {
		n.RecipientEmail = user.Email
	}
	s.send(ctx, n)
}

// NotifyStatusChanged tells the customer about lifecycle progress.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, booking *domain.Booking) {
	var (
		typ     NotificationType
		title   string
		message string
	)

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		typ, title, message = NotificationPorterAssigned, "Porter Assigned", "A porter has accepted your booking"
	case domain.BookingStatusPickupPending:
		typ, title, message = NotificationPickupStarted, "Porter On The Way", "Your porter is heading to the pickup location"
	case domain.BookingStatusInStorage:
		typ, title, message = NotificationLuggageStored, "Luggage Stored", "Your luggage has been picked up and stored safely"
	case domain.BookingStatusReadyForDelivery:
		typ, title, message = NotificationReadyForDelivery, "Ready For Delivery", "Your luggage is ready for delivery"
	case domain.BookingStatusInTransit:
		typ, title, message = NotificationOutForDelivery, "Out For Delivery", "Your luggage is on its way to "+booking.DeliveryLocation
	case domain.BookingStatusDelivered:
		typ, title, message = NotificationDelivered, "Delivered", "Your luggage has been delivered"
	default:
		return
	}

	s.send(ctx, notify.Notification{
		Type:        string(typ),
		RecipientID: booking.UserID,
		Title:       title,
		Message:     fmt.Sprintf("%s (booking %s)", message, booking.BookingNumber),
		Data: map[string]string{
			"booking_id":     booking.ID,
			"booking_number": booking.BookingNumber,
			"status":         string(booking.Status),
		},
	})
}

// NotifyBookingCancelled notifies the other party about a cancellation.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, cancelledBy string) {
	recipientID := booking.UserID
	message := "Your booking has been cancelled"
	if cancelledBy == booking.UserID {
		recipientID = booking.PorterID
		message = "The customer has cancelled the booking"
	}
	if recipientID == "" {
		return
	}

	s.send(ctx, notify.Notification{
		Type:        string(NotificationBookingCancelled),
		RecipientID: recipientID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("%s (booking %s)", message, booking.BookingNumber),
		Data: map[string]string{
			"booking_id": booking.ID,
			"reason":     booking.CancelReason,
		},
	})
}

// NotifyPorterReviewed tells a porter the outcome of their application.
func (s *NotificationService) NotifyPorterReviewed(ctx context.Context, porter *domain.User, status domain.VerificationStatus) {
	typ, title, message := NotificationPorterApproved, "Application Approved", "You can now go online and accept bookings"
	if status == domain.VerificationRejected {
		typ, title, message = NotificationPorterRejected, "Application Rejected", "Your porter application was not approved"
	}

	s.send(ctx, notify.Notification{
		Type:           string(typ),
		RecipientID:    porter.ID,
		RecipientEmail: porter.Email,
		Title:          title,
		Message:        message,
	})
}

// NotifyPorterApplied records a new porter application for admins.
func (s *NotificationService) NotifyPorterApplied(ctx context.Context, porter *domain.User) {
	s.send(ctx, notify.Notification{
		Type:        string(NotificationPorterApplication),
		RecipientID: porter.ID,
		Title:       "Application Received",
		Message:     "Your porter application is under review",
		Data: map[string]string{
			"porter_id": porter.ID,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, n notify.Notification) {
	n.CreatedAt = time.Now()
	if s.slots == nil {
		s.deliver(ctx, n)
		return
	}

	select {
	case s.slots <- struct{}{}:
	default:
		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			s.log.Warning("notification dropped",
				logger.String("type", n.Type),
				logger.String("recipient", n.RecipientID),
				logger.Error(ctx.Err()),
			)
			return
		}
	}

	s.wg.Add(1)
	go func() {
		defer func() {
			<-s.slots
			s.wg.Done()
		}()
		deliverCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			deliverCtx, cancel = context.WithTimeout(deliverCtx, s.timeout)
			defer cancel()
		}
		s.deliver(deliverCtx, n)
	}()
}

func (s *NotificationService) deliver(ctx context.Context, n notify.Notification) {
	for _, ch := range s.channels {
		err := ch.Send(ctx, n)
		metrics.IncNotification(ch.Name(), err == nil)
		if err != nil {
			s.log.Error("notification delivery failed",
				logger.String("channel", ch.Name()),
				logger.String("type", n.Type),
				logger.String("recipient", n.RecipientID),
				logger.Error(err),
			)
		}
	}
}
