package tests

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/service"
)

// ──────────────────────────────────────────────
// 1. IMAGE UPLOADS
// ──────────────────────────────────────────────

func TestUpload_Validation(t *testing.T) {
	t.Parallel()

	const maxSize = 1024
	testCases := []struct {
		name     string
		filename string
		folder   string
		body     []byte
		wantErr  error
	}{
		{"png", "bag.png", "luggage", []byte("png-bytes"), nil},
		{"uppercase jpeg", "ID.JPEG", "documents", []byte("jpeg-bytes"), nil},
		{"webp default folder", "bag.webp", "", []byte("webp-bytes"), nil},
		{"exactly max size", "bag.jpg", "luggage", bytes.Repeat([]byte("a"), maxSize), nil},
		{"gif", "bag.gif", "luggage", []byte("gif"), service.ErrUnsupportedFileType},
		{"no extension", "bag", "luggage", []byte("data"), service.ErrUnsupportedFileType},
		{"unknown folder", "bag.png", "../etc", []byte("data"), service.ErrMissingField},
		{"empty file", "bag.png", "luggage", nil, service.ErrMissingField},
		{"too large", "bag.png", "luggage", bytes.Repeat([]byte("a"), maxSize+1), service.ErrFileTooLarge},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewMockStorage()
			svc := service.NewUploadService(store, maxSize, logger.Nop())
			url, err := svc.Upload(context.Background(), service.UploadRequest{
				Filename: tc.filename,
				Folder:   tc.folder,
				Body:     bytes.NewReader(tc.body),
			})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}

			data, ok := store.Object(url)
			if !ok {
				t.Fatalf("expected object stored at %s", url)
			}
			if !bytes.Equal(data, tc.body) {
				t.Error("expected stored bytes to match the upload")
			}
			wantFolder := tc.folder
			if wantFolder == "" {
				wantFolder = service.FolderGeneral
			}
			if !strings.Contains(url, "/"+wantFolder+"/") {
				t.Errorf("expected url in folder %s, got %s", wantFolder, url)
			}
		})
	}
}

func TestUpload_StorageFailure_Propagates(t *testing.T) {
	t.Parallel()

	store := NewMockStorage()
	store.SaveError = ErrMockTimeout
	svc := service.NewUploadService(store, 1024, logger.Nop())

	_, err := svc.Upload(context.Background(), service.UploadRequest{
		Filename: "bag.png",
		Body:     strings.NewReader("data"),
	})
	if !errors.Is(err, ErrMockTimeout) {
		t.Errorf("expected ErrMockTimeout, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. NOTIFICATIONS
// ──────────────────────────────────────────────

func TestNotifications_FanOutDespiteChannelFailure(t *testing.T) {
	t.Parallel()

	failing := NewMockChannel("email")
	failing.SendError = ErrMockTimeout
	ok := NewMockChannel("log")
	svc := service.NewNotificationService(logger.Nop(), failing, ok)

	booking := newPendingBooking("b-1", "user-1")
	svc.NotifyBookingCreated(context.Background(), booking, newCustomer("user-1"))

	for _, ch := range []*MockChannel{failing, ok} {
		sent := ch.Sent()
		if len(sent) != 1 {
			t.Fatalf("%s: expected 1 notification, got %d", ch.Name(), len(sent))
		}
		n := sent[0]
		if n.Type != string(service.NotificationBookingCreated) {
			t.Errorf("%s: unexpected type %s", ch.Name(), n.Type)
		}
		if n.RecipientEmail != "user-1@example.com" {
			t.Errorf("%s: expected customer email, got %q", ch.Name(), n.RecipientEmail)
		}
		if n.Data["otp"] != "4321" || !strings.Contains(n.Message, booking.BookingNumber) {
			t.Errorf("%s: expected otp and booking number, got %+v", ch.Name(), n)
		}
	}
}

func TestNotifications_StatusMessages(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   domain.BookingStatus
		wantType service.NotificationType
	}{
		{domain.BookingStatusConfirmed, service.NotificationPorterAssigned},
		{domain.BookingStatusPickupPending, service.NotificationPickupStarted},
		{domain.BookingStatusInStorage, service.NotificationLuggageStored},
		{domain.BookingStatusReadyForDelivery, service.NotificationReadyForDelivery},
		{domain.BookingStatusInTransit, service.NotificationOutForDelivery},
		{domain.BookingStatusDelivered, service.NotificationDelivered},
		{domain.BookingStatusPending, ""},
		{domain.BookingStatusCancelled, ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()

			ch := NewMockChannel("log")
			svc := service.NewNotificationService(logger.Nop(), ch)
			booking := newPendingBooking("b-1", "user-1")
			booking.Status = tc.status
			svc.NotifyStatusChanged(context.Background(), booking)

			sent := ch.Sent()
			if tc.wantType == "" {
				if len(sent) != 0 {
					t.Errorf("expected no notification, got %+v", sent)
				}
				return
			}
			if len(sent) != 1 || sent[0].Type != string(tc.wantType) {
				t.Fatalf("expected %s, got %+v", tc.wantType, sent)
			}
			if sent[0].RecipientID != "user-1" || sent[0].Data["status"] != string(tc.status) {
				t.Errorf("unexpected notification %+v", sent[0])
			}
			if tc.status == domain.BookingStatusInTransit && !strings.Contains(sent[0].Message, booking.DeliveryLocation) {
				t.Errorf("expected delivery location in message, got %q", sent[0].Message)
			}
		})
	}
}

func TestNotifications_CancellationGoesToOtherParty(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel("log")
	svc := service.NewNotificationService(logger.Nop(), ch)
	ctx := context.Background()

	booking := newPendingBooking("b-1", "user-1")
	svc.NotifyBookingCancelled(ctx, booking, "user-1")
	if len(ch.Sent()) != 0 {
		t.Error("expected no notification when no porter is assigned")
	}

	booking.PorterID = "porter-1"
	svc.NotifyBookingCancelled(ctx, booking, "user-1")
	svc.NotifyBookingCancelled(ctx, booking, "admin-1")

	sent := ch.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sent))
	}
	if sent[0].RecipientID != "porter-1" {
		t.Errorf("expected customer cancellation to reach the porter, got %s", sent[0].RecipientID)
	}
	if sent[1].RecipientID != "user-1" {
		t.Errorf("expected admin cancellation to reach the customer, got %s", sent[1].RecipientID)
	}
}

func TestNotifications_PorterReview(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel("log")
	svc := service.NewNotificationService(logger.Nop(), ch)
	porter := newPorter("porter-1", domain.VerificationPending, false)

	svc.NotifyPorterReviewed(context.Background(), &porter.User, domain.VerificationVerified)
	svc.NotifyPorterReviewed(context.Background(), &porter.User, domain.VerificationRejected)

	sent := ch.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sent))
	}
	if sent[0].Type != string(service.NotificationPorterApproved) || sent[1].Type != string(service.NotificationPorterRejected) {
		t.Errorf("unexpected types %s, %s", sent[0].Type, sent[1].Type)
	}
	if sent[0].RecipientEmail != porter.User.Email {
		t.Errorf("expected porter email, got %q", sent[0].RecipientEmail)
	}
}

func TestNotifications_AsyncDelivery_DoesNotBlockCaller(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel("email")
	ch.Block = make(chan struct{})
	svc := service.NewNotificationService(logger.Nop(), ch).WithAsyncDelivery(4, 5*time.Second)

	returned := make(chan struct{})
	go func() {
		svc.NotifyBookingCreated(context.Background(), newPendingBooking("b-1", "user-1"), newCustomer("user-1"))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("expected caller to return while the channel is blocked")
	}
	if len(ch.Sent()) != 0 {
		t.Fatal("expected delivery to still be pending")
	}

	close(ch.Block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Close(ctx); err != nil {
		t.Fatalf("expected pending delivery to drain, got: %v", err)
	}
	if len(ch.Sent()) != 1 {
		t.Errorf("expected 1 notification after drain, got %d", len(ch.Sent()))
	}
}

func TestNotifications_AsyncDelivery_SurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel("log")
	svc := service.NewNotificationService(logger.Nop(), ch).WithAsyncDelivery(1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	booking := newPendingBooking("b-1", "user-1")
	booking.Status = domain.BookingStatusConfirmed
	svc.NotifyStatusChanged(ctx, booking)

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer drainCancel()
	if err := svc.Close(drainCtx); err != nil {
		t.Fatalf("expected drain, got: %v", err)
	}
	if len(ch.Sent()) != 1 {
		t.Errorf("expected delivery after the request ended, got %d", len(ch.Sent()))
	}
}

func TestNotifications_AsyncDelivery_GivesUpAfterTimeout(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel("email")
	ch.Block = make(chan struct{})
	defer close(ch.Block)
	svc := service.NewNotificationService(logger.Nop(), ch).WithAsyncDelivery(1, 50*time.Millisecond)

	svc.NotifyBookingCreated(context.Background(), newPendingBooking("b-1", "user-1"), newCustomer("user-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Close(ctx); err != nil {
		t.Fatalf("expected stuck delivery to time out, got: %v", err)
	}
	if len(ch.Sent()) != 0 {
		t.Errorf("expected no recorded delivery, got %d", len(ch.Sent()))
	}
}
