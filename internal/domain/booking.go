package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending          BookingStatus = "pending"
	BookingStatusConfirmed        BookingStatus = "confirmed"
	BookingStatusPickupPending    BookingStatus = "pickup-pending"
	BookingStatusInStorage        BookingStatus = "in-storage"
	BookingStatusReadyForDelivery BookingStatus = "ready-for-delivery"
	BookingStatusInTransit        BookingStatus = "in-transit"
	BookingStatusDelivered        BookingStatus = "delivered"
	BookingStatusCancelled        BookingStatus = "cancelled"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusPickupPending,
	BookingStatusInStorage,
	BookingStatusReadyForDelivery,
	BookingStatusInTransit,
	BookingStatusDelivered,
	BookingStatusCancelled,
}

// ValidBookingStatus reports whether s is a known status.
func ValidBookingStatus(s BookingStatus) bool {
	for _, v := range BookingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Booking is a luggage pickup, storage and delivery order.
type Booking struct {
	ID                  string
	BookingNumber       string
	UserID              string
	PorterID            string
	ServiceType         ServiceType
	PickupLocation      string
	DeliveryLocation    string
	PickupLat           *float64
	PickupLng           *float64
	DeliveryLat         *float64
	DeliveryLng         *float64
	StorageHours        int
	Status              BookingStatus
	TotalAmount         float64
	StorageFee          float64
	DeliveryFee         float64
	InsuranceFee        float64
	DistanceKm          float64
	PorterCommission    float64
	PickupTime          time.Time
	DeliveryTime        time.Time
	ActualPickupTime    time.Time
	ActualDeliveryTime  time.Time
	OTP                 string
	SpecialInstructions string
	CancelReason        string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items  []LuggageItem
	Photos []LuggagePhoto
}

// TotalBags returns the number of bags across all items.
func (b *Booking) TotalBags() int {
	n := 0
	for _, it := range b.Items {
		n += it.Quantity
	}
	return n
}

// LuggageItem is one luggage size line of a booking.
type LuggageItem struct {
	ID           string
	BookingID    string
	LuggageSize  LuggageSize
	Quantity     int
	PricePerHour float64
	TotalPrice   float64
	CreatedAt    time.Time
}

// PhotoType tags when a luggage photo was taken.
type PhotoType string

const (
	PhotoOriginal             PhotoType = "original"
	PhotoPickupVerification   PhotoType = "pickup_verification"
	PhotoDeliveryVerification PhotoType = "delivery_verification"
)

// ValidPhotoType reports whether t is a known photo type.
func ValidPhotoType(t PhotoType) bool {
	switch t {
	case PhotoOriginal, PhotoPickupVerification, PhotoDeliveryVerification:
		return true
	}
	return false
}

// LuggagePhoto is a photo of a booking's luggage.
type LuggagePhoto struct {
	ID         string
	BookingID  string
	PhotoURL   string
	PhotoType  PhotoType
	UploadedBy string
	CreatedAt  time.Time
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	Status BookingStatus // empty means all
	Search string        // matches booking number, locations
	Limit  int
}

// BookingStats aggregates bookings for the admin dashboard.
type BookingStats struct {
	ByStatus       map[BookingStatus]int
	TotalBookings  int
	Revenue        float64 // sum of delivered booking totals
	PendingRevenue float64 // sum of non-cancelled, non-delivered totals
	Commission     float64 // sum of porter commission on delivered bookings
}
