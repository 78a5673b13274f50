package handler

import (
	"time"

	"dropngo/internal/domain"
	"dropngo/internal/service"
)

// UserView is the JSON form of a user.
type UserView struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	FullName           string    `json:"full_name"`
	Role               string    `json:"role"`
	VerificationStatus string    `json:"verification_status"`
	IsActive           bool      `json:"is_active"`
	Rating             float64   `json:"rating"`
	TotalBookings      int       `json:"total_bookings"`
	CreatedAt          time.Time `json:"created_at"`
}

func newUserView(u *domain.User) UserView {
	return UserView{
		ID:                 u.ID,
		Email:              u.Email,
		Phone:              u.Phone,
		FullName:           u.FullName,
		Role:               string(u.Role),
		VerificationStatus: string(u.VerificationStatus),
		IsActive:           u.IsActive,
		Rating:             u.Rating,
		TotalBookings:      u.TotalBookings,
		CreatedAt:          u.CreatedAt,
	}
}

// DocumentView is the JSON form of a porter document.
type DocumentView struct {
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// PorterView is the JSON form of a porter.
type PorterView struct {
	UserView
	LicenseNumber  string         `json:"license_number"`
	VehicleType    string         `json:"vehicle_type"`
	VehicleNumber  string         `json:"vehicle_number"`
	IsAvailable    bool           `json:"is_available"`
	CommissionRate float64        `json:"commission_rate"`
	TotalEarnings  float64        `json:"total_earnings"`
	Documents      []DocumentView `json:"documents,omitempty"`
}

func newPorterView(p *domain.Porter, docs []*domain.PorterDocument) PorterView {
	v := PorterView{
		UserView:       newUserView(&p.User),
		LicenseNumber:  p.Profile.LicenseNumber,
		VehicleType:    p.Profile.VehicleType,
		VehicleNumber:  p.Profile.VehicleNumber,
		IsAvailable:    p.Profile.IsAvailable,
		CommissionRate: p.Profile.CommissionRate,
		TotalEarnings:  p.Profile.TotalEarnings,
	}
	for _, d := range docs {
		v.Documents = append(v.Documents, DocumentView{Type: string(d.Type), URL: d.URL, CreatedAt: d.CreatedAt})
	}
	return v
}

func newPorterViews(porters []*domain.Porter) []PorterView {
	views := make([]PorterView, 0, len(porters))
	for _, p := range porters {
		views = append(views, newPorterView(p, nil))
	}
	return views
}

// ItemView is the JSON form of a luggage item.
type ItemView struct {
	LuggageSize  string  `json:"luggage_size"`
	Quantity     int     `json:"quantity"`
	PricePerHour float64 `json:"price_per_hour"`
	TotalPrice   float64 `json:"total_price"`
}

// PhotoView is the JSON form of a luggage photo.
type PhotoView struct {
	ID         string    `json:"id"`
	URL        string    `json:"photo_url"`
	Type       string    `json:"photo_type"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func newPhotoView(p *domain.LuggagePhoto) PhotoView {
	return PhotoView{
		ID:         p.ID,
		URL:        p.PhotoURL,
		Type:       string(p.PhotoType),
		UploadedBy: p.UploadedBy,
		CreatedAt:  p.CreatedAt,
	}
}

// BookingView is the JSON form of a booking.
type BookingView struct {
	ID                  string      `json:"id"`
	BookingNumber       string      `json:"booking_number"`
	UserID              string      `json:"user_id"`
	PorterID            string      `json:"porter_id,omitempty"`
	ServiceType         string      `json:"service_type"`
	PickupLocation      string      `json:"pickup_location"`
	DeliveryLocation    string      `json:"delivery_location"`
	PickupLat           *float64    `json:"pickup_lat,omitempty"`
	PickupLng           *float64    `json:"pickup_lng,omitempty"`
	DeliveryLat         *float64    `json:"delivery_lat,omitempty"`
	DeliveryLng         *float64    `json:"delivery_lng,omitempty"`
	StorageHours        int         `json:"storage_hours"`
	Status              string      `json:"status"`
	TotalAmount         float64     `json:"total_amount"`
	StorageFee          float64     `json:"storage_fee"`
	DeliveryFee         float64     `json:"delivery_fee"`
	InsuranceFee        float64     `json:"insurance_fee"`
	DistanceKm          float64     `json:"distance_km"`
	PorterCommission    float64     `json:"porter_commission,omitempty"`
	PickupTime          time.Time   `json:"pickup_time"`
	DeliveryTime        time.Time   `json:"delivery_time"`
	ActualPickupTime    *time.Time  `json:"actual_pickup_time,omitempty"`
	ActualDeliveryTime  *time.Time  `json:"actual_delivery_time,omitempty"`
	OTP                 string      `json:"otp,omitempty"`
	SpecialInstructions string      `json:"special_instructions,omitempty"`
	CancelReason        string      `json:"cancel_reason,omitempty"`
	TotalBags           int         `json:"total_bags"`
	Items               []ItemView  `json:"items"`
	Photos              []PhotoView `json:"photos"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// newBookingView renders a booking for viewer. The OTP is only shown to the
// booking's customer and to admins, never to the porter who must ask for it.
func newBookingView(b *domain.Booking, viewer service.Actor) BookingView {
	v := BookingView{
		ID:                  b.ID,
		BookingNumber:       b.BookingNumber,
		UserID:              b.UserID,
		PorterID:            b.PorterID,
		ServiceType:         string(b.ServiceType),
		PickupLocation:      b.PickupLocation,
		DeliveryLocation:    b.DeliveryLocation,
		PickupLat:           b.PickupLat,
		PickupLng:           b.PickupLng,
		DeliveryLat:         b.DeliveryLat,
		DeliveryLng:         b.DeliveryLng,
		StorageHours:        b.StorageHours,
		Status:              string(b.Status),
		TotalAmount:         b.TotalAmount,
		StorageFee:          b.StorageFee,
		DeliveryFee:         b.DeliveryFee,
		InsuranceFee:        b.InsuranceFee,
		DistanceKm:          b.DistanceKm,
		PorterCommission:    b.PorterCommission,
		PickupTime:          b.PickupTime,
		DeliveryTime:        b.DeliveryTime,
		ActualPickupTime:    timePtr(b.ActualPickupTime),
		ActualDeliveryTime:  timePtr(b.ActualDeliveryTime),
		SpecialInstructions: b.SpecialInstructions,
		CancelReason:        b.CancelReason,
		TotalBags:           b.TotalBags(),
		Items:               make([]ItemView, 0, len(b.Items)),
		Photos:              make([]PhotoView, 0, len(b.Photos)),
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
	if viewer.Role == domain.RoleAdmin || viewer.ID == b.UserID {
		v.OTP = b.OTP
	}
	for _, it := range b.Items {
		v.Items = append(v.Items, ItemView{
			LuggageSize:  string(it.LuggageSize),
			Quantity:     it.Quantity,
			PricePerHour: it.PricePerHour,
			TotalPrice:   it.TotalPrice,
		})
	}
	for i := range b.Photos {
		v.Photos = append(v.Photos, newPhotoView(&b.Photos[i]))
	}
	return v
}

func newBookingViews(bookings []*domain.Booking, viewer service.Actor) []BookingView {
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, newBookingView(b, viewer))
	}
	return views
}

// RateTableView is the JSON form of the rate table.
type RateTableView struct {
	Rates         map[string]float64 `json:"rates"`
	BasePickupFee float64            `json:"base_pickup_fee"`
	PerKmFee      float64            `json:"per_km_fee"`
	InsuranceFee  float64            `json:"insurance_fee"`
}

func newRateTableView(t domain.RateTable) RateTableView {
	v := RateTableView{
		Rates:         make(map[string]float64, len(t.Rates)),
		BasePickupFee: t.BasePickupFee,
		PerKmFee:      t.PerKmFee,
		InsuranceFee:  t.InsuranceFee,
	}
	for size, rate := range t.Rates {
		v.Rates[string(size)] = rate
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
