package domain

import "time"

// PorterLocationStatus describes what the porter is doing at the reported position.
type PorterLocationStatus string

const (
	PorterAvailable     PorterLocationStatus = "available"
	PorterPickupPending PorterLocationStatus = "pickup-pending"
	PorterInTransit     PorterLocationStatus = "in-transit"
	PorterAtDelivery    PorterLocationStatus = "at-delivery"
)

// ValidPorterLocationStatus reports whether s is a known status.
func ValidPorterLocationStatus(s PorterLocationStatus) bool {
	switch s {
	case PorterAvailable, PorterPickupPending, PorterInTransit, PorterAtDelivery:
		return true
	}
	return false
}

// PorterLocation is the last reported position of a porter. One row per porter.
type PorterLocation struct {
	PorterID  string               `json:"porter_id"`
	Lat       float64              `json:"latitude"`
	Lng       float64              `json:"longitude"`
	Address   string               `json:"address,omitempty"`
	BookingID string               `json:"booking_id,omitempty"`
	Status    PorterLocationStatus `json:"status"`
	UpdatedAt time.Time            `json:"timestamp"`
}

// NearbyPorter is a porter location annotated with distance and profile data.
type NearbyPorter struct {
	PorterLocation
	DistanceKm  float64 `json:"distance_km"`
	FullName    string  `json:"full_name"`
	Phone       string  `json:"phone"`
	Rating      float64 `json:"rating"`
	VehicleType string  `json:"vehicle_type"`
}
