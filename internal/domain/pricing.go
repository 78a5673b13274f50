package domain

import "time"

// LuggageSize is the size class of a bag; rates are per size.
type LuggageSize string

const (
	LuggageSmall      LuggageSize = "small"
	LuggageMedium     LuggageSize = "medium"
	LuggageLarge      LuggageSize = "large"
	LuggageExtraLarge LuggageSize = "extra-large"
)

// LuggageSizes lists every size in display order.
var LuggageSizes = []LuggageSize{LuggageSmall, LuggageMedium, LuggageLarge, LuggageExtraLarge}

// ValidLuggageSize reports whether s is a known size.
func ValidLuggageSize(s LuggageSize) bool {
	for _, v := range LuggageSizes {
		if v == s {
			return true
		}
	}
	return false
}

// ServiceType is the booking service type. Only pickup is offered.
type ServiceType string

const ServiceTypePickup ServiceType = "pickup"

// Pricing is one persisted pricing row (one per luggage size).
type Pricing struct {
	ID            string
	ServiceType   ServiceType
	LuggageSize   LuggageSize
	PricePerHour  float64
	BasePickupFee float64
	PerKmFee      float64
	UpdatedAt     time.Time
}

// RateTable is the effective rate configuration used for quoting.
type RateTable struct {
	Rates         map[LuggageSize]float64 `json:"rates"`
	BasePickupFee float64                 `json:"base_pickup_fee"`
	PerKmFee      float64                 `json:"per_km_fee"`
	InsuranceFee  float64                 `json:"insurance_fee"`
}
