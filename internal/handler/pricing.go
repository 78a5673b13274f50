package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dropngo/internal/domain"
	"dropngo/internal/service"
)

// PricingHandler serves rates and price quotes.
type PricingHandler struct {
	pricingService *service.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// QuoteRequest is the HTTP request body for a price quote.
type QuoteRequest struct {
	Items            map[string]int `json:"items"`
	StorageHours     int            `json:"storage_hours"`
	Insurance        bool           `json:"insurance"`
	DistanceKm       *float64       `json:"distance_km,omitempty"`
	PickupLocation   string         `json:"pickup_location,omitempty"`
	DeliveryLocation string         `json:"delivery_location,omitempty"`
	PickupLat        *float64       `json:"pickup_lat,omitempty"`
	PickupLng        *float64       `json:"pickup_lng,omitempty"`
	DeliveryLat      *float64       `json:"delivery_lat,omitempty"`
	DeliveryLng      *float64       `json:"delivery_lng,omitempty"`
}

func toLuggageItems(items map[string]int) map[domain.LuggageSize]int {
	out := make(map[domain.LuggageSize]int, len(items))
	for size, qty := range items {
		out[domain.LuggageSize(size)] = qty
	}
	return out
}

// GetRates handles GET /v1/pricing
func (h *PricingHandler) GetRates(c *gin.Context) {
	table, err := h.pricingService.CurrentRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRateTableView(table))
}

// Quote handles POST /v1/pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), service.PriceRequest{
		Items:        toLuggageItems(req.Items),
		StorageHours: req.StorageHours,
		Insurance:    req.Insurance,
		DistanceKm:   req.DistanceKm,
		Route: service.Route{
			PickupAddress:   req.PickupLocation,
			DeliveryAddress: req.DeliveryLocation,
			PickupLat:       req.PickupLat,
			PickupLng:       req.PickupLng,
			DeliveryLat:     req.DeliveryLat,
			DeliveryLng:     req.DeliveryLng,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quote)
}
