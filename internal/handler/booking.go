package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dropngo/internal/domain"
	"dropngo/internal/middleware"
	"dropngo/internal/service"
)

// BookingHandler handles HTTP requests for customer bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	PickupLocation      string         `json:"pickup_location"`
	DeliveryLocation    string         `json:"delivery_location"`
	PickupLat           *float64       `json:"pickup_lat,omitempty"`
	PickupLng           *float64       `json:"pickup_lng,omitempty"`
	DeliveryLat         *float64       `json:"delivery_lat,omitempty"`
	DeliveryLng         *float64       `json:"delivery_lng,omitempty"`
	PickupTime          *time.Time     `json:"pickup_time,omitempty"`
	StorageHours        int            `json:"storage_hours"`
	Items               map[string]int `json:"items"`
	Insurance           bool           `json:"insurance"`
	DistanceKm          *float64       `json:"distance_km,omitempty"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	PhotoURLs           []string       `json:"photo_urls"`
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AddPhotoRequest is the HTTP request body for attaching a photo.
type AddPhotoRequest struct {
	URL  string `json:"photo_url"`
	Type string `json:"photo_type"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	var pickup time.Time
	if req.PickupTime != nil {
		pickup = *req.PickupTime
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		UserID:              middleware.UserID(c),
		PickupLocation:      req.PickupLocation,
		DeliveryLocation:    req.DeliveryLocation,
		PickupLat:           req.PickupLat,
		PickupLng:           req.PickupLng,
		DeliveryLat:         req.DeliveryLat,
		DeliveryLng:         req.DeliveryLng,
		PickupTime:          pickup,
		StorageHours:        req.StorageHours,
		Items:               toLuggageItems(req.Items),
		Insurance:           req.Insurance,
		DistanceKm:          req.DistanceKm,
		SpecialInstructions: req.SpecialInstructions,
		PhotoURLs:           req.PhotoURLs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBookingView(booking, actor(c)))
}

// ListMine handles GET /v1/bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.bookingService.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingViews(bookings, actor(c)))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingView(booking, actor(c)))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), service.CancelBookingRequest{
		BookingID: c.Param("id"),
		Actor:     actor(c),
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingView(booking, actor(c)))
}

// AddPhoto handles POST /v1/bookings/:id/photos
func (h *BookingHandler) AddPhoto(c *gin.Context) {
	var req AddPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	photoType := domain.PhotoType(req.Type)
	if photoType == "" {
		photoType = domain.PhotoOriginal
	}

	photo, err := h.bookingService.AddVerificationPhoto(c.Request.Context(), service.AddPhotoRequest{
		BookingID: c.Param("id"),
		URL:       req.URL,
		Type:      photoType,
		Actor:     actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newPhotoView(photo))
}
