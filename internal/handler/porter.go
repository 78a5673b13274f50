package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dropngo/internal/domain"
	"dropngo/internal/middleware"
	"dropngo/internal/service"
)

// PorterHandler handles HTTP requests made by porters.
type PorterHandler struct {
	porterService   *service.PorterService
	bookingService  *service.BookingService
	locationService *service.LocationService
}

// NewPorterHandler creates a new PorterHandler.
func NewPorterHandler(
	porterService *service.PorterService,
	bookingService *service.BookingService,
	locationService *service.LocationService,
) *PorterHandler {
	return &PorterHandler{
		porterService:   porterService,
		bookingService:  bookingService,
		locationService: locationService,
	}
}

// AvailabilityRequest is the HTTP request body for toggling availability.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

// OTPRequest is the HTTP request body for handoff steps.
type OTPRequest struct {
	OTP string `json:"otp"`
}

// UpdateLocationRequest is the HTTP request body for a location report.
type UpdateLocationRequest struct {
	Lat       *float64 `json:"latitude"`
	Lng       *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
	BookingID string   `json:"booking_id,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// GetProfile handles GET /v1/porter/profile
func (h *PorterHandler) GetProfile(c *gin.Context) {
	details, err := h.porterService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPorterView(details.Porter, details.Documents))
}

// SetAvailability handles PUT /v1/porter/availability
func (h *PorterHandler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		badRequest(c, "available is required")
		return
	}

	porter, err := h.porterService.SetAvailability(c.Request.Context(), middleware.UserID(c), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPorterView(porter, nil))
}

// ListBookings handles GET /v1/porter/bookings
func (h *PorterHandler) ListBookings(c *gin.Context) {
	bookings, err := h.porterService.Bookings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingViews(bookings, actor(c)))
}

// ListOpenBookings handles GET /v1/porter/bookings/open
func (h *PorterHandler) ListOpenBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingViews(bookings, actor(c)))
}

// Earnings handles GET /v1/porter/earnings?period=week|month|all
func (h *PorterHandler) Earnings(c *gin.Context) {
	summary, err := h.porterService.Earnings(c.Request.Context(), middleware.UserID(c), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, summary)
}

// UpdateLocation handles POST /v1/porter/location
func (h *PorterHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		badRequest(c, "latitude and longitude are required")
		return
	}

	loc, err := h.locationService.UpdatePorterLocation(c.Request.Context(), service.UpdateLocationRequest{
		PorterID:  middleware.UserID(c),
		Lat:       *req.Lat,
		Lng:       *req.Lng,
		Address:   req.Address,
		BookingID: req.BookingID,
		Status:    domain.PorterLocationStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, loc)
}

// AcceptBooking handles POST /v1/porter/bookings/:id/accept
func (h *PorterHandler) AcceptBooking(c *gin.Context) {
	h.step(c, h.bookingService.AcceptBooking)
}

// StartPickup handles POST /v1/porter/bookings/:id/start-pickup
func (h *PorterHandler) StartPickup(c *gin.Context) {
	h.step(c, h.bookingService.StartPickup)
}

// ConfirmPickup handles POST /v1/porter/bookings/:id/confirm-pickup
func (h *PorterHandler) ConfirmPickup(c *gin.Context) {
	h.otpStep(c, h.bookingService.ConfirmPickup)
}

// MarkReady handles POST /v1/porter/bookings/:id/ready
func (h *PorterHandler) MarkReady(c *gin.Context) {
	h.step(c, h.bookingService.MarkReadyForDelivery)
}

// StartDelivery handles POST /v1/porter/bookings/:id/start-delivery
func (h *PorterHandler) StartDelivery(c *gin.Context) {
	h.step(c, h.bookingService.StartDelivery)
}

// CompleteDelivery handles POST /v1/porter/bookings/:id/complete
func (h *PorterHandler) CompleteDelivery(c *gin.Context) {
	h.otpStep(c, h.bookingService.CompleteDelivery)
}

type stepFunc func(ctx context.Context, porterID, bookingID string) (*domain.Booking, error)

type otpStepFunc func(ctx context.Context, porterID, bookingID, otp string) (*domain.Booking, error)

func (h *PorterHandler) step(c *gin.Context, fn stepFunc) {
	booking, err := fn(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBookingView(booking, actor(c)))
}

func (h *PorterHandler) otpStep(c *gin.Context, fn otpStepFunc) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OTP == "" {
		badRequest(c, "otp is required")
		return
	}

	booking, err := fn(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, newBookingView(booking, actor(c)))
}
