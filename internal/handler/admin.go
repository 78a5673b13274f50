package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"dropngo/internal/domain"
	"dropngo/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler handles HTTP requests for the admin console.
type AdminHandler struct {
	adminService   *service.AdminService
	bookingService *service.BookingService
	porterService  *service.PorterService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	adminService *service.AdminService,
	bookingService *service.BookingService,
	porterService *service.PorterService,
) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		bookingService: bookingService,
		porterService:  porterService,
	}
}

// StatsResponse is the HTTP response for dashboard stats.
type StatsResponse struct {
	TotalBookings     int            `json:"total_bookings"`
	BookingsByStatus  map[string]int `json:"bookings_by_status"`
	Revenue           float64        `json:"revenue"`
	PendingRevenue    float64        `json:"pending_revenue"`
	PorterCommission  float64        `json:"porter_commission"`
	PlatformEarnings  float64        `json:"platform_earnings"`
	TotalPorters      int            `json:"total_porters"`
	PortersByStatus   map[string]int `json:"porters_by_status"`
	TotalCustomers    int            `json:"total_customers"`
	PendingApprovals  int            `json:"pending_approvals"`
	ActiveDeliveries  int            `json:"active_deliveries"`
	CompletedBookings int            `json:"completed_bookings"`
}

// UpdateStatusRequest is the HTTP request body for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ReviewPorterRequest is the HTTP request body for approving or rejecting a porter.
type ReviewPorterRequest struct {
	Decision string `json:"decision"`
}

// UpdatePricingRequest is the HTTP request body for replacing rates. Every
// field must be present; an explicit 0 is a valid fee.
type UpdatePricingRequest struct {
	Rates         map[string]float64 `json:"rates" binding:"required"`
	BasePickupFee *float64           `json:"base_pickup_fee" binding:"required"`
	PerKmFee      *float64           `json:"per_km_fee" binding:"required"`
}

func bookingFilter(c *gin.Context) domain.BookingFilter {
	return domain.BookingFilter{
		Status: domain.BookingStatus(c.Query("status")),
		Search: c.Query("search"),
		Limit:  cast.ToInt(c.Query("limit")),
	}
}

// Stats handles GET /v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatsResponse{
		TotalBookings:    stats.Bookings.TotalBookings,
		BookingsByStatus: make(map[string]int, len(domain.BookingStatuses)),
		Revenue:          stats.Bookings.Revenue,
		PendingRevenue:   stats.Bookings.PendingRevenue,
		PorterCommission: stats.Bookings.Commission,
		PlatformEarnings: stats.Bookings.Revenue - stats.Bookings.Commission,
		TotalPorters:     stats.TotalPorters,
		PortersByStatus:  make(map[string]int, len(stats.Porters)),
		TotalCustomers:   stats.TotalCustomers,
		PendingApprovals: stats.Porters[domain.VerificationPending],
	}
	for _, s := range domain.BookingStatuses {
		n := stats.Bookings.ByStatus[s]
		resp.BookingsByStatus[string(s)] = n
		switch s {
		case domain.BookingStatusPickupPending, domain.BookingStatusInStorage,
			domain.BookingStatusReadyForDelivery, domain.BookingStatusInTransit:
			resp.ActiveDeliveries += n
		case domain.BookingStatusDelivered:
			resp.CompletedBookings += n
		}
	}
	for status, n := range stats.Porters {
		resp.PortersByStatus[string(status)] = n
	}

	respondJSON(c, http.StatusOK, resp)
}

// ListBookings handles GET /v1/admin/bookings?status=&search=
func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListAll(c.Request.Context(), bookingFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingViews(bookings, actor(c)))
}

// ExportBookings handles GET /v1/admin/bookings/export?status=&search=
func (h *AdminHandler) ExportBookings(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.adminService.ExportBookings(c.Request.Context(), bookingFilter(c), &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateBookingStatus handles PUT /v1/admin/bookings/:id/status
func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		BookingID: c.Param("id"),
		Status:    domain.BookingStatus(req.Status),
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingView(booking, actor(c)))
}

// ListPorters handles GET /v1/admin/porters?verification=&search=
func (h *AdminHandler) ListPorters(c *gin.Context) {
	porters, err := h.adminService.ListPorters(
		c.Request.Context(),
		domain.VerificationStatus(c.Query("verification")),
		c.Query("search"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPorterViews(porters))
}

// GetPorter handles GET /v1/admin/porters/:id
func (h *AdminHandler) GetPorter(c *gin.Context) {
	details, err := h.porterService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPorterView(details.Porter, details.Documents))
}

// ReviewPorter handles POST /v1/admin/porters/:id/review
func (h *AdminHandler) ReviewPorter(c *gin.Context) {
	var req ReviewPorterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	porter, err := h.adminService.ReviewPorter(c.Request.Context(), c.Param("id"), req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPorterView(porter, nil))
}

// UpdatePricing handles PUT /v1/admin/pricing
func (h *AdminHandler) UpdatePricing(c *gin.Context) {
	var req UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "rates, base_pickup_fee and per_km_fee are required")
		return
	}

	table := domain.RateTable{
		Rates:         make(map[domain.LuggageSize]float64, len(req.Rates)),
		BasePickupFee: *req.BasePickupFee,
		PerKmFee:      *req.PerKmFee,
	}
	for size, rate := range req.Rates {
		table.Rates[domain.LuggageSize(size)] = rate
	}

	updated, err := h.adminService.UpdatePricing(c.Request.Context(), table)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRateTableView(updated))
}
