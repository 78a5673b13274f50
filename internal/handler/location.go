package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"dropngo/internal/repository"
	"dropngo/internal/service"
)

const streamKeepAlive = 15 * time.Second

// LocationHandler serves porter positions, live tracking and geocoding.
type LocationHandler struct {
	locationService *service.LocationService
	bookingService  *service.BookingService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService *service.LocationService, bookingService *service.BookingService) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		bookingService:  bookingService,
	}
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Nearby handles GET /v1/locations/nearby?lat=&lng=&radius_km=
func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, okLat := queryFloat(c, "lat")
	lng, okLng := queryFloat(c, "lng")
	if !okLat || !okLng {
		badRequest(c, "lat and lng are required")
		return
	}
	radius, _ := queryFloat(c, "radius_km")

	porters, err := h.locationService.NearbyPorters(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, porters)
}

// GetPorterLocation handles GET /v1/locations/porters/:id
func (h *LocationHandler) GetPorterLocation(c *gin.Context) {
	loc, err := h.locationService.GetPorterLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, loc)
}

// StreamPorter handles GET /v1/locations/porters/:id/stream
func (h *LocationHandler) StreamPorter(c *gin.Context) {
	h.stream(c, c.Param("id"))
}

// TrackBooking handles GET /v1/bookings/:id/track, streaming the location
// of the porter assigned to the caller's booking.
func (h *LocationHandler) TrackBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if booking.PorterID == "" {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no porter assigned yet"})
		return
	}
	h.stream(c, booking.PorterID)
}

// stream sends server-sent events with the porter's location until the
// client disconnects. The last known position is sent first.
func (h *LocationHandler) stream(c *gin.Context, porterID string) {
	ctx := c.Request.Context()

	updates, cancel, err := h.locationService.Subscribe(ctx, porterID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if loc, err := h.locationService.GetPorterLocation(ctx, porterID); err == nil {
		c.SSEvent("location", loc)
	} else if !errors.Is(err, repository.ErrNotFound) {
		_ = c.Error(err)
	}
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case loc, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("location", loc)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		}
	})
}

// Geocode handles GET /v1/locations/geocode?address=
func (h *LocationHandler) Geocode(c *gin.Context) {
	lat, lng, err := h.locationService.Geocode(c.Request.Context(), c.Query("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"latitude": lat, "longitude": lng})
}

// ReverseGeocode handles GET /v1/locations/reverse-geocode?lat=&lng=
func (h *LocationHandler) ReverseGeocode(c *gin.Context) {
	lat, okLat := queryFloat(c, "lat")
	lng, okLng := queryFloat(c, "lng")
	if !okLat || !okLng {
		badRequest(c, "lat and lng are required")
		return
	}

	address, err := h.locationService.ReverseGeocode(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"address": address})
}
