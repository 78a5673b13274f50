package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dropngo/internal/middleware"
	"dropngo/internal/repository"
	"dropngo/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are recorded on the context and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: http.StatusText(code)})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// actor returns the authenticated caller.
func actor(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.UserID(c), Role: middleware.UserRole(c)}
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrUnknownLuggageSize),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStorageHours),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrNoLuggage),
		errors.Is(err, service.ErrInvalidRates),
		errors.Is(err, service.ErrMissingPickupLocation),
		errors.Is(err, service.ErrMissingDeliveryLocation),
		errors.Is(err, service.ErrNoPhotos),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPhotoType),
		errors.Is(err, service.ErrInvalidPorterID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidLocationStatus),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrMissingDocument),
		errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrInvalidOTP):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge

	// Authentication errors
	case errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Conflict errors
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrPorterNotVerified),
		errors.Is(err, service.ErrPorterUnavailable),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrGeocoderUnavailable),
		errors.Is(err, service.ErrLiveTrackingUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
