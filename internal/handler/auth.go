package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dropngo/internal/domain"
	"dropngo/internal/middleware"
	"dropngo/internal/repository"
	"dropngo/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	authService *service.AuthService
	userRepo    repository.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userRepo:    userRepo,
	}
}

// RegisterRequest is the HTTP request body for customer registration.
type RegisterRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r RegisterRequest) toService() service.RegisterRequest {
	return service.RegisterRequest{
		FullName:        r.FullName,
		Email:           r.Email,
		Phone:           r.Phone,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// RegisterPorterRequest is the HTTP request body for porter registration.
// Documents maps document type to an uploaded image URL.
type RegisterPorterRequest struct {
	RegisterRequest
	LicenseNumber string            `json:"license_number"`
	VehicleNumber string            `json:"vehicle_number"`
	VehicleType   string            `json:"vehicle_type"`
	Documents     map[string]string `json:"documents"`
}

// LoginRequest is the HTTP request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned after login or registration.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	HomeRoute string    `json:"home_route"`
	User      UserView  `json:"user"`
}

func newSessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Role:      string(s.User.Role),
		HomeRoute: s.HomeRoute,
		User:      newUserView(s.User),
	}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req.toService())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newSessionResponse(session))
}

// RegisterPorter handles POST /v1/auth/register/porter
func (h *AuthHandler) RegisterPorter(c *gin.Context) {
	var req RegisterPorterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	docs := make(map[domain.DocumentType]string, len(req.Documents))
	for k, v := range req.Documents {
		docs[domain.DocumentType(k)] = v
	}

	session, err := h.authService.RegisterPorter(c.Request.Context(), service.RegisterPorterRequest{
		RegisterRequest: req.RegisterRequest.toService(),
		LicenseNumber:   req.LicenseNumber,
		VehicleNumber:   req.VehicleNumber,
		VehicleType:     req.VehicleType,
		Documents:       docs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newSessionResponse(session))
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newSessionResponse(session))
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"user":       newUserView(user),
		"home_route": service.HomeRoute(user.Role),
	})
}
