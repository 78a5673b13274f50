package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"dropngo/internal/domain"
	"dropngo/internal/handler"
	"dropngo/internal/logger"
	"dropngo/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler     *handler.AuthHandler
	PricingHandler  *handler.PricingHandler
	BookingHandler  *handler.BookingHandler
	PorterHandler   *handler.PorterHandler
	LocationHandler *handler.LocationHandler
	AdminHandler    *handler.AdminHandler
	UploadHandler   *handler.UploadHandler
	TokenParser     middleware.TokenParser
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	AllowedOrigins  []string
	// UploadDir is served under /uploads when uploads are stored locally.
	UploadDir string
	Logger    logger.ILogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.AccessLogger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	base := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.TokenParser),
		middleware.NewRelicAttributes(),
	}
	if deps.RedisClient != nil {
		base = append(base, middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	}
	// authenticated returns the auth chain followed by extra handlers.
	authenticated := func(extra ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(base)+len(extra))
		chain = append(chain, base...)
		return append(chain, extra...)
	}
	// streaming accepts the token as a query parameter for EventSource clients.
	streaming := func(extra ...gin.HandlerFunc) []gin.HandlerFunc {
		chain := []gin.HandlerFunc{
			middleware.StreamAuthMiddleware(deps.TokenParser),
			middleware.NewRelicAttributes(),
		}
		return append(chain, extra...)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Auth routes.
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", deps.AuthHandler.Register)
			authRoutes.POST("/register/porter", deps.AuthHandler.RegisterPorter)
			authRoutes.POST("/login", deps.AuthHandler.Login)
			authRoutes.GET("/me", authenticated(deps.AuthHandler.Me)...)
		}

		// Pricing routes.
		pricing := v1.Group("/pricing")
		{
			pricing.GET("", deps.PricingHandler.GetRates)
			pricing.POST("/quote", deps.PricingHandler.Quote)
		}

		// Uploads are used during porter registration, before login.
		v1.POST("/uploads", deps.UploadHandler.Upload)

		// Customer booking routes.
		bookings := v1.Group("/bookings", authenticated()...)
		{
			bookings.POST("", middleware.RequireRole(domain.RoleCustomer, domain.RoleAdmin), deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.ListMine)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/photos", deps.BookingHandler.AddPhoto)
		}

		// Porter routes.
		porter := v1.Group("/porter", authenticated(middleware.RequireRole(domain.RolePorter))...)
		{
			porter.GET("/profile", deps.PorterHandler.GetProfile)
			porter.PUT("/availability", deps.PorterHandler.SetAvailability)
			porter.POST("/location", deps.PorterHandler.UpdateLocation)
			porter.GET("/earnings", deps.PorterHandler.Earnings)
			porter.GET("/bookings", deps.PorterHandler.ListBookings)
			porter.GET("/bookings/open", deps.PorterHandler.ListOpenBookings)
			porter.POST("/bookings/:id/accept", deps.PorterHandler.AcceptBooking)
			porter.POST("/bookings/:id/start-pickup", deps.PorterHandler.StartPickup)
			porter.POST("/bookings/:id/confirm-pickup", deps.PorterHandler.ConfirmPickup)
			porter.POST("/bookings/:id/ready", deps.PorterHandler.MarkReady)
			porter.POST("/bookings/:id/start-delivery", deps.PorterHandler.StartDelivery)
			porter.POST("/bookings/:id/complete", deps.PorterHandler.CompleteDelivery)
		}

		// Location routes.
		locations := v1.Group("/locations", authenticated()...)
		{
			locations.GET("/nearby", deps.LocationHandler.Nearby)
			locations.GET("/geocode", deps.LocationHandler.Geocode)
			locations.GET("/reverse-geocode", deps.LocationHandler.ReverseGeocode)
			locations.GET("/porters/:id", middleware.RequireRole(domain.RoleAdmin), deps.LocationHandler.GetPorterLocation)
		}

		// Live tracking streams.
		v1.GET("/bookings/:id/track", streaming(deps.LocationHandler.TrackBooking)...)
		v1.GET("/locations/porters/:id/stream", streaming(
			middleware.RequireRole(domain.RoleAdmin), deps.LocationHandler.StreamPorter,
		)...)

		// Admin routes.
		admin := v1.Group("/admin", authenticated(middleware.RequireRole(domain.RoleAdmin))...)
		{
			admin.GET("/stats", deps.AdminHandler.Stats)
			admin.GET("/bookings", deps.AdminHandler.ListBookings)
			admin.GET("/bookings/export", deps.AdminHandler.ExportBookings)
			admin.PUT("/bookings/:id/status", deps.AdminHandler.UpdateBookingStatus)
			admin.GET("/porters", deps.AdminHandler.ListPorters)
			admin.GET("/porters/:id", deps.AdminHandler.GetPorter)
			admin.POST("/porters/:id/review", deps.AdminHandler.ReviewPorter)
			admin.PUT("/pricing", deps.AdminHandler.UpdatePricing)
		}
	}

	return router
}
