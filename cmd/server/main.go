package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dropngo/internal/app"
	"dropngo/internal/auth"
	"dropngo/internal/config"
	"dropngo/internal/handler"
	"dropngo/internal/logger"
	"dropngo/internal/maps"
	"dropngo/internal/metrics"
	"dropngo/internal/notify"
	internalRedis "dropngo/internal/redis"
	"dropngo/internal/repository/postgres"
	"dropngo/internal/service"
	"dropngo/internal/storage"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Error("failed to initialize New Relic", logger.Error(err))
		} else {
			log.Info("New Relic enabled", logger.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if cfg.Database.RunMigrations {
		if err := app.RunMigrations(db); err != nil {
			log.Error("failed to run migrations", logger.Error(err))
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	metrics.Register()

	server, closeNotifications, err := wireServer(ctx, db, redisClient, nrApp, cfg, log)
	if err != nil {
		log.Error("failed to wire server", logger.Error(err))
		os.Exit(1)
	}

	// Start server in goroutine.
	go func() {
		log.Info("starting server", logger.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}
	if err := closeNotifications(shutdownCtx); err != nil {
		log.Warning("pending notifications abandoned", logger.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server together
// with a func that drains pending notifications.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	cfg *config.Config,
	log logger.ILogger,
) (*http.Server, func(context.Context) error, error) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.Pricing.CacheTTL)
	broker := internalRedis.NewLocationBroker(redisClient)

	// Initialize repositories.
	txManager := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(db)
	porterRepo := postgres.NewPorterRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	pricingRepo := postgres.NewPricingRepository(db)
	locationRepo := postgres.NewLocationRepository(db)

	// Optional integrations.
	var geocoder service.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			return nil, nil, err
		}
		geocoder = g
		log.Info("geocoding enabled")
	}

	var imageStore storage.Store
	uploadDir := ""
	if cfg.Storage.CloudinaryURL != "" {
		cld, err := storage.NewCloudinaryStore(cfg.Storage.CloudinaryURL, cfg.Storage.Folder)
		if err != nil {
			return nil, nil, err
		}
		imageStore = cld
		log.Info("uploads go to Cloudinary")
	} else {
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		imageStore = local
		uploadDir = local.Dir()
		log.Info("uploads go to local disk", logger.String("dir", uploadDir))
	}

	channels := []notify.Channel{notify.NewLogChannel(log)}
	if cfg.Notification.SMTPHost != "" {
		email, err := notify.NewEmailChannel(
			cfg.Notification.SMTPHost,
			cfg.Notification.SMTPPort,
			cfg.Notification.SMTPUser,
			cfg.Notification.SMTPPassword,
			cfg.Notification.FromAddress,
		)
		if err != nil {
			return nil, nil, err
		}
		channels = append(channels, email)
	}
	if cfg.Notification.FirebaseCredentials != "" {
		push, err := notify.NewPushChannel(ctx, cfg.Notification.FirebaseCredentials)
		if err != nil {
			return nil, nil, err
		}
		channels = append(channels, push)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize services.
	notificationService := service.NewNotificationService(log, channels...).
		WithAsyncDelivery(cfg.Notification.MaxInFlight, cfg.Notification.SendTimeout)
	pricingService := service.NewPricingService(pricingRepo, cacheStore, geocoder, cfg.Pricing, log)
	bookingService := service.NewBookingService(
		txManager, bookingRepo, userRepo, porterRepo, pricingService, lockStore,
		notificationService, cfg.Pricing.CommissionRate, log,
	)
	locationService := service.NewLocationService(
		locationRepo, porterRepo, locationStore, cacheStore, broker, geocoder,
		cfg.Tracking.NearbyRadiusKm, log,
	)
	authService := service.NewAuthService(txManager, userRepo, tokens, notificationService, service.AuthConfig{
		DemoAccounts:          cfg.Auth.DemoAccounts,
		DemoPassword:          cfg.Auth.DemoPassword,
		DefaultCommissionRate: cfg.Pricing.CommissionRate,
	}, log)
	porterService := service.NewPorterService(porterRepo, bookingRepo, cacheStore, locationStore, log)
	adminService := service.NewAdminService(userRepo, porterRepo, bookingRepo, pricingService, cacheStore, notificationService, log)
	uploadService := service.NewUploadService(imageStore, cfg.Storage.MaxUploadSize, log)

	if err := authService.EnsureDemoAccounts(ctx); err != nil {
		return nil, nil, err
	}

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		AuthHandler:     handler.NewAuthHandler(authService, userRepo),
		PricingHandler:  handler.NewPricingHandler(pricingService),
		BookingHandler:  handler.NewBookingHandler(bookingService),
		PorterHandler:   handler.NewPorterHandler(porterService, bookingService, locationService),
		LocationHandler: handler.NewLocationHandler(locationService, bookingService),
		AdminHandler:    handler.NewAdminHandler(adminService, bookingService, porterService),
		UploadHandler:   handler.NewUploadHandler(uploadService, cfg.Storage.MaxUploadSize),
		TokenParser:     tokens,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		UploadDir:       uploadDir,
		Logger:          log,
	})

	// Create HTTP server. WriteTimeout stays zero when unset so location
	// streams are not cut off.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, notificationService.Close, nil
}
