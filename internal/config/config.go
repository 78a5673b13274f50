package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all configuration for the application.
type Config struct {
	ServiceName  string
	LoggerLevel  string
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	NewRelic     NewRelicConfig
	Auth         AuthConfig
	Pricing      PricingConfig
	Tracking     TrackingConfig
	Storage      StorageConfig
	Maps         MapsConfig
	Notification NotificationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	RunMigrations bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds session and demo account configuration.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	DemoAccounts bool
	DemoPassword string
}

// PricingConfig holds the fallback rate table and commission settings.
type PricingConfig struct {
	SmallRate         float64
	MediumRate        float64
	LargeRate         float64
	ExtraLargeRate    float64
	BasePickupFee     float64
	PerKmFee          float64
	InsuranceFee      float64
	DefaultDistanceKm float64
	CommissionRate    float64
	CacheTTL          time.Duration
}

// TrackingConfig holds porter location reporting settings.
type TrackingConfig struct {
	Interval       time.Duration
	MinDistanceM   float64
	Heartbeat      time.Duration
	NearbyRadiusKm float64
}

// StorageConfig holds image upload settings.
type StorageConfig struct {
	CloudinaryURL string
	Folder        string
	UploadDir     string
	PublicBaseURL string
	MaxUploadSize int64
}

// MapsConfig holds Google Maps configuration.
type MapsConfig struct {
	APIKey string
}

// NotificationConfig holds email and push settings.
type NotificationConfig struct {
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	FromAddress         string
	FirebaseCredentials string
	MaxInFlight         int
	SendTimeout         time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load(".env")

	env := getEnv("APP_ENV", "development")

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "dropngo-api"),
		LoggerLevel: getEnv("LOGGER_LEVEL", "debug"),
		Environment: env,
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 0),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "dropngo"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			RunMigrations: getBoolEnv("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 20),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "dropngo-api"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", "dropngo-dev-secret"),
			TokenTTL:     getDurationEnv("JWT_TTL", 24*time.Hour),
			DemoAccounts: getBoolEnv("DEMO_ACCOUNTS_ENABLED", env != "production"),
			DemoPassword: getEnv("DEMO_PASSWORD", "demo1234"),
		},
		Pricing: PricingConfig{
			SmallRate:         getFloatEnv("PRICE_SMALL", 30),
			MediumRate:        getFloatEnv("PRICE_MEDIUM", 45),
			LargeRate:         getFloatEnv("PRICE_LARGE", 65),
			ExtraLargeRate:    getFloatEnv("PRICE_EXTRA_LARGE", 85),
			BasePickupFee:     getFloatEnv("PRICE_BASE_PICKUP", 100),
			PerKmFee:          getFloatEnv("PRICE_PER_KM", 10),
			InsuranceFee:      getFloatEnv("PRICE_INSURANCE", 50),
			DefaultDistanceKm: getFloatEnv("DEFAULT_DISTANCE_KM", 15),
			CommissionRate:    getFloatEnv("PORTER_COMMISSION_RATE", 0.20),
			CacheTTL:          getDurationEnv("PRICING_CACHE_TTL", 10*time.Minute),
		},
		Tracking: TrackingConfig{
			Interval:       getDurationEnv("TRACKING_INTERVAL", 10*time.Second),
			MinDistanceM:   getFloatEnv("TRACKING_MIN_DISTANCE_M", 10),
			Heartbeat:      getDurationEnv("TRACKING_HEARTBEAT", time.Minute),
			NearbyRadiusKm: getFloatEnv("NEARBY_RADIUS_KM", 10),
		},
		Storage: StorageConfig{
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
			Folder:        getEnv("CLOUDINARY_FOLDER", "dropngo"),
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: getEnv("UPLOAD_PUBLIC_BASE_URL", "/uploads"),
			MaxUploadSize: getInt64Env("UPLOAD_MAX_BYTES", 5<<20),
		},
		Maps: MapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Notification: NotificationConfig{
			SMTPHost:            getEnv("SMTP_HOST", ""),
			SMTPPort:            getIntEnv("SMTP_PORT", 587),
			SMTPUser:            getEnv("SMTP_USER", ""),
			SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
			FromAddress:         getEnv("SMTP_FROM", "no-reply@dropngo.com"),
			FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			MaxInFlight:         getIntEnv("NOTIFY_MAX_IN_FLIGHT", 64),
			SendTimeout:         getDurationEnv("NOTIFY_SEND_TIMEOUT", 15*time.Second),
		},
	}
}

// AgentConfig holds configuration for the porter-agent CLI.
type AgentConfig struct {
	LoggerLevel string
	APIBaseURL  string
	Email       string
	Password    string
	Tracking    TrackingConfig
	// Route is the simulated route as "lat,lng;lat,lng;...".
	Route       string
	SpeedMps    float64
}

// LoadAgent loads porter-agent configuration from environment variables.
func LoadAgent() *AgentConfig {
	_ = godotenv.Load(".env")

	return &AgentConfig{
		LoggerLevel: getEnv("LOGGER_LEVEL", "info"),
		APIBaseURL:  getEnv("DROPNGO_API_URL", "http://localhost:8080"),
		Email:       getEnv("PORTER_EMAIL", "porter@dropngo.com"),
		Password:    getEnv("PORTER_PASSWORD", "demo1234"),
		Tracking: TrackingConfig{
			Interval:     getDurationEnv("TRACKING_INTERVAL", 10*time.Second),
			MinDistanceM: getFloatEnv("TRACKING_MIN_DISTANCE_M", 10),
			Heartbeat:    getDurationEnv("TRACKING_HEARTBEAT", time.Minute),
		},
		Route:    getEnv("AGENT_ROUTE", "12.9716,77.5946;12.9352,77.6245;12.9279,77.6271"),
		SpeedMps: getFloatEnv("AGENT_SPEED_MPS", 8),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := cast.ToIntE(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := cast.ToInt64E(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := cast.ToFloat64E(value); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := cast.ToBoolE(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := cast.ToDurationE(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
