package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all process configuration, loaded once at startup and passed
// explicitly to the components that need it.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	CORSOrigins []string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Upload ceilings (bytes)
	MaxVideoBytes     int64
	MaxModelBytes     int64
	MaxThumbnailBytes int64

	// Geocoding
	GeocodeBaseURL     string
	GeocodeUserAgent   string
	GeocodeMaxAttempts int
	GeocodeBaseSleep   time.Duration
	GeocodeTimeout     time.Duration
	GeocodePositiveTTL time.Duration
	GeocodeNegativeTTL time.Duration

	// Object storage (Supabase-style bucket)
	StorageURL        string
	StorageBucket     string
	StorageServiceKey string
	StorageTimeout    time.Duration

	// Password reset mail
	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string
	ResetTokenTTL   time.Duration
	ResetBaseURL    string
}

// Load reads the environment into an immutable Config.
func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "streetwalk"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: []string{getEnv("FRONTEND_ORIGIN", "http://localhost:5173")},

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "24h")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		MaxVideoBytes:     parseBytes(getEnv("MAX_VIDEO_MB", "100")),
		MaxModelBytes:     parseBytes(getEnv("MAX_MODEL_MB", "50")),
		MaxThumbnailBytes: parseBytes(getEnv("MAX_THUMBNAIL_MB", "5")),

		GeocodeBaseURL:     getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocodeUserAgent:   getEnv("GEOCODE_USER_AGENT", "streetwalk/1.0"),
		GeocodeMaxAttempts: parseInt(getEnv("GEOCODE_MAX_ATTEMPTS", "4")),
		GeocodeBaseSleep:   parseDuration(getEnv("GEOCODE_BASE_SLEEP", "600ms")),
		GeocodeTimeout:     parseDuration(getEnv("GEOCODE_TIMEOUT", "10s")),
		GeocodePositiveTTL: parseDuration(getEnv("GEOCODE_POSITIVE_TTL", "720h")),
		GeocodeNegativeTTL: parseDuration(getEnv("GEOCODE_NEGATIVE_TTL", "6h")),

		StorageURL:        getEnv("STORAGE_URL", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", "streetwalk"),
		StorageServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
		StorageTimeout:    parseDuration(getEnv("STORAGE_TIMEOUT", "180s")),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "no-reply@streetwalk.app"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "StreetWalk"),
		ResetTokenTTL:   parseDuration(getEnv("RESET_TOKEN_TTL", "1h")),
		ResetBaseURL:    getEnv("RESET_BASE_URL", "http://localhost:5173/reset-password"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseBytes converts a megabyte figure from the environment into bytes.
func parseBytes(s string) int64 {
	mb, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return mb << 20
}
