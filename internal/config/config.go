package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Storage (images and generated documents)
	StorageDriver     string
	UploadsDir        string
	UploadsPublicPath string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PublicURL       string

	// Geocoding
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeoBackfillLimit  int

	// Observability
	LogRetentionDays int
	LogCleanupSpec   string
	MetricsNamespace string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; it never overrides variables that
// are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		SQLitePath: getEnv("SQLITE_PATH", "scdri.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "scdri"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "8h"), 8*time.Hour),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		StorageDriver:     getEnv("STORAGE_DRIVER", "local"),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
		UploadsPublicPath: getEnv("UPLOADS_PUBLIC_PATH", "/uploads"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "SCDRI/1.0"),
		GeocoderTimeout:   parseDuration(getEnv("GEOCODER_TIMEOUT", "5s"), 5*time.Second),
		GeoBackfillLimit:  parseInt(getEnv("GEO_BACKFILL_LIMIT", "20"), 20),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		LogCleanupSpec:   getEnv("LOG_CLEANUP_SPEC", "@daily"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "scdri"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
