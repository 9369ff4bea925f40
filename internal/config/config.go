package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

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
	AppEnv      string
	CORSOrigins string

	// Sessions
	SessionTimeout    time.Duration
	SessionCookieName string

	// Security
	CSRFTokenLifetime  time.Duration
	BcryptCost         int
	MinPasswordLength  int
	APITokenLifetime   time.Duration
	RememberCookieDays int
	JWTSecret          string

	// Listing
	ItemsPerPage int

	// Uploads
	UploadDir     string
	MaxUploadSize int64
}

func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "flopy_crm"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		SessionTimeout:    parseDuration(getEnv("SESSION_TIMEOUT", "30m"), 30*time.Minute),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "flopy_session"),

		CSRFTokenLifetime:  parseDuration(getEnv("CSRF_TOKEN_LIFETIME", "1h"), time.Hour),
		BcryptCost:         parseInt(getEnv("BCRYPT_COST", "12"), 12),
		MinPasswordLength:  parseInt(getEnv("MIN_PASSWORD_LENGTH", "8"), 8),
		APITokenLifetime:   parseDuration(getEnv("API_TOKEN_LIFETIME", "24h"), 24*time.Hour),
		RememberCookieDays: parseInt(getEnv("REMEMBER_COOKIE_DAYS", "30"), 30),
		JWTSecret:          getEnv("JWT_SECRET", ""),

		ItemsPerPage: parseInt(getEnv("ITEMS_PER_PAGE", "10"), 10),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSize: int64(parseInt(getEnv("MAX_UPLOAD_SIZE", "5242880"), 5*1024*1024)),
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
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
