package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env     string
	Port    string
	GinMode string

	// StoreDriver selects "postgres" or the in-process "memory" store.
	StoreDriver string
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigin string

	LogLevel string
	LogDir   string

	MediaDir       string
	MediaBaseURL   string
	MaxUploadBytes int64

	AMQPURL      string
	AMQPExchange string

	ReportCacheTTL time.Duration
	BulkWorkers    int

	SeedFile string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads the configuration from the environment.
func Load() Config {
	port := env("PORT", "8080")
	cfg := Config{
		Env:     env("ENV", "local"),
		Port:    port,
		GinMode: env("GIN_MODE", "debug"),

		StoreDriver: env("STORE_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      env("DB_HOST", "localhost"),
		DBUser:      env("DB_USER", "civicpulse"),
		DBPassword:  env("DB_PASSWORD", "civicpulse"),
		DBName:      env("DB_NAME", "civicpulse"),
		DBPort:      env("DB_PORT", "5432"),
		DBSSLMode:   env("DB_SSLMODE", "disable"),

		JWTSecret: env("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  envDuration("TOKEN_TTL", 24*time.Hour),

		CORSOrigin: env("CORS_ORIGIN", "http://localhost:5173"),

		LogLevel: env("LOG_LEVEL", "INFO"),
		LogDir:   env("LOG_DIR", "logs"),

		MediaDir:       env("MEDIA_DIR", "media"),
		MediaBaseURL:   env("MEDIA_BASE_URL", "http://localhost:"+port+"/media"),
		MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 20)) << 20,

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: env("AMQP_EXCHANGE", "civic-reports"),

		ReportCacheTTL: envDuration("REPORT_CACHE_TTL", 5*time.Minute),
		BulkWorkers:    envInt("BULK_WORKERS", 4),

		SeedFile: env("SEED_FILE", "data/seed.json"),
	}
	if cfg.BulkWorkers < 1 {
		cfg.BulkWorkers = 1
	}
	return cfg
}

// DSN prefers DATABASE_URL and otherwise assembles a key/value DSN.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}
