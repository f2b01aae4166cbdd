package config

import (
	"os"
	"strconv"
	"time"

	"flightsim/internal/cache"
	"flightsim/internal/database"
	"flightsim/internal/mailer"
	"flightsim/internal/messaging"
	"flightsim/internal/payment"
)

// SimulationConfig controls the background market simulation loop.
type SimulationConfig struct {
	Enabled     bool
	Interval    time.Duration
	SampleSize  int
	BookingProb float64
}

// Config holds the full application configuration, loaded from the
// environment.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Seat holds are advisory locks with a deadline; a stalled shopper
	// silently loses the seat once the TTL elapses.
	HoldTTL time.Duration

	Simulation SimulationConfig

	Database      database.Config
	Redis         cache.Config
	NATS          messaging.Config
	SMTP          mailer.Config
	Payment       payment.Config
	SearchEnabled bool
	Elasticsearch ElasticsearchConfig
}

// Load reads configuration from environment variables with defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		HoldTTL: time.Duration(getEnvInt("HOLD_TTL_MIN", 5)) * time.Minute,

		Simulation: SimulationConfig{
			Enabled:     getEnv("SIM_ENABLED", "true") == "true",
			Interval:    time.Duration(getEnvInt("SIM_INTERVAL_SEC", 30)) * time.Second,
			SampleSize:  getEnvInt("SIM_SAMPLE_SIZE", 10),
			BookingProb: getEnvFloat("SIM_BOOKING_PROB", 0.10),
		},

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "flightsim"),
			Password:           getEnv("DB_PASSWORD", "flightsim123"),
			DBName:             getEnv("DB_NAME", "flightsim"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			PriceTTL: time.Duration(getEnvInt("PRICE_CACHE_TTL_SEC", 15)) * time.Second,
		},

		NATS: messaging.Config{
			Enabled:   getEnv("NATS_ENABLED", "false") == "true",
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "flightsim"),
			ClientID:  getEnv("NATS_CLIENT_ID", "flightsim-api"),
		},

		SMTP: mailer.Config{
			Host:         os.Getenv("SMTP_HOST"),
			Port:         getEnvInt("SMTP_PORT", 587),
			User:         os.Getenv("SMTP_USER"),
			Password:     os.Getenv("SMTP_PASS"),
			From:         getEnv("EMAIL_FROM", "no-reply@flightsim.local"),
			PollInterval: time.Duration(getEnvInt("EMAIL_POLL_SEC", 5)) * time.Second,
			MaxAttempts:  getEnvInt("EMAIL_MAX_ATTEMPTS", 5),
		},

		Payment: payment.Config{
			SuccessRate: getEnvFloat("PAYMENT_SUCCESS_RATE", 0.95),
		},

		SearchEnabled: getEnv("SEARCH_ES_ENABLED", "false") == "true",
		Elasticsearch: LoadElasticsearchConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
