package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type AuthConfig struct {
	JWTSecret string
}

// StripeConfig carries the billing credentials and the static price -> plan mapping.
type StripeConfig struct {
	SecretKey             string
	WebhookSecret         string
	PremiumMonthlyPriceID string
	PremiumAnnualPriceID  string
	TrialPeriodDays       int64
	SuccessURL            string
	CancelURL             string
	PortalReturnURL       string
}

type SearchConfig struct {
	CandidateLimit int
	CacheTTL       time.Duration
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
}

type Config struct {
	Repositories  RepositoriesConfig
	Auth          AuthConfig
	Stripe        StripeConfig
	Search        SearchConfig
	Observability ObservabilityConfig
	ServerPort    string
	LogLevel      string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "kidspots"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(getEnvIntOrDefault("POSTGRES_MAX_CONNS", 30)),
				MinConns: int32(getEnvIntOrDefault("POSTGRES_MIN_CONNS", 5)),
			},
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		},
		Stripe: StripeConfig{
			SecretKey:             getEnvOrDefault("STRIPE_SECRET_KEY", ""),
			WebhookSecret:         getEnvOrDefault("STRIPE_WEBHOOK_SECRET", ""),
			PremiumMonthlyPriceID: getEnvOrDefault("STRIPE_PREMIUM_MONTHLY_PRICE_ID", ""),
			PremiumAnnualPriceID:  getEnvOrDefault("STRIPE_PREMIUM_ANNUAL_PRICE_ID", ""),
			TrialPeriodDays:       int64(getEnvIntOrDefault("STRIPE_TRIAL_DAYS", 7)),
			SuccessURL:            getEnvOrDefault("STRIPE_SUCCESS_URL", "http://localhost:3000/account?checkout=success"),
			CancelURL:             getEnvOrDefault("STRIPE_CANCEL_URL", "http://localhost:3000/pricing?checkout=canceled"),
			PortalReturnURL:       getEnvOrDefault("STRIPE_PORTAL_RETURN_URL", "http://localhost:3000/account"),
		},
		Search: SearchConfig{
			CandidateLimit: getEnvIntOrDefault("SEARCH_CANDIDATE_LIMIT", 2000),
			CacheTTL:       getEnvDurationOrDefault("SEARCH_CACHE_TTL", 30*time.Second),
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "kidspots-api"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
