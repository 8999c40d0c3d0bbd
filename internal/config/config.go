package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "RechargeHub"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour

	defaultGatewayTimeout = 15 * time.Second

	defaultReconcileSchedule = "@every 2m"
	defaultReconcileMinAge   = time.Minute
	defaultReconcileMaxAge   = 48 * time.Hour
	defaultReconcileBatch    = 50
)

// Config captures the full runtime configuration, loaded from environment
// variables (a local .env file is honored in development).
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	AMQPURL     string

	JWTSecret string

	GatewayBaseURL string
	GatewayAPIKey  string
	GatewayTimeout time.Duration

	ReconcileSchedule string
	ReconcileMinAge   time.Duration
	ReconcileMaxAge   time.Duration
	ReconcileBatch    int

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration from the environment. DATABASE_URL, REDIS_URL and
// AMQP_URL are optional: when absent the application falls back to in-memory
// stores, no idempotency cache, and log-only notifications, which only makes
// sense in development.
func Load() (Config, error) {
	// Missing .env is not an error; containers inject real env vars.
	_ = godotenv.Load()

	cfg := Config{
		AppName:  getEnv("APP_NAME", defaultAppName),
		AppEnv:   getEnv("APP_ENV", defaultAppEnv),
		Port:     getEnv("PORT", defaultPort),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AMQPURL:     os.Getenv("AMQP_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GatewayBaseURL: os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIKey:  os.Getenv("GATEWAY_API_KEY"),
		GatewayTimeout: defaultGatewayTimeout,

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", defaultReconcileSchedule),
		ReconcileMinAge:   defaultReconcileMinAge,
		ReconcileMaxAge:   defaultReconcileMaxAge,
		ReconcileBatch:    defaultReconcileBatch,

		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	var err error
	if cfg.GatewayTimeout, err = durationEnv("GATEWAY_TIMEOUT", cfg.GatewayTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileMinAge, err = durationEnv("RECONCILE_MIN_AGE", cfg.ReconcileMinAge); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileMaxAge, err = durationEnv("RECONCILE_MAX_AGE", cfg.ReconcileMaxAge); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("RECONCILE_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid RECONCILE_BATCH: %q", v)
		}
		cfg.ReconcileBatch = n
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.JWTSecret = "dev-only-secret"
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.GatewayBaseURL == "" {
			return Config{}, fmt.Errorf("GATEWAY_BASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
