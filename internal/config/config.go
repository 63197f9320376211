package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	MigrationsDir      string
	CORSAllowedOrigins []string

	// PayTR merchant credentials. May be empty at load time; the payment
	// endpoints then answer with a configuration error instead of the whole
	// process refusing to start.
	PaytrMerchantID   string
	PaytrMerchantKey  string
	PaytrMerchantSalt string

	PaytrAPIURL string
	// PaytrTimeout bounds the outbound get-token HTTP call.
	PaytrTimeout time.Duration
	// PaytrIframeTimeoutMin is the timeout_limit form field: how many
	// minutes the buyer gets inside the payment iframe. Independent of the
	// HTTP timeout above.
	PaytrIframeTimeoutMin int
	PaytrCurrency         string
	PaytrTestMode         bool
	PaytrDebug            bool

	CheckoutOKURL     string
	CheckoutFailURL   string
	OrderNumberPrefix string

	WebhookReplayTTL time.Duration
	IdempotencyTTL   time.Duration
	TokenRateLimit   string

	PendingOrderTTL time.Duration
	OrderExpiryCron string

	CatalogDefaultLimit int
	CatalogMaxLimit     int
	CatalogCacheTTL     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PaytrMerchantID:   strings.TrimSpace(k.String("PAYTR_MERCHANT_ID")),
		PaytrMerchantKey:  strings.TrimSpace(k.String("PAYTR_MERCHANT_KEY")),
		PaytrMerchantSalt: strings.TrimSpace(k.String("PAYTR_MERCHANT_SALT")),

		PaytrAPIURL:           valueOrDefault(k.String("PAYTR_API_URL"), "https://www.paytr.com/odeme/api/get-token"),
		PaytrTimeout:          parseDuration(k.String("PAYTR_TIMEOUT"), "30s"),
		PaytrIframeTimeoutMin: intOrDefault(k.Int("PAYTR_IFRAME_TIMEOUT_MIN"), 30),
		PaytrCurrency:         valueOrDefault(k.String("PAYTR_CURRENCY"), "TL"),
		PaytrTestMode:         parseBool(k.String("PAYTR_TEST_MODE")),
		PaytrDebug:            parseBool(k.String("PAYTR_DEBUG")),

		CheckoutOKURL:     valueOrDefault(k.String("CHECKOUT_OK_URL"), "https://shufflecase.com/siparis-alindi"),
		CheckoutFailURL:   valueOrDefault(k.String("CHECKOUT_FAIL_URL"), "https://shufflecase.com/cart"),
		OrderNumberPrefix: valueOrDefault(k.String("ORDER_NUMBER_PREFIX"), "SHUFFLE"),

		WebhookReplayTTL: parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		TokenRateLimit:   valueOrDefault(k.String("TOKEN_RATE_LIMIT"), "30-M"),

		PendingOrderTTL: parseDuration(k.String("PENDING_ORDER_TTL"), "24h"),
		OrderExpiryCron: valueOrDefault(k.String("ORDER_EXPIRY_CRON"), "@every 10m"),

		CatalogDefaultLimit: intOrDefault(k.Int("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     intOrDefault(k.Int("CATALOG_MAX_LIMIT"), 100),
		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
