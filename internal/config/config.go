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
	FirestoreProjectID string
	FirestoreCredsFile string
	RedisURL           string
	CORSAllowedOrigins []string

	// Store defaults used until a settings document is written.
	StoreName        string
	CurrencyCode     string
	CurrencySymbol   string
	TaxPercent       float64
	PrinterURL       string
	PrinterEnabled   bool
	RazorpayKeyID    string
	RazorpaySecret   string
	WebhookReplayTTL time.Duration

	// Checkout protection.
	IdempotencyTTL     time.Duration
	CheckoutRateWindow time.Duration
	CheckoutRateMax    int
	RequestBodyLimit   int64

	// Printer delivery.
	PrintLockTTL       time.Duration
	PrintRetryBase     time.Duration
	PrintRetryAttempts int
	PrintTimeout       time.Duration

	// Observability.
	MetricsNamespace string
	TracingEndpoint  string
	TracingRatio     float64
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
		FirestoreProjectID: k.String("FIRESTORE_PROJECT_ID"),
		FirestoreCredsFile: k.String("FIRESTORE_CREDENTIALS_FILE"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		StoreName:        valueOrDefault(k.String("STORE_NAME"), "My Store"),
		CurrencyCode:     valueOrDefault(k.String("CURRENCY_CODE"), "INR"),
		CurrencySymbol:   valueOrDefault(k.String("CURRENCY_SYMBOL"), "₹"),
		TaxPercent:       k.Float64("TAX_PERCENT"),
		PrinterURL:       k.String("PRINTER_URL"),
		PrinterEnabled:   parseBool(k.String("PRINTER_ENABLED")),
		RazorpayKeyID:    k.String("RAZORPAY_KEY_ID"),
		RazorpaySecret:   k.String("RAZORPAY_WEBHOOK_SECRET"),
		WebhookReplayTTL: parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),

		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),
		CheckoutRateMax:    int(k.Int64("CHECKOUT_RATE_MAX")),
		RequestBodyLimit:   k.Int64("REQUEST_BODY_LIMIT"),

		PrintLockTTL:       parseDuration(k.String("PRINT_LOCK_TTL"), "30s"),
		PrintRetryBase:     parseDuration(k.String("PRINT_RETRY_BASE"), "250ms"),
		PrintRetryAttempts: int(k.Int64("PRINT_RETRY_ATTEMPTS")),
		PrintTimeout:       parseDuration(k.String("PRINT_TIMEOUT"), "10s"),

		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "pos"),
		TracingEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingRatio:     k.Float64("OTEL_TRACES_SAMPLER_RATIO"),
	}

	if cfg.CheckoutRateMax <= 0 {
		cfg.CheckoutRateMax = 30
	}
	if cfg.RequestBodyLimit <= 0 {
		cfg.RequestBodyLimit = 1 << 20
	}
	if cfg.PrintRetryAttempts <= 0 {
		cfg.PrintRetryAttempts = 3
	}

	if cfg.FirestoreProjectID == "" {
		return nil, errors.New("FIRESTORE_PROJECT_ID is required")
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
