package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port        string
	FrontendURL string
	Production  bool
	LogLevel    string

	// Storage
	DataBackend     string
	MongoURI        string
	MongoDatabase   string
	DatabaseURL     string
	BackfillOnStart bool

	// Auth
	JWTSecret         string
	JWTTTL            time.Duration
	DataEncryptionKey string

	// Onboarding
	SeedSampleData bool

	// Alerts
	AlertThresholds    map[string]float64
	AlertCooldown      time.Duration
	BudgetAlertPercent float64

	// Email
	EmailProvider  string
	ResendAPIKey   string
	SendGridAPIKey string
	FromEmail      string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Redis
	RedisURL string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// thresholdErr is reported by Validate.
	thresholdErr error
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Production: getEnv("GIN_MODE", "") == "release" ||
			getEnv("ENVIRONMENT", "") == "production",
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		DataBackend:     strings.ToLower(getEnv("DATA_BACKEND", BackendMongo)),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "mindspend"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		BackfillOnStart: getEnvBool("BACKFILL_EXPENSE_TYPES", false),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTTTL:            getEnvDuration("JWT_TTL", 7*24*time.Hour),
		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),

		SeedSampleData: getEnvBool("SEED_SAMPLE_DATA", false),

		AlertCooldown:      getEnvDuration("ALERT_COOLDOWN", 0),
		BudgetAlertPercent: getEnvFloat("BUDGET_ALERT_PERCENT", 90),

		EmailProvider:  strings.ToLower(getEnv("EMAIL_PROVIDER", "log")),
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("FROM_EMAIL", "alerts@mindspend.app"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "mindspend"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "alerts"),

		RedisURL: getEnv("REDIS_URL", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}

	cfg.AlertThresholds, cfg.thresholdErr = ParseThresholds(getEnv("ALERT_THRESHOLDS", ""))
	return cfg
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			errors = append(errors, "MONGODB_URI is required when using mongo backend")
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MONGODB_DATABASE is required when using mongo backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of mongo, postgres, memory", c.DataBackend))
	}

	if c.JWTSecret == "" && c.DataBackend != BackendMemory {
		errors = append(errors, "JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid JWT_TTL %v: must be positive", c.JWTTTL))
	}
	if c.DataEncryptionKey != "" && len(c.DataEncryptionKey) != 32 {
		errors = append(errors, "DATA_ENCRYPTION_KEY must be exactly 32 bytes")
	}

	if c.thresholdErr != nil {
		errors = append(errors, c.thresholdErr.Error())
	}
	if c.AlertCooldown < 0 {
		errors = append(errors, "ALERT_COOLDOWN cannot be negative")
	}
	if c.BudgetAlertPercent <= 0 || c.BudgetAlertPercent > 100 {
		errors = append(errors, fmt.Sprintf("invalid BUDGET_ALERT_PERCENT %v: must be in (0, 100]", c.BudgetAlertPercent))
	}

	switch c.EmailProvider {
	case "resend", "sendgrid", "log":
	default:
		errors = append(errors, fmt.Sprintf("invalid email provider '%s': must be one of resend, sendgrid, log", c.EmailProvider))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			errors = append(errors, "AMQP exchange and queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil || (parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss") {
			errors = append(errors, "invalid REDIS_URL: must be a redis:// or rediss:// URL")
		}
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid RATE_LIMIT_RPS %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid RATE_LIMIT_BURST %d: must be at least 1", c.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ParseThresholds reads "food=2500,home=4000". Empty input returns nil so the
// default table applies; listed categories replace their defaults.
func ParseThresholds(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid ALERT_THRESHOLDS entry '%s': expected category=amount", pair)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("invalid ALERT_THRESHOLDS amount for '%s': must be a positive number", name)
		}
		out[name] = amount
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
