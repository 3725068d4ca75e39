// Package config loads server configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	Port     int
	LogLevel string // "debug", "info", "warn", "error"
	LogJSON  bool

	Provider        string // "gemini", "openai", "anthropic", or "mock"
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ProviderModel   string // empty means the adapter's default
	ProviderTimeout time.Duration

	RateLimit int // chat requests per minute per client, 0 disables

	RedisURL      string // empty keeps sessions in process memory
	RedisPassword string
	SessionTTL    time.Duration

	InventoryDriver string // "fixed", "sqlite3", or "postgres"
	InventoryDSN    string
	CatalogURL      string // optional remote read-only catalog mirror

	SMTPAddr     string // empty logs confirmations instead of sending
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:            8080,
		LogLevel:        "info",
		Provider:        "mock",
		ProviderTimeout: 10 * time.Second,
		RateLimit:       30,
		SessionTTL:      30 * time.Minute,
		InventoryDriver: "fixed",
		EmailFrom:       "library@ub.edu.ph",
	}

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: LOG_LEVEL
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			config.LogLevel = level
		default:
			return nil, fmt.Errorf("invalid LOG_LEVEL: must be 'debug', 'info', 'warn', or 'error'")
		}
	}

	// Optional: LOG_JSON
	if logJSON := os.Getenv("LOG_JSON"); logJSON != "" {
		b, err := strconv.ParseBool(logJSON)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_JSON: %w", err)
		}
		config.LogJSON = b
	}

	// Optional: PROVIDER, with the matching API key required per provider
	if provider := os.Getenv("PROVIDER"); provider != "" {
		switch provider {
		case "gemini", "openai", "anthropic", "mock":
			config.Provider = provider
		default:
			return nil, fmt.Errorf("invalid PROVIDER: must be 'gemini', 'openai', 'anthropic', or 'mock'")
		}
	}

	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	config.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	switch config.Provider {
	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required when PROVIDER=gemini")
		}
	case "openai":
		if config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required when PROVIDER=openai")
		}
	case "anthropic":
		if config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required when PROVIDER=anthropic")
		}
	}

	// Optional: PROVIDER_MODEL
	config.ProviderModel = os.Getenv("PROVIDER_MODEL")

	// Optional: PROVIDER_TIMEOUT (in seconds)
	if timeout := os.Getenv("PROVIDER_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
		}
		config.ProviderTimeout = time.Duration(t) * time.Second
	}

	// Optional: RATE_LIMIT (requests per minute, 0 disables)
	if limit := os.Getenv("RATE_LIMIT"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		config.RateLimit = l
	}

	// Optional: REDIS_URL and REDIS_PASSWORD
	config.RedisURL = os.Getenv("REDIS_URL")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")

	// Optional: SESSION_TTL (in minutes, Redis-backed sessions only)
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		config.SessionTTL = time.Duration(t) * time.Minute
	}

	// Optional: INVENTORY_DRIVER and INVENTORY_DSN
	if driver := os.Getenv("INVENTORY_DRIVER"); driver != "" {
		switch driver {
		case "fixed", "sqlite3", "postgres":
			config.InventoryDriver = driver
		default:
			return nil, fmt.Errorf("invalid INVENTORY_DRIVER: must be 'fixed', 'sqlite3', or 'postgres'")
		}
	}
	config.InventoryDSN = os.Getenv("INVENTORY_DSN")
	if config.InventoryDriver != "fixed" && config.InventoryDSN == "" {
		return nil, fmt.Errorf("INVENTORY_DSN environment variable is required when INVENTORY_DRIVER=%s", config.InventoryDriver)
	}

	// Optional: CATALOG_URL (remote read-only catalog mirror)
	config.CatalogURL = os.Getenv("CATALOG_URL")

	// Optional: SMTP settings; without SMTP_ADDR confirmations are logged
	config.SMTPAddr = os.Getenv("SMTP_ADDR")
	config.SMTPUser = os.Getenv("SMTP_USER")
	config.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if from := os.Getenv("EMAIL_FROM"); from != "" {
		config.EmailFrom = from
	}

	return config, nil
}
