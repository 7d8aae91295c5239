// Package config loads beanledger configuration from the environment and an
// optional .env file, and builds the logger.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreBolt   = "bolt"
)

// Config represents the application configuration.
type Config struct {
	// Store selects the ledger store backend.
	Store string
	// DB is the database path for file-backed stores.
	DB           string
	LogLevel     string
	LogFormat    string
	QuoteTimeout time.Duration
	Concurrency  int
	// DocumentRoot is the directory document paths are resolved against.
	DocumentRoot string
}

// Load loads configuration from environment variables. It loads .env from the
// current directory if available, or envPath when given. Variables already set
// in the environment win over the file.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("BEANLEDGER_QUOTE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid BEANLEDGER_QUOTE_TIMEOUT: %w", err)
	}

	concurrency, err := parseIntEnv("BEANLEDGER_CONCURRENCY", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid BEANLEDGER_CONCURRENCY: %w", err)
	}

	config := &Config{
		Store:        strings.ToLower(getEnvOrDefault("BEANLEDGER_STORE", StoreMemory)),
		DB:           getEnvOrDefault("BEANLEDGER_DB", "beanledger.db"),
		LogLevel:     getEnvOrDefault("BEANLEDGER_LOG_LEVEL", "warn"),
		LogFormat:    getEnvOrDefault("BEANLEDGER_LOG_FORMAT", "console"),
		QuoteTimeout: timeout,
		Concurrency:  concurrency,
		DocumentRoot: os.Getenv("BEANLEDGER_DOCUMENT_ROOT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreBolt:
	default:
		return fmt.Errorf("unknown store %q: expected %s, %s or %s", c.Store, StoreMemory, StoreSQLite, StoreBolt)
	}

	if c.Store != StoreMemory && c.DB == "" {
		return fmt.Errorf("store %s requires a database path", c.Store)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.QuoteTimeout <= 0 {
		return fmt.Errorf("quote timeout must be positive, got %s", c.QuoteTimeout)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}
