// Package config provides configuration management for the service desk.
//
// This package handles loading configuration from environment variables,
// validating required settings, and providing sensible defaults for optional
// parameters. Configuration is loaded once at startup and remains immutable
// during runtime for thread-safety.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (highest priority)
//  2. External .env file in the working directory
//  3. Embedded .env file (fallback, included in binary)
//  4. Hard-coded defaults (lowest priority)
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// embeddedEnv contains the .env file embedded at build time.
//
// The embedded file only carries template values; secrets such as
// SESSION_SECRET and the Telegram token must come from the environment.
//
//go:embed .env
var embeddedEnv string

// Config holds all application configuration.
type Config struct {
	// Storage
	DataDir         string   // Directory holding the key-value files
	StoreKey        string   // Key of the complaint collection
	LegacyStoreKeys []string // Older keys migrated on first open
	StaffKey        string   // Key of the staff directory
	StaffFile       string   // Optional hujson seed for the staff directory
	ProductFile     string   // Optional hujson catalog of model code to product line

	// Dates and listing
	Timezone string // IANA zone all canonical dates are written in
	PageSize int    // Records per page in list output

	// Manifest printing
	OutputDir      string        // Where PDFs and exports are written
	WorkerPoolSize int           // Concurrent PDF workers
	PDFTimeout     time.Duration // Per-manifest print timeout
	ChromeHeadless bool          // Run Chrome without a window

	// CLI sessions
	SessionSecret string        // HMAC key for session tokens
	SessionTTL    time.Duration // Lifetime of a login

	// Telegram configuration (optional)
	TelegramBotToken string
	TelegramChatID   string

	// Daemon
	HealthCheckPort string        // Port for health check HTTP server
	ReportInterval  time.Duration // How often the activity report is posted

	// Debug mode - skips actual API calls for testing
	DebugMode bool
}

// LoadConfig loads configuration from environment variables with defaults.
//
// Loading process:
//  1. Try to load external .env file (fills whatever is still unset)
//  2. Parse embedded .env file and fill whatever is still unset
//  3. Read environment variables, applying defaults for missing values
//  4. Validate
//
// Returns:
//   - *Config: Fully populated configuration struct
//   - error: Validation error
func LoadConfig() (*Config, error) {
	// External .env first so that it wins over the embedded template;
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load()

	envMap, err := godotenv.Unmarshal(embeddedEnv)
	if err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := &Config{
		DataDir:         getEnvOrDefault("DATA_DIR", "data"),
		StoreKey:        getEnvOrDefault("STORE_KEY", "superasia_v12_enterprise_stable"),
		LegacyStoreKeys: getEnvList("LEGACY_STORE_KEYS", nil),
		StaffKey:        getEnvOrDefault("STAFF_KEY", "superasia_v2_staff_db"),
		StaffFile:       os.Getenv("STAFF_FILE"),
		ProductFile:     os.Getenv("PRODUCT_FILE"),

		Timezone: getEnvOrDefault("TIMEZONE", "Asia/Karachi"),
		PageSize: getEnvInt("PAGE_SIZE", 50),

		OutputDir:      getEnvOrDefault("OUTPUT_DIR", "manifests"),
		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 4),
		PDFTimeout:     getEnvDuration("PDF_TIMEOUT", 30*time.Second),
		ChromeHeadless: getEnvBool("CHROME_HEADLESS", true),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		HealthCheckPort: getEnvOrDefault("HEALTH_CHECK_PORT", "8080"),
		ReportInterval:  getEnvDuration("REPORT_INTERVAL", time.Hour),

		DebugMode: getEnvBool("DEBUG_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that required configuration is present and values are sensible.
//
// Validation rules:
//   - DATA_DIR, STORE_KEY and STAFF_KEY must be non-empty
//   - TIMEZONE must name a loadable zone
//   - PAGE_SIZE and WORKER_POOL_SIZE must be at least 1
//   - Durations must be positive
//   - SESSION_SECRET, when set, must be at least 16 bytes
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.StoreKey == "" {
		return fmt.Errorf("STORE_KEY cannot be empty")
	}
	if c.StaffKey == "" {
		return fmt.Errorf("STAFF_KEY cannot be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.PDFTimeout <= 0 {
		return fmt.Errorf("PDF_TIMEOUT must be positive, got %v", c.PDFTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("REPORT_INTERVAL must be positive, got %v", c.ReportInterval)
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 bytes")
	}

	return nil
}

// Helper functions for environment variable parsing

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default if not set/invalid
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default if not set/invalid.
//
// Accepts standard Go duration strings like "5s", "10m", "1h30m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
