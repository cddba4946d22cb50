package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the client, CLI and agent
type Config struct {
	// Backend configuration
	APIBaseURL        string
	RequestTimeout    time.Duration
	SessionCookieName string

	// Server configuration (agent only)
	Port  string
	Debug bool

	// Client behaviour
	OTPCooldownSeconds   int
	PageSize             int
	LoginPromptThreshold int
	TimeZone             string

	// Durable cache configuration
	StorageBackend   string // "file", "azure" or "redis"
	StateDir         string
	StorageAccount   string
	StorageContainer string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Schedule configuration (agent only)
	SyncSchedule   string
	ReportSchedule string

	// Notification forwarding
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:        getEnv("BULLPOST_API_URL", "http://localhost:5000/api"),
		RequestTimeout:    time.Duration(getIntEnv("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "connect.sid"),

		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		OTPCooldownSeconds:   getIntEnv("OTP_COOLDOWN_SECONDS", 60),
		PageSize:             getIntEnv("PAGE_SIZE", 10),
		LoginPromptThreshold: getIntEnv("LOGIN_PROMPT_THRESHOLD", 3),
		TimeZone:             getEnv("TIMEZONE", "UTC"),

		StorageBackend:   getEnv("STORAGE_BACKEND", "file"),
		StateDir:         getEnv("STATE_DIR", defaultStateDir()),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "bullpost-state"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),

		SyncSchedule:   getEnv("SYNC_SCHEDULE", "0 */15 * * * *"),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "daily"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BULLPOST_API_URL must be an absolute URL, got %q", c.APIBaseURL)
	}

	switch c.StorageBackend {
	case "file":
		if c.StateDir == "" {
			return fmt.Errorf("STATE_DIR is required for the file storage backend")
		}
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required for the azure storage backend")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'file', 'azure' or 'redis'")
	}

	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" && c.ReportSchedule != "off" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily', 'weekly' or 'off'")
	}

	if c.OTPCooldownSeconds <= 0 {
		return fmt.Errorf("OTP_COOLDOWN_SECONDS must be positive")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", c.TimeZone, err)
	}

	return nil
}

// ForwardingEnabled reports whether alerts leave the process at all
func (c *Config) ForwardingEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bullpost")
	}
	return ".bullpost"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}
