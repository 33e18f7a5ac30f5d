// Package config loads compass settings from the environment.
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

type Config struct {
	// HTTP server (compassd)
	Port          string
	SQLiteDBPath  string
	ReportsDir    string
	ReportTTL     time.Duration
	ReportBaseURL string

	// Rate limiting and caching (compassd)
	RateLimitPerMinute int
	ListCacheSize      int
	ListCacheTTL       time.Duration

	// Client (compass CLI)
	RemoteBaseURL  string
	RemoteTimeout  time.Duration
	DataDir        string
	IdentityUserID string
	IdentityEmail  string
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8081"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/compass.db"),
		ReportsDir:    getEnv("REPORTS_DIR", "./data/reports"),
		ReportTTL:     getEnvDuration("REPORT_TTL", time.Hour),
		ReportBaseURL: getEnv("REPORT_BASE_URL", "http://localhost:8081"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ListCacheSize:      getEnvInt("LIST_CACHE_SIZE", 500),
		ListCacheTTL:       getEnvDuration("LIST_CACHE_TTL", 30*time.Second),

		RemoteBaseURL:  getEnv("COMPASS_REMOTE_URL", "http://localhost:8081"),
		RemoteTimeout:  getEnvDuration("COMPASS_REMOTE_TIMEOUT", 10*time.Second),
		DataDir:        getEnv("COMPASS_DATA_DIR", defaultDataDir()),
		IdentityUserID: getEnv("COMPASS_USER_ID", ""),
		IdentityEmail:  getEnv("COMPASS_EMAIL", ""),
	}

	return cfg
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.ReportsDir == "" {
		errors = append(errors, "reports directory cannot be empty")
	}
	if c.ReportTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid report TTL %v: must be at least 1 minute", c.ReportTTL))
	}
	if _, err := url.Parse(c.ReportBaseURL); err != nil || c.ReportBaseURL == "" {
		errors = append(errors, fmt.Sprintf("invalid report base URL '%s'", c.ReportBaseURL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	if c.ListCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid list cache size %d: must be at least 1", c.ListCacheSize))
	}
	if c.ListCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid list cache TTL %v: must be at least 1 second", c.ListCacheTTL))
	}

	if parsed, err := url.Parse(c.RemoteBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid remote URL '%s': %v", c.RemoteBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid remote URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.RemoteTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be at least 1 second", c.RemoteTimeout))
	} else if c.RemoteTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be at most 1 minute", c.RemoteTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".compass")
	}
	return "./.compass"
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
