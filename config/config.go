// Package config provides configuration management for the planner server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	Port            int
	DBPath          string // SQLite path; ":memory:" for an ephemeral cache
	BCBBaseURL      string // Central bank SGS API root
	HTTPTimeout     time.Duration
	RefreshSchedule string // cron spec for the indicator refresh job; empty disables it
	CORSOrigins     []string
	LogLevel        string
	LogPretty       bool
}

// Default values
const (
	DefaultPort            = 8080
	DefaultDBPath          = "planner.db"
	DefaultBCBBaseURL      = "https://api.bcb.gov.br"
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultRefreshSchedule = "@every 6h"
)

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PLANNER_PORT", DefaultPort),
		DBPath:          getEnv("PLANNER_DB_PATH", DefaultDBPath),
		BCBBaseURL:      strings.TrimRight(getEnv("PLANNER_BCB_BASE_URL", DefaultBCBBaseURL), "/"),
		HTTPTimeout:     getEnvAsDuration("PLANNER_HTTP_TIMEOUT", DefaultHTTPTimeout),
		RefreshSchedule: getEnvRaw("PLANNER_REFRESH_SCHEDULE", DefaultRefreshSchedule),
		CORSOrigins:     getEnvAsList("PLANNER_CORS_ORIGINS", DefaultCORSOrigins),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.BCBBaseURL == "" {
		return fmt.Errorf("central bank base URL is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %v", c.HTTPTimeout)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshSchedule, err)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw distinguishes "unset" from "set to empty" so a schedule can be disabled.
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
