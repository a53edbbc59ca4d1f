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
	RefreshSequential = "sequential"
	RefreshConcurrent = "concurrent"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Budget API
	BudgetAPIURL     string
	BudgetAPITimeout time.Duration
	CategoryCacheTTL time.Duration

	// Dashboard behaviour
	TrendMonths         int
	RefreshMode         string
	NotifyAllLoadErrors bool
	SessionTTL          time.Duration
	MaxSessions         int

	// AMQP (dashboard events, disabled when URL is empty)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		BudgetAPIURL:     getEnv("BUDGET_API_URL", "http://localhost:5000"),
		BudgetAPITimeout: getEnvDuration("BUDGET_API_TIMEOUT", 7*time.Second),
		CategoryCacheTTL: getEnvDuration("CATEGORY_CACHE_TTL", 10*time.Minute),

		TrendMonths:         getEnvInt("TREND_MONTHS", 3),
		RefreshMode:         getEnv("REFRESH_MODE", RefreshSequential),
		NotifyAllLoadErrors: getEnvBool("NOTIFY_ALL_LOAD_ERRORS", false),
		SessionTTL:          getEnvDuration("SESSION_TTL", 30*time.Minute),
		MaxSessions:         getEnvInt("MAX_SESSIONS", 500),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "budgetdash"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "dashboard_events"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate budget API URL
	if c.BudgetAPIURL == "" {
		errors = append(errors, "budget API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.BudgetAPIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid budget API URL '%s': %v", c.BudgetAPIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid budget API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.BudgetAPITimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid budget API timeout %v: must be at least 100ms", c.BudgetAPITimeout))
	} else if c.BudgetAPITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid budget API timeout %v: must be at most 2 minutes", c.BudgetAPITimeout))
	}

	// Validate trend window
	if c.TrendMonths < 1 || c.TrendMonths > 24 {
		errors = append(errors, fmt.Sprintf("invalid trend months %d: must be between 1 and 24", c.TrendMonths))
	}

	// Validate refresh mode
	validModes := []string{RefreshSequential, RefreshConcurrent}
	isValidMode := false
	for _, mode := range validModes {
		if c.RefreshMode == mode {
			isValidMode = true
			break
		}
	}
	if !isValidMode {
		errors = append(errors, fmt.Sprintf("invalid refresh mode '%s': must be one of %v", c.RefreshMode, validModes))
	}

	// Validate session store
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EventsEnabled reports whether dashboard events should be published
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
