package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"scadenze/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Scheduling
	InstallmentRounding string
	Timezone            string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Reminder worker
	ReminderInterval      time.Duration
	ReminderSchedule      string
	ReminderLookaheadDays int
	ReminderDedupeWindow  time.Duration

	// Middleware
	RateLimitPerMinute int
	EnableHSTS         bool

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/scadenze.db"),

		InstallmentRounding: getEnv("INSTALLMENT_ROUNDING", string(core.RoundEach)),
		Timezone:            getEnv("TIMEZONE", "Local"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "scadenze"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "payment_reminders"),

		ReminderInterval:      getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ReminderSchedule:      getEnv("REMINDER_SCHEDULE", ""),
		ReminderLookaheadDays: getEnvInt("REMINDER_LOOKAHEAD_DAYS", 30),
		ReminderDedupeWindow:  getEnvDuration("REMINDER_DEDUPE_WINDOW", 24*time.Hour),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every problem found.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if _, err := core.ParseRoundingPolicy(c.InstallmentRounding); err != nil {
		errors = append(errors, fmt.Sprintf("invalid installment rounding '%s': must be '%s' or '%s'",
			c.InstallmentRounding, core.RoundEach, core.LastAbsorbs))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}
	// A cron schedule, when set, replaces the fixed interval.
	if c.ReminderSchedule != "" {
		if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderSchedule, err))
		}
	}
	if c.ReminderLookaheadDays < 1 || c.ReminderLookaheadDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid reminder lookahead %d: must be between 1 and 366 days", c.ReminderLookaheadDays))
	}
	if c.ReminderDedupeWindow < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder dedupe window %v: must be at least 1 minute", c.ReminderDedupeWindow))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// RoundingPolicy returns the parsed INSTALLMENT_ROUNDING value. Call Validate first.
func (c *Config) RoundingPolicy() core.RoundingPolicy {
	p, err := core.ParseRoundingPolicy(c.InstallmentRounding)
	if err != nil {
		return core.RoundEach
	}
	return p
}

// Location returns the zone that decides the current calendar day. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
