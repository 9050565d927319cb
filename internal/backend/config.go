package backend

import (
	"fmt"
	"time"

	"scadenze/internal/config"
	"scadenze/internal/core"
)

// Config holds everything needed to assemble a Backend.
type Config struct {
	SQLiteDBPath string
	Rounding     core.RoundingPolicy
	// Location decides which calendar day "today" is.
	Location *time.Location

	// AMQP is optional; without a URL reminders run in dry-run mode.
	AMQPURL             string
	AMQPExchange        string
	AMQPQueue           string
	AMQPConnectAttempts int

	ReminderLookaheadDays int
	ReminderDedupeWindow  time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	rounding, err := core.ParseRoundingPolicy(appConfig.InstallmentRounding)
	if err != nil {
		return Config{}, fmt.Errorf("installment rounding %q: %w", appConfig.InstallmentRounding, err)
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,
		Rounding:     rounding,
		Location:     appConfig.Location(),

		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		AMQPQueue:           appConfig.AMQPQueue,
		AMQPConnectAttempts: 3,

		ReminderLookaheadDays: appConfig.ReminderLookaheadDays,
		ReminderDedupeWindow:  appConfig.ReminderDedupeWindow,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.Rounding != "" {
		if _, err := core.ParseRoundingPolicy(string(c.Rounding)); err != nil {
			return err
		}
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when an AMQP URL is set")
	}
	if c.ReminderLookaheadDays < 0 {
		return fmt.Errorf("reminder lookahead must not be negative, got %d", c.ReminderLookaheadDays)
	}
	return nil
}
