package backend

import (
	"context"
	"fmt"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/cache"
	"scadenze/internal/log"
	"scadenze/internal/services"
	"scadenze/internal/storage"
)

const (
	reminderCacheSize    = 10000
	cacheCleanupInterval = 10 * time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens and migrates the database, connects to AMQP when configured and
// wires every service. A migration failure is returned and nothing is left open.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	b := &Backend{Repo: repo, Caches: cache.NewManager()}
	b.onClose(repo.Close)

	opts := []services.Option{services.WithLogger(f.logger), services.WithLocation(config.Location)}
	if config.Clock != nil {
		opts = append(opts, services.WithClock(config.Clock))
	}

	var publisher services.ReminderPublisher
	if config.AMQPURL != "" {
		attempts := config.AMQPConnectAttempts
		if attempts < 1 {
			attempts = 1
		}
		client, err := amqp.NewClientWithRetry(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, attempts)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, reminders run in dry-run mode", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			b.Publisher = client
			publisher = client
			b.onClose(client.Close)
		}
	}

	window := config.ReminderDedupeWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	sent := cache.NewLRUCache[time.Time](reminderCacheSize, window)
	if config.Clock != nil {
		sent.WithClock(config.Clock)
	}
	b.Caches.Register(sent)
	b.Caches.StartCleanup(cacheCleanupInterval)
	b.onClose(func() error {
		b.Caches.Stop()
		return nil
	})

	b.Aggregation = services.NewAggregationService(repo, opts...)
	b.Entries = services.NewEntryService(repo, config.Rounding, opts...)
	b.Dashboard = services.NewDashboardService(repo, b.Aggregation, opts...)
	b.Reports = services.NewReportService(repo, b.Aggregation, opts...)
	b.Settings = services.NewSettingsService(repo, opts...)
	b.Maintenance = services.NewMaintenanceService(repo, opts...)
	b.Reminders = services.NewReminderProcessor(repo, b.Settings, publisher, sent, config.ReminderLookaheadDays, opts...)
	b.Maintenance.OnReset(b.Reminders.Forget)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"rounding", string(b.Entries.Policy()),
		"amqp_enabled", b.Publisher != nil)

	return b, nil
}
