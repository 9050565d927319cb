package backend

import (
	"context"
	"errors"

	"scadenze/internal/amqp"
	"scadenze/internal/cache"
	"scadenze/internal/services"
	"scadenze/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend is the application context: one instance of every service, all sharing one
// Storage Port. It replaces package-level singletons.
type Backend struct {
	Repo        *storage.SQLiteRepository
	Entries     *services.EntryService
	Aggregation *services.AggregationService
	Dashboard   *services.DashboardService
	Reports     *services.ReportService
	Settings    *services.SettingsService
	Maintenance *services.MaintenanceService
	Reminders   *services.ReminderProcessor

	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	Caches    *cache.Manager

	cleanup []CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

func (b *Backend) onClose(fn CleanupFunc) {
	b.cleanup = append(b.cleanup, fn)
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		if err := b.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanup = nil
	return errors.Join(errs...)
}

// Ready reports whether the storage connection answers.
func (b *Backend) Ready(ctx context.Context) error {
	return b.Repo.Ping(ctx)
}
