package services

import (
	"context"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

// ResetConfirmation must be passed verbatim to ResetAppData.
const ResetConfirmation = "RESET"

// MaintenanceService exposes schema migration and the destructive reset.
type MaintenanceService struct {
	base
	repo    *storage.SQLiteRepository
	onReset []func()
}

func NewMaintenanceService(repo *storage.SQLiteRepository, opts ...Option) *MaintenanceService {
	return &MaintenanceService{
		base: newBase(log.ComponentStorage, opts),
		repo: repo,
	}
}

// OnReset registers a callback run after a successful reset, typically to drop caches
// that hold ids of deleted rows.
func (s *MaintenanceService) OnReset(fn func()) {
	s.onReset = append(s.onReset, fn)
}

// MigrateToLatest applies every pending schema step. It is a no-op on an up to date store.
func (s *MaintenanceService) MigrateToLatest(ctx context.Context) error {
	if err := s.repo.MigrateToLatest(ctx); err != nil {
		return s.fail(ctx, "Migration failed", err, log.OpMigrate, nil)
	}
	return nil
}

// ResetAppData drops entries, payments, reports, settings and the schema version, then
// migrates again from scratch in the same transaction. confirm must equal ResetConfirmation.
func (s *MaintenanceService) ResetAppData(ctx context.Context, confirm string) error {
	if confirm != ResetConfirmation {
		return core.ErrNotConfirmed
	}
	if err := s.repo.ResetAppData(ctx); err != nil {
		return s.fail(ctx, "Reset failed", err, log.OpReset, nil)
	}
	for _, fn := range s.onReset {
		fn()
	}
	s.logger.WarnContext(ctx, "Application data reset", log.FieldOperation, log.OpReset)
	return nil
}

func (s *MaintenanceService) SchemaVersion(ctx context.Context) (uint, error) {
	v, err := s.repo.SchemaVersion(ctx)
	if err != nil {
		return 0, s.fail(ctx, "Failed to read schema version", err, log.OpRead, nil)
	}
	return v, nil
}
