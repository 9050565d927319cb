package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

// ReportService stores named aggregation queries and replays them.
type ReportService struct {
	base
	repo  *storage.SQLiteRepository
	agg   *AggregationService
	newID func() string
}

func NewReportService(repo *storage.SQLiteRepository, agg *AggregationService, opts ...Option) *ReportService {
	return &ReportService{
		base:  newBase(log.ComponentReports, opts),
		repo:  repo,
		agg:   agg,
		newID: uuid.NewString,
	}
}

// SaveReport stores a new report definition and returns its id. The config is kept as
// given; unknown fact, dimension or measure values only fail when the report is run.
func (s *ReportService) SaveReport(ctx context.Context, name string, config core.ReportConfig) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.ErrEmptyName
	}

	now := s.now().UTC()
	r := core.ReportDefinition{
		ID:        s.newID(),
		Name:      name,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertReport(ctx, r); err != nil {
		return "", s.fail(ctx, "Failed to save report", err, log.OpCreate, nil)
	}

	s.logger.InfoContext(ctx, "Report saved", log.FieldReportID, r.ID, "name", name)
	return r.ID, nil
}

// ListReports returns every report definition, newest first.
func (s *ReportService) ListReports(ctx context.Context) ([]core.ReportDefinition, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list reports", err, log.OpList, nil)
	}
	return reports, nil
}

func (s *ReportService) GetReport(ctx context.Context, id string) (core.ReportDefinition, error) {
	r, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return core.ReportDefinition{}, s.fail(ctx, "Failed to get report", err, log.OpRead, nil)
	}
	return r, nil
}

// UpdateReport replaces the name and config of a report.
func (s *ReportService) UpdateReport(ctx context.Context, id, name string, config core.ReportConfig) (core.ReportDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ReportDefinition{}, core.ErrEmptyName
	}

	var updated core.ReportDefinition
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.UpdateReport(ctx, id, name, config, s.now().UTC()); err != nil {
			return err
		}
		updated, err = q.GetReport(ctx, id)
		return err
	})
	if err != nil {
		return core.ReportDefinition{}, s.fail(ctx, "Failed to update report", err, log.OpUpdate, nil)
	}
	return updated, nil
}

// DeleteReport removes a report definition for good.
func (s *ReportService) DeleteReport(ctx context.Context, id string) error {
	if err := s.repo.DeleteReport(ctx, id); err != nil {
		return s.fail(ctx, "Failed to delete report", err, log.OpDelete, nil)
	}
	s.logger.InfoContext(ctx, "Report deleted", log.FieldReportID, id)
	return nil
}

// RunReport executes the stored config of a report through the aggregation engine, which
// rejects configs it does not understand with a validation error.
func (s *ReportService) RunReport(ctx context.Context, id string) (core.ReportDefinition, []core.AggregateRow, error) {
	r, err := s.GetReport(ctx, id)
	if err != nil {
		return core.ReportDefinition{}, nil, err
	}
	rows, err := s.agg.Aggregate(ctx, r.Config.Query())
	if err != nil {
		return core.ReportDefinition{}, nil, err
	}
	return r, rows, nil
}
