package services

import (
	"context"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

// AggregationService answers fact/dimension/measure queries over active payments.
type AggregationService struct {
	base
	repo *storage.SQLiteRepository
}

func NewAggregationService(repo *storage.SQLiteRepository, opts ...Option) *AggregationService {
	return &AggregationService{
		base: newBase(log.ComponentAggregate, opts),
		repo: repo,
	}
}

// Aggregate validates the query and returns one row per group, largest value first and
// key ascending among equal values. Unknown fact, dimension or measure values are
// rejected with a validation error.
func (s *AggregationService) Aggregate(ctx context.Context, q core.AggregateQuery) ([]core.AggregateRow, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.Aggregate(ctx, q)
	if err != nil {
		fields := log.NewFields()
		fields["fact"], fields["dimension"], fields["measure"] = q.Fact, q.Dimension, q.Measure
		return nil, s.fail(ctx, "Aggregation failed", err, log.OpAggregate, fields)
	}
	return rows, nil
}
