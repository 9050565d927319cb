package storage

import (
	"context"
	"fmt"
	"strings"

	"scadenze/internal/core"
)

// SQL fragments are fixed per enum value; user input only ever reaches the query as a
// bound parameter.
var (
	dimensionExpr = map[core.Dimension]string{
		core.DimMonth:    "substr(p.due_date, 1, 7)",
		core.DimCategory: "COALESCE(e.category_id, '')",
		core.DimStatus:   "p.status",
		core.DimType:     "e.type",
	}

	measureExpr = map[core.Measure]string{
		core.MeasureSum:   "COALESCE(SUM(p.amount), 0)",
		core.MeasureCount: "COUNT(p.id)",
		core.MeasureAvg:   "COALESCE(AVG(p.amount), 0)",
	}
)

// paymentFilter builds the WHERE clause shared by aggregate queries over active payments
// joined to active entries.
type paymentFilter struct {
	conds []string
	args  []any
}

func newPaymentFilter() *paymentFilter {
	return &paymentFilter{conds: []string{"p.is_active = 1", "e.is_active = 1"}}
}

func (f *paymentFilter) add(cond string, args ...any) *paymentFilter {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
	return f
}

func (f *paymentFilter) where() string {
	return "WHERE " + strings.Join(f.conds, " AND ")
}

func filterFor(q core.AggregateQuery) *paymentFilter {
	f := newPaymentFilter()
	if t, ok := q.EffectiveType(); ok {
		f.add("e.type = ?", string(t))
	}
	if q.Filters.Status != "" {
		f.add("p.status = ?", string(q.Filters.Status))
	}
	if q.Filters.DateFrom != "" {
		f.add("p.due_date >= ?", q.Filters.DateFrom)
	}
	if q.Filters.DateTo != "" {
		f.add("p.due_date <= ?", q.Filters.DateTo)
	}
	return f
}

// Aggregate groups active payments by the query's dimension and applies its measure.
// The query must already be validated. Rows are ordered by value descending, then key.
func (q *Queries) Aggregate(ctx context.Context, query core.AggregateQuery) ([]core.AggregateRow, error) {
	dim, ok := dimensionExpr[query.Dimension]
	if !ok {
		return nil, core.ErrInvalidDimension
	}
	measure, ok := measureExpr[query.Measure]
	if !ok {
		return nil, core.ErrInvalidMeasure
	}
	f := filterFor(query)

	stmt := fmt.Sprintf(`
SELECT %s AS group_key, %s AS agg_value
FROM payments p
JOIN entries e ON e.id = p.entry_id
%s
GROUP BY group_key
ORDER BY agg_value DESC, group_key ASC`, dim, measure, f.where())

	rows, err := q.db.QueryContext(ctx, stmt, f.args...)
	if err != nil {
		return nil, core.Persistence("aggregate", err)
	}
	defer rows.Close()

	out := []core.AggregateRow{}
	for rows.Next() {
		var (
			key   string
			value float64
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, core.Persistence("scan aggregate row", err)
		}
		out = append(out, core.AggregateRow{Key: key, Value: core.AmountFromFloat(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("aggregate", err)
	}
	return out, nil
}

// AggregateTotal applies the query's measure without grouping.
func (q *Queries) AggregateTotal(ctx context.Context, query core.AggregateQuery) (float64, error) {
	measure, ok := measureExpr[query.Measure]
	if !ok {
		return 0, core.ErrInvalidMeasure
	}
	f := filterFor(query)

	var total float64
	stmt := fmt.Sprintf(`SELECT %s FROM payments p JOIN entries e ON e.id = p.entry_id %s`, measure, f.where())
	if err := q.db.QueryRowContext(ctx, stmt, f.args...).Scan(&total); err != nil {
		return 0, core.Persistence("aggregate total", err)
	}
	return total, nil
}
