package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"scadenze/internal/core"
)

func seedAggregateFixture(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := repo.Queries

	seedEntry(t, q, "groceries", core.Expense, "food", t0,
		paymentSeed{"2024-01-10", 200, core.Paid},
		paymentSeed{"2024-02-10", 300, core.Pending})
	seedEntry(t, q, "rent", core.Expense, "rent", t0,
		paymentSeed{"2024-01-01", 600, core.Paid},
		paymentSeed{"2024-02-01", 600, core.Pending})
	seedEntry(t, q, "salary", core.Income, "job", t0,
		paymentSeed{"2024-01-27", 2000, core.Received})
	seedEntry(t, q, "loan", core.Receivable, "", t0,
		paymentSeed{"2024-03-15", 150.5, core.Pending})

	// Soft-deleted rows never count.
	seedEntry(t, q, "deleted", core.Expense, "food", t0, paymentSeed{"2024-01-05", 999, core.Paid})
	if err := q.SoftDeleteEntry(context.Background(), "deleted", t0); err != nil {
		t.Fatalf("SoftDeleteEntry: %v", err)
	}
}

func rowsEqual(got []core.AggregateRow, want []core.AggregateRow) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Key != want[i].Key || !got[i].Value.Equal(want[i].Value) {
			return false
		}
	}
	return true
}

func row(key string, v float64) core.AggregateRow {
	return core.AggregateRow{Key: key, Value: decimal.NewFromFloat(v)}
}

func TestAggregate(t *testing.T) {
	repo := newTestRepo(t)
	seedAggregateFixture(t, repo)

	tests := []struct {
		name  string
		query core.AggregateQuery
		want  []core.AggregateRow
	}{
		{
			name:  "expense by category sum",
			query: core.AggregateQuery{Fact: core.FactPaymentsExpense, Dimension: core.DimCategory, Measure: core.MeasureSum},
			want:  []core.AggregateRow{row("rent", 1200), row("food", 500)},
		},
		{
			name:  "all by type count",
			query: core.AggregateQuery{Fact: core.FactPaymentsAll, Dimension: core.DimType, Measure: core.MeasureCount},
			want:  []core.AggregateRow{row("expense", 4), row("income", 1), row("receivable", 1)},
		},
		{
			name:  "explicit type filter overrides fact",
			query: core.AggregateQuery{Fact: core.FactPaymentsExpense, Dimension: core.DimType, Measure: core.MeasureSum, Filters: core.AggregateFilters{Type: core.Income}},
			want:  []core.AggregateRow{row("income", 2000)},
		},
		{
			name:  "expense by month avg",
			query: core.AggregateQuery{Fact: core.FactPaymentsExpense, Dimension: core.DimMonth, Measure: core.MeasureAvg},
			want:  []core.AggregateRow{row("2024-02", 450), row("2024-01", 400)},
		},
		{
			name:  "status filter",
			query: core.AggregateQuery{Fact: core.FactPayments, Dimension: core.DimStatus, Measure: core.MeasureSum, Filters: core.AggregateFilters{Status: core.Pending}},
			want:  []core.AggregateRow{row("pending", 1050.5)},
		},
		{
			name: "inclusive date bounds",
			query: core.AggregateQuery{Fact: core.FactEntries, Dimension: core.DimMonth, Measure: core.MeasureCount,
				Filters: core.AggregateFilters{DateFrom: "2024-01-27", DateTo: "2024-02-01"}},
			want: []core.AggregateRow{row("2024-01", 1), row("2024-02", 1)},
		},
		{
			name:  "uncategorized key",
			query: core.AggregateQuery{Fact: core.FactPaymentsAll, Dimension: core.DimCategory, Measure: core.MeasureSum, Filters: core.AggregateFilters{Type: core.Receivable}},
			want:  []core.AggregateRow{row("", 150.5)},
		},
		{
			name:  "no match returns empty",
			query: core.AggregateQuery{Fact: core.FactPaymentsIncome, Dimension: core.DimMonth, Measure: core.MeasureSum, Filters: core.AggregateFilters{DateFrom: "2030-01-01"}},
			want:  []core.AggregateRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Aggregate(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if !rowsEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_GroupSumsMatchTotal(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedAggregateFixture(t, repo)

	facts := []core.Fact{core.FactPaymentsExpense, core.FactPaymentsIncome, core.FactPaymentsAll, core.FactPayments, core.FactEntries}
	dims := []core.Dimension{core.DimMonth, core.DimCategory, core.DimStatus, core.DimType}
	filters := []core.AggregateFilters{
		{},
		{Status: core.Pending},
		{DateFrom: "2024-01-15"},
		{DateTo: "2024-01-31", Type: core.Expense},
	}

	for _, fact := range facts {
		for _, dim := range dims {
			for _, f := range filters {
				query := core.AggregateQuery{Fact: fact, Dimension: dim, Measure: core.MeasureSum, Filters: f}
				groups, err := repo.Aggregate(ctx, query)
				if err != nil {
					t.Fatalf("Aggregate(%+v): %v", query, err)
				}
				total, err := repo.AggregateTotal(ctx, query)
				if err != nil {
					t.Fatalf("AggregateTotal(%+v): %v", query, err)
				}

				sum := decimal.Zero
				for _, g := range groups {
					sum = sum.Add(g.Value)
				}
				if !sum.Equal(core.AmountFromFloat(total)) {
					t.Errorf("%s/%s/%+v: groups sum to %s, total is %v", fact, dim, f, sum, total)
				}
			}
		}
	}
}

func TestAggregate_UnknownDimension(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Aggregate(context.Background(), core.AggregateQuery{Fact: core.FactPaymentsAll, Dimension: "weekday", Measure: core.MeasureSum})
	if err != core.ErrInvalidDimension {
		t.Errorf("error = %v, want ErrInvalidDimension", err)
	}
}
