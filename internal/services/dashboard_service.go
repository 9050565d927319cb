package services

import (
	"context"
	"fmt"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

const (
	DefaultSeriesLimit   = 12
	DefaultUpcomingLimit = 10
	DefaultUpcomingDays  = 30
	DefaultOverdueLimit  = 10
)

// DashboardService computes the fixed dashboard views.
type DashboardService struct {
	base
	repo *storage.SQLiteRepository
	agg  *AggregationService
}

func NewDashboardService(repo *storage.SQLiteRepository, agg *AggregationService, opts ...Option) *DashboardService {
	return &DashboardService{
		base: newBase(log.ComponentDashboard, opts),
		repo: repo,
		agg:  agg,
	}
}

// GetDashboardSummary returns total, settled and pending sums for expense and income,
// restricted to month (YYYY-MM) when it is not empty.
func (s *DashboardService) GetDashboardSummary(ctx context.Context, month string) (core.DashboardSummary, error) {
	var filters core.AggregateFilters
	if month != "" {
		if !core.ValidMonthKey(month) {
			return core.DashboardSummary{}, core.ErrInvalidMonth
		}
		first, err := core.ParseDate(month + "-01")
		if err != nil {
			return core.DashboardSummary{}, core.ErrInvalidMonth
		}
		filters.DateFrom = first.String()
		filters.DateTo = first.AddMonths(1).AddDays(-1).String()
	}

	summary := core.DashboardSummary{Month: month}
	for _, fact := range []core.Fact{core.FactPaymentsExpense, core.FactPaymentsIncome} {
		rows, err := s.agg.Aggregate(ctx, core.AggregateQuery{
			Fact:      fact,
			Dimension: core.DimStatus,
			Measure:   core.MeasureSum,
			Filters:   filters,
		})
		if err != nil {
			return core.DashboardSummary{}, err
		}

		var ts core.TypeSummary
		for _, r := range rows {
			ts.Total = ts.Total.Add(r.Value)
			switch core.PaymentStatus(r.Key) {
			case core.Pending:
				ts.Pending = ts.Pending.Add(r.Value)
			case core.Paid, core.Received:
				ts.Paid = ts.Paid.Add(r.Value)
			}
		}
		if fact == core.FactPaymentsExpense {
			summary.Expense = ts
		} else {
			summary.Income = ts
		}
	}
	return summary, nil
}

func normalizeSeries(opts core.SeriesOptions) (core.SeriesOptions, error) {
	if opts.Year < 0 || opts.Year > 9999 {
		return opts, core.ErrInvalidYear
	}
	if opts.Limit < 0 {
		return opts, core.ErrInvalidLimit
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultSeriesLimit
	}
	return opts, nil
}

// GetMonthlySeries returns per-month totals of one entry type in chronological order.
// Without a year only payments due up to today count and the last opts.Limit months are
// kept; with a year every month of that year is eligible, still capped from the end.
func (s *DashboardService) GetMonthlySeries(ctx context.Context, entryType core.EntryType, opts core.SeriesOptions) ([]core.MonthTotal, error) {
	if !entryType.Valid() {
		return nil, core.ErrInvalidEntryType
	}
	breakdown, err := s.breakdown(ctx, entryType, opts)
	if err != nil {
		return nil, err
	}

	out := make([]core.MonthTotal, len(breakdown))
	for i, b := range breakdown {
		out[i] = core.MonthTotal{Month: b.Month, Total: b.Total}
	}
	return out, nil
}

// GetMonthlyExpenseBreakdown is GetMonthlySeries for expenses, with the settled share
// of every month.
func (s *DashboardService) GetMonthlyExpenseBreakdown(ctx context.Context, opts core.SeriesOptions) ([]core.MonthBreakdown, error) {
	return s.breakdown(ctx, core.Expense, opts)
}

func (s *DashboardService) breakdown(ctx context.Context, entryType core.EntryType, opts core.SeriesOptions) ([]core.MonthBreakdown, error) {
	opts, err := normalizeSeries(opts)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.MonthlyBreakdown(ctx, entryType, opts, s.today())
	if err != nil {
		return nil, s.fail(ctx, "Failed to compute monthly series", err, log.OpRead, log.NewFields().WithOperation("monthly_series"))
	}
	return out, nil
}

// GetUpcomingPayments lists pending payments due between today and today+daysAhead,
// inclusive, earliest first.
func (s *DashboardService) GetUpcomingPayments(ctx context.Context, limit, daysAhead int) ([]core.DuePayment, error) {
	if limit < 0 || daysAhead < 0 {
		return nil, core.ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultUpcomingLimit
	}
	today := s.today()
	out, err := s.repo.PendingPaymentsBetween(ctx, today, today.AddDays(daysAhead), limit)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list upcoming payments", err, log.OpList, nil)
	}
	return out, nil
}

// GetOverduePayments lists pending payments of entryType due before today, earliest first.
func (s *DashboardService) GetOverduePayments(ctx context.Context, entryType core.EntryType, limit int) ([]core.DuePayment, error) {
	if !entryType.Valid() {
		return nil, core.ErrInvalidEntryType
	}
	if limit < 0 {
		return nil, core.ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultOverdueLimit
	}
	out, err := s.repo.OverduePayments(ctx, entryType, s.today(), limit)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list overdue payments", err, log.OpList, nil)
	}
	return out, nil
}

// GetAvailableYears returns every year with at least one active payment, newest first.
func (s *DashboardService) GetAvailableYears(ctx context.Context) ([]int, error) {
	years, err := s.repo.AvailableYears(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list available years", err, log.OpList, nil)
	}
	return years, nil
}

// GetYearlyCashFlow sums settled income and expense payments due in year.
func (s *DashboardService) GetYearlyCashFlow(ctx context.Context, year int) (core.CashFlow, error) {
	if year < 1 || year > 9999 {
		return core.CashFlow{}, core.ErrInvalidYear
	}
	income, expense, err := s.repo.SettledByType(ctx, year)
	if err != nil {
		return core.CashFlow{}, s.fail(ctx, "Failed to compute yearly cash flow", err, log.OpRead,
			log.NewFields().WithOperation(fmt.Sprintf("cashflow_%d", year)))
	}

	cf := core.CashFlow{
		Year:    year,
		Income:  core.AmountFromFloat(income),
		Expense: core.AmountFromFloat(expense),
	}
	cf.Net = cf.Income.Sub(cf.Expense)
	return cf, nil
}

// CurrentYear is the calendar year of the service clock.
func (s *DashboardService) CurrentYear() int {
	return s.now().In(s.loc).Year()
}
