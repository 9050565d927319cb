package ports

import (
	"context"

	"scadenze/internal/core"
)

// Ports consumed by the HTTP layer. The services in internal/services satisfy them.
type (
	EntryManager interface {
		CreateEntryWithSchedule(ctx context.Context, in core.NewEntry) (entryID string, err error)
		GetEntries(ctx context.Context, entryType core.EntryType) ([]core.Entry, error)
		GetEntry(ctx context.Context, id string) (core.Entry, error)
		UpdateEntry(ctx context.Context, id string, u core.EntryUpdate) (core.Entry, error)
		DeleteEntry(ctx context.Context, id string) error
		GetPaymentsByEntry(ctx context.Context, entryID string) ([]core.Payment, error)
		GetPayment(ctx context.Context, id string) (core.Payment, error)
		UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error)
	}

	Aggregator interface {
		Aggregate(ctx context.Context, q core.AggregateQuery) ([]core.AggregateRow, error)
	}

	// DashboardReader provides the precomputed dashboard views.
	DashboardReader interface {
		GetDashboardSummary(ctx context.Context, month string) (core.DashboardSummary, error)
		GetMonthlySeries(ctx context.Context, entryType core.EntryType, opts core.SeriesOptions) ([]core.MonthTotal, error)
		GetMonthlyExpenseBreakdown(ctx context.Context, opts core.SeriesOptions) ([]core.MonthBreakdown, error)
		GetUpcomingPayments(ctx context.Context, limit, daysAhead int) ([]core.DuePayment, error)
		GetOverduePayments(ctx context.Context, entryType core.EntryType, limit int) ([]core.DuePayment, error)
		GetAvailableYears(ctx context.Context) ([]int, error)
		GetYearlyCashFlow(ctx context.Context, year int) (core.CashFlow, error)
		CurrentYear() int
	}

	ReportStore interface {
		SaveReport(ctx context.Context, name string, config core.ReportConfig) (string, error)
		ListReports(ctx context.Context) ([]core.ReportDefinition, error)
		GetReport(ctx context.Context, id string) (core.ReportDefinition, error)
		UpdateReport(ctx context.Context, id, name string, config core.ReportConfig) (core.ReportDefinition, error)
		DeleteReport(ctx context.Context, id string) error
		RunReport(ctx context.Context, id string) (core.ReportDefinition, []core.AggregateRow, error)
	}

	SettingsStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		ListCategories(ctx context.Context, t core.EntryType) ([]core.Category, error)
		GetSetting(ctx context.Context, key string) (string, error)
		SetSetting(ctx context.Context, key, value string) error
		ListSettings(ctx context.Context) ([]core.Setting, error)
	}

	Maintainer interface {
		ResetAppData(ctx context.Context, confirm string) error
		SchemaVersion(ctx context.Context) (uint, error)
	}

	// ReadinessChecker reports whether the storage backend can serve requests.
	ReadinessChecker interface {
		Ready(ctx context.Context) error
	}
)
