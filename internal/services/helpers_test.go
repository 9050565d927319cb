package services

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

type testEnv struct {
	path     string
	repo     *storage.SQLiteRepository
	opts     []Option
	entries  *EntryService
	agg      *AggregationService
	dash     *DashboardService
	reports  *ReportService
	settings *SettingsService
	maint    *MaintenanceService
}

// newTestEnv builds every service over a fresh database with the clock pinned to noon
// UTC of today (YYYY-MM-DD).
func newTestEnv(t *testing.T, today string, policy core.RoundingPolicy) *testEnv {
	t.Helper()

	d, err := core.ParseDate(today)
	if err != nil {
		t.Fatalf("bad test date %q: %v", today, err)
	}
	now := d.Add(12 * time.Hour)

	path := filepath.Join(t.TempDir(), "scadenze.db")
	repo, err := storage.NewSQLiteRepository(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	opts := []Option{
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
		WithLogger(log.New(log.Config{Output: io.Discard})),
	}
	agg := NewAggregationService(repo, opts...)
	return &testEnv{
		path:     path,
		repo:     repo,
		opts:     opts,
		entries:  NewEntryService(repo, policy, opts...),
		agg:      agg,
		dash:     NewDashboardService(repo, agg, opts...),
		reports:  NewReportService(repo, agg, opts...),
		settings: NewSettingsService(repo, opts...),
		maint:    NewMaintenanceService(repo, opts...),
	}
}

func (e *testEnv) create(t *testing.T, typ core.EntryType, amount string, months int, start string) string {
	t.Helper()
	return e.createWith(t, core.NewEntry{Type: typ, Amount: decimal.RequireFromString(amount), Months: months, StartDate: start})
}

func (e *testEnv) createWith(t *testing.T, in core.NewEntry) string {
	t.Helper()
	if in.Title == "" {
		in.Title = string(in.Type) + " " + in.StartDate
	}
	id, err := e.entries.CreateEntryWithSchedule(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateEntryWithSchedule(%+v): %v", in, err)
	}
	return id
}

func (e *testEnv) payments(t *testing.T, entryID string) []core.Payment {
	t.Helper()
	ps, err := e.entries.GetPaymentsByEntry(context.Background(), entryID)
	if err != nil {
		t.Fatalf("GetPaymentsByEntry(%s): %v", entryID, err)
	}
	return ps
}

func (e *testEnv) setStatus(t *testing.T, paymentID string, status core.PaymentStatus) {
	t.Helper()
	if _, err := e.entries.UpdatePaymentStatus(context.Background(), paymentID, status); err != nil {
		t.Fatalf("UpdatePaymentStatus(%s, %s): %v", paymentID, status, err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intp(n int) *int { return &n }
