package services

import (
	"context"
	"errors"
	"testing"

	"scadenze/internal/core"
)

func TestSettingsService(t *testing.T) {
	env := newTestEnv(t, "2024-01-01", "")
	ctx := context.Background()

	settings, err := env.settings.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	defaults := map[string]string{
		SettingCurrency:             "EUR",
		SettingLanguage:             "en",
		SettingTheme:                "system",
		SettingNotificationsEnabled: "1",
		SettingReminderDaysBefore:   "3",
		SettingBiometricLock:        "0",
	}
	if len(settings) != len(defaults) {
		t.Fatalf("got %d settings, want %d", len(settings), len(defaults))
	}
	for _, s := range settings {
		if defaults[s.Key] != s.Value {
			t.Errorf("setting %s = %q, want %q", s.Key, s.Value, defaults[s.Key])
		}
	}

	if err := env.settings.SetSetting(ctx, SettingCurrency, "CHF"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := env.settings.SetSetting(ctx, "widget_order", "a,b"); err != nil {
		t.Fatalf("SetSetting(new key): %v", err)
	}
	if v, err := env.settings.GetSetting(ctx, SettingCurrency); err != nil || v != "CHF" {
		t.Errorf("currency = %q, %v", v, err)
	}
	if v, err := env.settings.GetSetting(ctx, "widget_order"); err != nil || v != "a,b" {
		t.Errorf("widget_order = %q, %v", v, err)
	}
	if _, err := env.settings.GetSetting(ctx, "missing"); !errors.Is(err, core.ErrSettingNotFound) {
		t.Errorf("missing setting error = %v", err)
	}
	if err := env.settings.SetSetting(ctx, "  ", "x"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty key error = %v", err)
	}
}

func TestSettingFallbacks(t *testing.T) {
	env := newTestEnv(t, "2024-01-01", "")
	ctx := context.Background()

	if err := env.settings.SetSetting(ctx, SettingReminderDaysBefore, "soon"); err != nil {
		t.Fatal(err)
	}
	if n, err := env.settings.settingInt(ctx, SettingReminderDaysBefore, 7); err != nil || n != 7 {
		t.Errorf("unparsable int = %d, %v; want fallback 7", n, err)
	}
	if b, err := env.settings.settingBool(ctx, "absent", true); err != nil || !b {
		t.Errorf("absent bool = %v, %v; want fallback true", b, err)
	}
	if s, err := env.settings.settingString(ctx, SettingCurrency, "USD"); err != nil || s != "EUR" {
		t.Errorf("currency = %q, %v", s, err)
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, "2024-01-01", "")
	ctx := context.Background()

	for _, c := range []core.Category{
		{Name: "Rent", Type: core.Expense, Icon: "home", Color: "#ff0000"},
		{Name: "Food", Type: "EXPENSE"},
		{Name: "Salary", Type: core.Income},
	} {
		created, err := env.settings.CreateCategory(ctx, c)
		if err != nil {
			t.Fatalf("CreateCategory(%s): %v", c.Name, err)
		}
		if created.ID == "" {
			t.Errorf("category %s has no id", c.Name)
		}
	}

	expenses, err := env.settings.ListCategories(ctx, core.Expense)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(expenses) != 2 || expenses[0].Name != "Food" || expenses[1].Name != "Rent" {
		t.Errorf("expense categories = %+v", expenses)
	}
	if expenses[1].Icon != "home" || expenses[1].Color != "#ff0000" {
		t.Errorf("rent category lost icon/color: %+v", expenses[1])
	}

	all, err := env.settings.ListCategories(ctx, "")
	if err != nil {
		t.Fatalf("ListCategories(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d categories, want 3", len(all))
	}

	if _, err := env.settings.CreateCategory(ctx, core.Category{Name: "", Type: core.Expense}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("empty name error = %v", err)
	}
	if _, err := env.settings.CreateCategory(ctx, core.Category{Name: "X", Type: "gift"}); !errors.Is(err, core.ErrInvalidEntryType) {
		t.Errorf("bad type error = %v", err)
	}
}

func TestMaintenanceService(t *testing.T) {
	env := newTestEnv(t, "2024-01-01", "")
	ctx := context.Background()

	v, err := env.maint.SchemaVersion(ctx)
	if err != nil || v != 4 {
		t.Fatalf("schema version = %d, %v; want 4", v, err)
	}
	if err := env.maint.MigrateToLatest(ctx); err != nil {
		t.Fatalf("MigrateToLatest on current schema: %v", err)
	}

	entryID := env.create(t, core.Expense, "100", 2, "2024-01-01")
	if _, err := env.reports.SaveReport(ctx, "r", core.ReportConfig{Fact: core.FactPaymentsAll, Dimension: core.DimMonth, Measure: core.MeasureSum}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.settings.CreateCategory(ctx, core.Category{Name: "Rent", Type: core.Expense}); err != nil {
		t.Fatal(err)
	}
	if err := env.settings.SetSetting(ctx, SettingCurrency, "USD"); err != nil {
		t.Fatal(err)
	}

	var hooked bool
	env.maint.OnReset(func() { hooked = true })

	if err := env.maint.ResetAppData(ctx, "reset"); !errors.Is(err, core.ErrNotConfirmed) {
		t.Fatalf("unconfirmed reset error = %v", err)
	}
	if entries, _ := env.entries.GetEntries(ctx, ""); len(entries) != 1 {
		t.Fatal("unconfirmed reset removed data")
	}

	if err := env.maint.ResetAppData(ctx, ResetConfirmation); err != nil {
		t.Fatalf("ResetAppData: %v", err)
	}
	if !hooked {
		t.Error("reset hook not called")
	}

	if entries, _ := env.entries.GetEntries(ctx, ""); len(entries) != 0 {
		t.Errorf("entries survived reset: %+v", entries)
	}
	if total, _, _ := env.repo.CountPayments(ctx, entryID); total != 0 {
		t.Errorf("%d payment rows survived reset", total)
	}
	if reports, _ := env.reports.ListReports(ctx); len(reports) != 0 {
		t.Errorf("reports survived reset: %+v", reports)
	}
	if c, _ := env.settings.GetSetting(ctx, SettingCurrency); c != "EUR" {
		t.Errorf("currency after reset = %q, want seeded EUR", c)
	}
	if cats, _ := env.settings.ListCategories(ctx, ""); len(cats) != 1 {
		t.Errorf("categories after reset = %+v, want the one created before", cats)
	}
	if v, _ := env.maint.SchemaVersion(ctx); v != 4 {
		t.Errorf("schema version after reset = %d", v)
	}
}
