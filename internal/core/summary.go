package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TypeSummary totals the payments of one entry type.
type TypeSummary struct {
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
}

// DashboardSummary is the expense/income overview, optionally for a single month.
type DashboardSummary struct {
	Month   string      `json:"month,omitempty"`
	Expense TypeSummary `json:"expense"`
	Income  TypeSummary `json:"income"`
}

// MonthTotal is one point of a monthly series.
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// MonthBreakdown is one point of the monthly expense breakdown.
type MonthBreakdown struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Paid  decimal.Decimal `json:"paid"`
}

// SeriesOptions selects the window of a monthly series. Year 0 means "up to today".
type SeriesOptions struct {
	Year  int
	Limit int
}

// DuePayment is a payment joined with the entry fields a dashboard list shows.
type DuePayment struct {
	PaymentID          string          `json:"payment_id"`
	EntryID            string          `json:"entry_id"`
	Title              string          `json:"title"`
	CategoryID         string          `json:"category_id"`
	Type               EntryType       `json:"type"`
	DueDate            string          `json:"due_date"`
	Amount             decimal.Decimal `json:"amount"`
	Status             PaymentStatus   `json:"status"`
	ReminderDaysBefore *int            `json:"reminder_days_before,omitempty"`
}

// CashFlow holds settled income and expense for one year.
type CashFlow struct {
	Year    int             `json:"year"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// ReportConfig is the persisted shape of a report definition.
type ReportConfig struct {
	Fact      Fact              `json:"fact"`
	Dimension Dimension         `json:"dimension"`
	Measure   Measure           `json:"measure"`
	Filters   *AggregateFilters `json:"filters,omitempty"`
	Chart     string            `json:"chart,omitempty"`
}

// Query converts the config into an aggregation query.
func (c ReportConfig) Query() AggregateQuery {
	q := AggregateQuery{Fact: c.Fact, Dimension: c.Dimension, Measure: c.Measure}
	if c.Filters != nil {
		q.Filters = *c.Filters
	}
	return q
}

// ReportDefinition is a named, reusable aggregation query.
type ReportDefinition struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Config    ReportConfig `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
