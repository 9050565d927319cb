package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fact names the base dataset of an aggregation.
type Fact string

const (
	FactPaymentsExpense Fact = "payments_expense"
	FactPaymentsIncome  Fact = "payments_income"
	FactPaymentsAll     Fact = "payments_all"
	FactPayments        Fact = "payments"
	FactEntries         Fact = "entries"
)

// Dimension names the grouping key of an aggregation.
type Dimension string

const (
	DimMonth    Dimension = "month"
	DimCategory Dimension = "category"
	DimStatus   Dimension = "status"
	DimType     Dimension = "type"
)

// Measure names the aggregate function applied per group.
type Measure string

const (
	MeasureSum   Measure = "sum"
	MeasureCount Measure = "count"
	MeasureAvg   Measure = "avg"
)

type (
	// AggregateFilters narrows the fact. Zero values mean "no filter". DateFrom and
	// DateTo are inclusive bounds on the payment due date.
	AggregateFilters struct {
		Type     EntryType     `json:"type,omitempty"`
		Status   PaymentStatus `json:"status,omitempty"`
		DateFrom string        `json:"date_from,omitempty"`
		DateTo   string        `json:"date_to,omitempty"`
	}

	AggregateQuery struct {
		Fact      Fact             `json:"fact"`
		Dimension Dimension        `json:"dimension"`
		Measure   Measure          `json:"measure"`
		Filters   AggregateFilters `json:"filters"`
	}

	AggregateRow struct {
		Key   string          `json:"key"`
		Value decimal.Decimal `json:"value"`
	}
)

// ImpliedType returns the entry type a fact restricts to, if any.
func (f Fact) ImpliedType() (EntryType, bool) {
	switch f {
	case FactPaymentsExpense:
		return Expense, true
	case FactPaymentsIncome:
		return Income, true
	}
	return "", false
}

func (f Fact) Valid() bool {
	switch f {
	case FactPaymentsExpense, FactPaymentsIncome, FactPaymentsAll, FactPayments, FactEntries:
		return true
	}
	return false
}

func (d Dimension) Valid() bool {
	switch d {
	case DimMonth, DimCategory, DimStatus, DimType:
		return true
	}
	return false
}

func (m Measure) Valid() bool {
	switch m {
	case MeasureSum, MeasureCount, MeasureAvg:
		return true
	}
	return false
}

// EffectiveType resolves the type filter: an explicit filter type wins over the one
// implied by the fact.
func (q AggregateQuery) EffectiveType() (EntryType, bool) {
	if q.Filters.Type != "" {
		return q.Filters.Type, true
	}
	return q.Fact.ImpliedType()
}

// Normalize lower-cases and trims every field so that loosely typed input
// (stored report configs, query strings) compares against the constants.
func (q AggregateQuery) Normalize() AggregateQuery {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	q.Fact = Fact(norm(string(q.Fact)))
	q.Dimension = Dimension(norm(string(q.Dimension)))
	q.Measure = Measure(norm(string(q.Measure)))
	q.Filters.Type = EntryType(norm(string(q.Filters.Type)))
	q.Filters.Status = PaymentStatus(norm(string(q.Filters.Status)))
	q.Filters.DateFrom = strings.TrimSpace(q.Filters.DateFrom)
	q.Filters.DateTo = strings.TrimSpace(q.Filters.DateTo)
	return q
}

// Validate rejects unknown fact, dimension, measure and filter values.
func (q AggregateQuery) Validate() error {
	if !q.Fact.Valid() {
		return ErrInvalidFact
	}
	if !q.Dimension.Valid() {
		return ErrInvalidDimension
	}
	if !q.Measure.Valid() {
		return ErrInvalidMeasure
	}
	if q.Filters.Type != "" && !q.Filters.Type.Valid() {
		return ErrInvalidEntryType
	}
	if q.Filters.Status != "" && !q.Filters.Status.Valid() {
		return ErrInvalidStatus
	}
	var from, to Date
	var err error
	if q.Filters.DateFrom != "" {
		if from, err = ParseDate(q.Filters.DateFrom); err != nil {
			return err
		}
	}
	if q.Filters.DateTo != "" {
		if to, err = ParseDate(q.Filters.DateTo); err != nil {
			return err
		}
	}
	if q.Filters.DateFrom != "" && q.Filters.DateTo != "" && from.After(to.Time) {
		return ErrInvalidRange
	}
	return nil
}
