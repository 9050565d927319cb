package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense    EntryType = "expense"
	Income     EntryType = "income"
	Receivable EntryType = "receivable"
)

const (
	Once        ScheduleType = "once"
	Installment ScheduleType = "installment"
)

const (
	Pending  PaymentStatus = "pending"
	Paid     PaymentStatus = "paid"
	Received PaymentStatus = "received"
)

type (
	EntryType     string
	ScheduleType  string
	PaymentStatus string

	// Entry is a declared financial obligation before it is expanded into payments.
	Entry struct {
		ID                 string
		CategoryID         string
		Type               EntryType
		Title              string
		Amount             decimal.Decimal
		Months             int
		StartDate          Date
		ScheduleType       ScheduleType
		ReminderDaysBefore *int
		IsActive           bool
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	// Payment is one dated, amount-bearing obligation derived from an Entry.
	Payment struct {
		ID        string
		EntryID   string
		DueDate   Date
		Amount    decimal.Decimal
		Status    PaymentStatus
		PaidAt    *time.Time
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// NewEntry carries the caller-supplied fields of createEntryWithSchedule.
	NewEntry struct {
		CategoryID         string
		Type               EntryType
		Title              string
		Amount             decimal.Decimal
		Months             int
		StartDate          string
		ReminderDaysBefore *int
	}

	// EntryUpdate edits entry metadata. The materialized schedule is never touched.
	EntryUpdate struct {
		Title              string
		CategoryID         string
		ReminderDaysBefore *int
	}

	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Type      EntryType `json:"type"`
		Icon      string    `json:"icon,omitempty"`
		Color     string    `json:"color,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Setting struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
)

func (t EntryType) Valid() bool {
	switch t {
	case Expense, Income, Receivable:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case Pending, Paid, Received:
		return true
	}
	return false
}

// Settled reports whether the status means the payment has been paid or received.
func (s PaymentStatus) Settled() bool {
	return s == Paid || s == Received
}

// ScheduleTypeFor derives the schedule type from the declared number of months.
func ScheduleTypeFor(months int) ScheduleType {
	if months > 1 {
		return Installment
	}
	return Once
}

// ParseEntryType converts raw input into an EntryType.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidEntryType
	}
	return t, nil
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Schedule bounds. Stored dates are four-digit YYYY-MM-DD text, so no payment may fall
// after MaxYear.
const (
	MaxMonths = 1200
	MaxYear   = 9999
)

func (e NewEntry) Validate() error {
	if !e.Type.Valid() {
		return ErrInvalidEntryType
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Months < 0 {
		return ErrInvalidMonths
	}
	if e.Months > MaxMonths {
		return ErrTooManyMonths
	}
	start, err := ParseDate(e.StartDate)
	if err != nil {
		return err
	}
	if start.AddMonths(max(e.Months, 1)-1).Year() > MaxYear {
		return ErrScheduleRange
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if e.ReminderDaysBefore != nil && *e.ReminderDaysBefore < 0 {
		return ErrInvalidReminder
	}
	return nil
}

func (u EntryUpdate) Validate() error {
	if len(u.Title) > 200 {
		return ErrTitleTooLong
	}
	if u.ReminderDaysBefore != nil && *u.ReminderDaysBefore < 0 {
		return ErrInvalidReminder
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidEntryType
	}
	return nil
}
