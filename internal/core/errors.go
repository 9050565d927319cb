package core

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the services wraps exactly one of them,
// so callers classify with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
	ErrMigration   = errors.New("migration error")
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidMonths    = fmt.Errorf("%w: months must not be negative", ErrValidation)
	ErrTooManyMonths    = fmt.Errorf("%w: months must not exceed %d", ErrValidation, MaxMonths)
	ErrScheduleRange    = fmt.Errorf("%w: schedule ends after year %d", ErrValidation, MaxYear)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidMonth     = fmt.Errorf("%w: invalid month key", ErrValidation)
	ErrInvalidEntryType = fmt.Errorf("%w: invalid entry type", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: invalid payment status", ErrValidation)
	ErrInvalidReminder  = fmt.Errorf("%w: reminder days must not be negative", ErrValidation)
	ErrTitleTooLong     = fmt.Errorf("%w: title too long (max 200 characters)", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidFact      = fmt.Errorf("%w: unknown fact", ErrValidation)
	ErrInvalidDimension = fmt.Errorf("%w: unknown dimension", ErrValidation)
	ErrInvalidMeasure   = fmt.Errorf("%w: unknown measure", ErrValidation)
	ErrInvalidRange     = fmt.Errorf("%w: date_from is after date_to", ErrValidation)
	ErrInvalidRounding  = fmt.Errorf("%w: unknown rounding policy", ErrValidation)
	ErrInvalidYear      = fmt.Errorf("%w: invalid year", ErrValidation)
	ErrInvalidLimit     = fmt.Errorf("%w: limit and day window must not be negative", ErrValidation)
	ErrNotConfirmed     = fmt.Errorf("%w: reset requires explicit confirmation", ErrValidation)

	ErrEntryNotFound   = fmt.Errorf("entry %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)
	ErrReportNotFound  = fmt.Errorf("report %w", ErrNotFound)
	ErrSettingNotFound = fmt.Errorf("setting %w", ErrNotFound)
)

// Persistence wraps a storage failure so that it matches ErrPersistence while keeping
// the driver error reachable through errors.Is/As.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Migration wraps a failed migration step.
func Migration(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, ErrMigration, err)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
