package core

import "github.com/shopspring/decimal"

// ScheduledPayment is one installment produced by schedule generation, before ids
// and timestamps are assigned.
type ScheduledPayment struct {
	DueDate Date
	Amount  decimal.Decimal
}

// BuildSchedule expands an entry into its payments. A one-off entry (months 0 or 1)
// yields a single payment of the full amount on the start date; an installment entry
// with N months yields N payments, one per calendar month starting on the start date,
// with the day of month clamped to the end of shorter months.
func BuildSchedule(start Date, amount decimal.Decimal, months int, policy RoundingPolicy) []ScheduledPayment {
	n := months
	if ScheduleTypeFor(months) == Once {
		n = 1
	}

	amounts := SplitInstallments(amount, n, policy)
	out := make([]ScheduledPayment, n)
	for i := 0; i < n; i++ {
		out[i] = ScheduledPayment{
			DueDate: start.AddMonths(i),
			Amount:  amounts[i],
		}
	}
	return out
}
