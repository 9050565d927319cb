package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"scadenze/internal/core"
)

const settledStatuses = `('paid', 'received')`

// seriesFilter restricts to one type and either a calendar year or due dates up to today.
func seriesFilter(entryType core.EntryType, opts core.SeriesOptions, today core.Date) *paymentFilter {
	f := newPaymentFilter().add("e.type = ?", string(entryType))
	if opts.Year > 0 {
		f.add("substr(p.due_date, 1, 4) = ?", fmt.Sprintf("%04d", opts.Year))
	} else {
		f.add("p.due_date <= ?", today.String())
	}
	return f
}

// MonthlyBreakdown returns per-month total and settled sums for one type. The newest
// opts.Limit months are kept and returned in chronological order.
func (q *Queries) MonthlyBreakdown(ctx context.Context, entryType core.EntryType, opts core.SeriesOptions, today core.Date) ([]core.MonthBreakdown, error) {
	f := seriesFilter(entryType, opts, today)

	rows, err := q.db.QueryContext(ctx, `
SELECT substr(p.due_date, 1, 7) AS month,
       COALESCE(SUM(p.amount), 0),
       COALESCE(SUM(CASE WHEN p.status IN `+settledStatuses+` THEN p.amount ELSE 0 END), 0)
FROM payments p
JOIN entries e ON e.id = p.entry_id
`+f.where()+`
GROUP BY month
ORDER BY month DESC
LIMIT ?`, append(f.args, opts.Limit)...)
	if err != nil {
		return nil, core.Persistence("monthly series", err)
	}
	defer rows.Close()

	out := []core.MonthBreakdown{}
	for rows.Next() {
		var (
			month       string
			total, paid float64
		)
		if err := rows.Scan(&month, &total, &paid); err != nil {
			return nil, core.Persistence("scan monthly series", err)
		}
		out = append(out, core.MonthBreakdown{
			Month: month,
			Total: core.AmountFromFloat(total),
			Paid:  core.AmountFromFloat(paid),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("monthly series", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

const duePaymentSelect = `
SELECT p.id, e.id, COALESCE(e.title, ''), COALESCE(e.category_id, ''), e.type,
       p.due_date, p.amount, p.status, e.reminder_days_before
FROM payments p
JOIN entries e ON e.id = p.entry_id
`

func (q *Queries) listDuePayments(ctx context.Context, op string, f *paymentFilter, limit int) ([]core.DuePayment, error) {
	rows, err := q.db.QueryContext(ctx, duePaymentSelect+f.where()+`
ORDER BY p.due_date ASC, p.rowid ASC
LIMIT ?`, append(f.args, limit)...)
	if err != nil {
		return nil, core.Persistence(op, err)
	}
	defer rows.Close()

	out := []core.DuePayment{}
	for rows.Next() {
		var (
			d                 core.DuePayment
			entryType, status string
			amount            float64
			reminder          sql.NullInt64
		)
		if err := rows.Scan(&d.PaymentID, &d.EntryID, &d.Title, &d.CategoryID, &entryType,
			&d.DueDate, &amount, &status, &reminder); err != nil {
			return nil, core.Persistence("scan "+op, err)
		}
		d.Type = core.EntryType(entryType)
		d.Status = core.PaymentStatus(status)
		d.Amount = core.AmountFromFloat(amount)
		d.ReminderDaysBefore = intPtr(reminder)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence(op, err)
	}
	return out, nil
}

// PendingPaymentsBetween returns pending payments due in [from, to], earliest first. A
// negative limit returns every match.
func (q *Queries) PendingPaymentsBetween(ctx context.Context, from, to core.Date, limit int) ([]core.DuePayment, error) {
	f := newPaymentFilter().
		add("p.status = 'pending'").
		add("p.due_date BETWEEN ? AND ?", from.String(), to.String())
	return q.listDuePayments(ctx, "upcoming payments", f, limit)
}

// OverduePayments returns pending payments of one type due strictly before today,
// earliest first.
func (q *Queries) OverduePayments(ctx context.Context, entryType core.EntryType, today core.Date, limit int) ([]core.DuePayment, error) {
	f := newPaymentFilter().
		add("p.status = 'pending'").
		add("e.type = ?", string(entryType)).
		add("p.due_date < ?", today.String())
	return q.listDuePayments(ctx, "overdue payments", f, limit)
}

// AvailableYears lists the distinct due-date years of active payments, newest first.
func (q *Queries) AvailableYears(ctx context.Context) ([]int, error) {
	f := newPaymentFilter()
	rows, err := q.db.QueryContext(ctx, `
SELECT DISTINCT substr(p.due_date, 1, 4) AS year
FROM payments p
JOIN entries e ON e.id = p.entry_id
`+f.where()+`
ORDER BY year DESC`, f.args...)
	if err != nil {
		return nil, core.Persistence("available years", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, core.Persistence("scan available years", err)
		}
		y, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("available years", err)
	}
	return years, nil
}

// SettledByType sums settled income and expense payments due in the given year.
func (q *Queries) SettledByType(ctx context.Context, year int) (income, expense float64, err error) {
	f := newPaymentFilter().
		add("p.status IN "+settledStatuses).
		add("substr(p.due_date, 1, 4) = ?", fmt.Sprintf("%04d", year))

	err = q.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(CASE WHEN e.type = 'income' THEN p.amount ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN e.type = 'expense' THEN p.amount ELSE 0 END), 0)
FROM payments p
JOIN entries e ON e.id = p.entry_id
`+f.where(), f.args...).Scan(&income, &expense)
	if err != nil {
		return 0, 0, core.Persistence("yearly cash flow", err)
	}
	return income, expense, nil
}
