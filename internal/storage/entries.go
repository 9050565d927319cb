package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scadenze/internal/core"
)

const entryColumns = `id, COALESCE(category_id, ''), type, COALESCE(title, ''), amount, months,
start_date, schedule_type, reminder_days_before, is_active, created_at, updated_at`

const paymentColumns = `id, entry_id, due_date, amount, status, paid_at, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e                    core.Entry
		amount               float64
		startDate            string
		reminder             sql.NullInt64
		created, updated     string
		entryType, schedType string
	)
	err := row.Scan(&e.ID, &e.CategoryID, &entryType, &e.Title, &amount, &e.Months,
		&startDate, &schedType, &reminder, &e.IsActive, &created, &updated)
	if err != nil {
		return core.Entry{}, err
	}
	e.Type = core.EntryType(entryType)
	e.ScheduleType = core.ScheduleType(schedType)
	e.Amount = core.AmountFromFloat(amount)
	e.ReminderDaysBefore = intPtr(reminder)
	e.CreatedAt = parseTimestamp(created)
	e.UpdatedAt = parseTimestamp(updated)
	if e.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.Entry{}, fmt.Errorf("entry %s start_date %q: %w", e.ID, startDate, err)
	}
	return e, nil
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var (
		p                core.Payment
		amount           float64
		dueDate, status  string
		paidAt           sql.NullString
		created, updated string
	)
	err := row.Scan(&p.ID, &p.EntryID, &dueDate, &amount, &status, &paidAt, &p.IsActive, &created, &updated)
	if err != nil {
		return core.Payment{}, err
	}
	p.Amount = core.AmountFromFloat(amount)
	p.Status = core.PaymentStatus(status)
	p.CreatedAt = parseTimestamp(created)
	p.UpdatedAt = parseTimestamp(updated)
	if paidAt.Valid {
		t := parseTimestamp(paidAt.String)
		p.PaidAt = &t
	}
	if p.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.Payment{}, fmt.Errorf("payment %s due_date %q: %w", p.ID, dueDate, err)
	}
	return p, nil
}

func (q *Queries) InsertEntry(ctx context.Context, e core.Entry) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO entries (id, category_id, type, title, amount, months, start_date, schedule_type,
                     reminder_days_before, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullString(e.CategoryID), string(e.Type), nullString(e.Title), e.Amount.InexactFloat64(),
		e.Months, e.StartDate.String(), string(e.ScheduleType), nullInt(e.ReminderDaysBefore),
		boolInt(e.IsActive), formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt))
	if err != nil {
		return core.Persistence("insert entry", err)
	}
	return nil
}

func (q *Queries) InsertPayment(ctx context.Context, p core.Payment) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO payments (id, entry_id, due_date, amount, status, paid_at, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EntryID, p.DueDate.String(), p.Amount.InexactFloat64(), string(p.Status),
		nullTimestamp(p.PaidAt), boolInt(p.IsActive), formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt))
	if err != nil {
		return core.Persistence("insert payment", err)
	}
	return nil
}

// ListEntries returns active entries, newest first. An empty entryType returns all types.
func (q *Queries) ListEntries(ctx context.Context, entryType core.EntryType) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM entries
WHERE is_active = 1 AND (? = '' OR type = ?)
ORDER BY created_at DESC, rowid DESC`, string(entryType), string(entryType))
	if err != nil {
		return nil, core.Persistence("list entries", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, core.Persistence("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("list entries", err)
	}
	return entries, nil
}

// GetEntry returns an active entry.
func (q *Queries) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ? AND is_active = 1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrEntryNotFound
	}
	if err != nil {
		return core.Entry{}, core.Persistence("get entry", err)
	}
	return e, nil
}

// EntryExists reports whether an entry row exists, active or not.
func (q *Queries) EntryExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&n); err != nil {
		return false, core.Persistence("check entry", err)
	}
	return n > 0, nil
}

// UpdateEntry edits entry metadata and returns the number of rows touched.
func (q *Queries) UpdateEntry(ctx context.Context, id string, u core.EntryUpdate, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE entries
SET title = ?, category_id = ?, reminder_days_before = ?, updated_at = ?
WHERE id = ? AND is_active = 1`,
		nullString(u.Title), nullString(u.CategoryID), nullInt(u.ReminderDaysBefore), formatTimestamp(now), id)
	if err != nil {
		return 0, core.Persistence("update entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.Persistence("update entry", err)
	}
	return n, nil
}

// SoftDeleteEntry deactivates an entry. Already inactive entries are left untouched.
func (q *Queries) SoftDeleteEntry(ctx context.Context, id string, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE entries SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		formatTimestamp(now), id)
	if err != nil {
		return core.Persistence("soft delete entry", err)
	}
	return nil
}

// SoftDeletePaymentsByEntry deactivates every payment of an entry.
func (q *Queries) SoftDeletePaymentsByEntry(ctx context.Context, entryID string, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE payments SET is_active = 0, updated_at = ? WHERE entry_id = ? AND is_active = 1`,
		formatTimestamp(now), entryID)
	if err != nil {
		return core.Persistence("soft delete payments", err)
	}
	return nil
}

// ListPaymentsByEntry returns the active payments of an entry by ascending due date.
func (q *Queries) ListPaymentsByEntry(ctx context.Context, entryID string) ([]core.Payment, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE entry_id = ? AND is_active = 1
ORDER BY due_date ASC, rowid ASC`, entryID)
	if err != nil {
		return nil, core.Persistence("list payments", err)
	}
	defer rows.Close()

	payments := []core.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, core.Persistence("scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Persistence("list payments", err)
	}
	return payments, nil
}

// GetPayment returns an active payment.
func (q *Queries) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ? AND is_active = 1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, core.ErrPaymentNotFound
	}
	if err != nil {
		return core.Payment{}, core.Persistence("get payment", err)
	}
	return p, nil
}

// UpdatePaymentStatus sets the status of an active payment and returns the number of rows
// touched. paidAt must be nil for pending.
func (q *Queries) UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus, paidAt *time.Time, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE payments
SET status = ?, paid_at = ?, updated_at = ?
WHERE id = ? AND is_active = 1`,
		string(status), nullTimestamp(paidAt), formatTimestamp(now), id)
	if err != nil {
		return 0, core.Persistence("update payment status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.Persistence("update payment status", err)
	}
	return n, nil
}

// CountPayments counts payment rows of an entry regardless of is_active.
func (q *Queries) CountPayments(ctx context.Context, entryID string) (total, active int, err error) {
	err = q.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM payments WHERE entry_id = ?`, entryID).Scan(&total, &active)
	if err != nil {
		return 0, 0, core.Persistence("count payments", err)
	}
	return total, active, nil
}
