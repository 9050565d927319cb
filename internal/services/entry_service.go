package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

// EntryService creates entries with their payment schedule and manages their lifecycle.
type EntryService struct {
	base
	repo   *storage.SQLiteRepository
	policy core.RoundingPolicy
	newID  func() string
}

func NewEntryService(repo *storage.SQLiteRepository, policy core.RoundingPolicy, opts ...Option) *EntryService {
	if policy == "" {
		policy = core.RoundEach
	}
	return &EntryService{
		base:   newBase(log.ComponentEntries, opts),
		repo:   repo,
		policy: policy,
		newID:  uuid.NewString,
	}
}

// Policy returns the installment rounding policy in effect.
func (s *EntryService) Policy() core.RoundingPolicy {
	return s.policy
}

// CreateEntryWithSchedule validates in, expands it into payments and stores the entry
// with every payment in one transaction. It returns the new entry id.
func (s *EntryService) CreateEntryWithSchedule(ctx context.Context, in core.NewEntry) (string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	if err := in.Validate(); err != nil {
		return "", err
	}
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	entry := core.Entry{
		ID:                 s.newID(),
		CategoryID:         in.CategoryID,
		Type:               in.Type,
		Title:              in.Title,
		Amount:             in.Amount,
		Months:             in.Months,
		StartDate:          start,
		ScheduleType:       core.ScheduleTypeFor(in.Months),
		ReminderDaysBefore: in.ReminderDaysBefore,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	fields := log.NewFields().WithEntry(entry.ID, string(entry.Type), entry.Amount.StringFixed(2), entry.Months, start.String())

	schedule := core.BuildSchedule(start, in.Amount, in.Months, s.policy)
	payments := make([]core.Payment, len(schedule))
	for i, sp := range schedule {
		payments[i] = core.Payment{
			ID:        s.newID(),
			EntryID:   entry.ID,
			DueDate:   sp.DueDate,
			Amount:    sp.Amount,
			Status:    core.Pending,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	parts := make([]decimal.Decimal, len(schedule))
	for i, sp := range schedule {
		parts[i] = sp.Amount
	}
	if residual := core.Residual(in.Amount, parts); !residual.IsZero() {
		s.logger.WarnContext(ctx, "Installment amounts do not sum to entry amount",
			append(fields.ToSlice(), "residual", residual.StringFixed(2), "policy", string(s.policy))...)
	}

	err = s.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.InsertEntry(ctx, entry); err != nil {
			return err
		}
		for _, p := range payments {
			if err := q.InsertPayment(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", s.fail(ctx, "Failed to create entry with schedule", err, log.OpCreate, fields)
	}

	s.logger.InfoContext(ctx, "Entry created", append(fields.ToSlice(), "payments", len(payments))...)
	return entry.ID, nil
}

// GetEntries lists active entries, newest first. An empty entryType lists every type.
func (s *EntryService) GetEntries(ctx context.Context, entryType core.EntryType) ([]core.Entry, error) {
	if entryType != "" && !entryType.Valid() {
		return nil, core.ErrInvalidEntryType
	}
	entries, err := s.repo.ListEntries(ctx, entryType)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list entries", err, log.OpList, nil)
	}
	return entries, nil
}

func (s *EntryService) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, s.fail(ctx, "Failed to get entry", err, log.OpRead, log.NewFields().WithEntryID(id))
	}
	return e, nil
}

// UpdateEntry edits title, category and reminder of an active entry. The payment
// schedule is left as materialized at creation.
func (s *EntryService) UpdateEntry(ctx context.Context, id string, u core.EntryUpdate) (core.Entry, error) {
	u.Title = strings.TrimSpace(u.Title)
	u.CategoryID = strings.TrimSpace(u.CategoryID)
	if err := u.Validate(); err != nil {
		return core.Entry{}, err
	}

	var updated core.Entry
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		n, err := q.UpdateEntry(ctx, id, u, s.now().UTC())
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrEntryNotFound
		}
		updated, err = q.GetEntry(ctx, id)
		return err
	})
	if err != nil {
		return core.Entry{}, s.fail(ctx, "Failed to update entry", err, log.OpUpdate, nil)
	}
	return updated, nil
}

// DeleteEntry soft-deletes an entry together with its payments. Deleting an entry that
// is already inactive succeeds without changes; an id that never existed is NotFound.
func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	now := s.now().UTC()
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		exists, err := q.EntryExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return core.ErrEntryNotFound
		}
		if err := q.SoftDeleteEntry(ctx, id, now); err != nil {
			return err
		}
		return q.SoftDeletePaymentsByEntry(ctx, id, now)
	})
	if err != nil {
		return s.fail(ctx, "Failed to delete entry", err, log.OpDelete, log.NewFields().WithEntryID(id))
	}

	s.logger.InfoContext(ctx, "Entry deleted", log.FieldEntryID, id)
	return nil
}

// GetPaymentsByEntry lists the active payments of an entry by ascending due date.
func (s *EntryService) GetPaymentsByEntry(ctx context.Context, entryID string) ([]core.Payment, error) {
	payments, err := s.repo.ListPaymentsByEntry(ctx, entryID)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list payments", err, log.OpList, nil)
	}
	return payments, nil
}

func (s *EntryService) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return core.Payment{}, s.fail(ctx, "Failed to get payment", err, log.OpRead, nil)
	}
	return p, nil
}

// UpdatePaymentStatus moves a payment between pending and settled. paid_at is stamped
// when the new status is paid or received and cleared when it is pending.
func (s *EntryService) UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus) (core.Payment, error) {
	if !status.Valid() {
		return core.Payment{}, core.ErrInvalidStatus
	}

	now := s.now().UTC()
	var paidAt *time.Time
	if status.Settled() {
		paidAt = &now
	}
	fields := log.NewFields().WithPayment(id, string(status))

	var updated core.Payment
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		n, err := q.UpdatePaymentStatus(ctx, id, status, paidAt, now)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrPaymentNotFound
		}
		updated, err = q.GetPayment(ctx, id)
		return err
	})
	if err != nil {
		return core.Payment{}, s.fail(ctx, "Failed to update payment status", err, log.OpUpdate, fields)
	}

	s.logger.InfoContext(ctx, "Payment status updated", fields.ToSlice()...)
	return updated, nil
}
