package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"scadenze/internal/amqp"
	"scadenze/internal/cache"
	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

const (
	DefaultReminderLookahead = 30
	DefaultReminderDays      = 3
	defaultCurrency          = "EUR"
	reminderDedupeSize       = 10000
)

// ReminderPublisher delivers reminder events. *amqp.Client satisfies it.
type ReminderPublisher interface {
	PublishPaymentReminder(ctx context.Context, msg amqp.PaymentReminderMessage) error
}

// ReminderResult counts what one processing pass did.
type ReminderResult struct {
	Checked   int
	Published int
	Skipped   int
	Failed    int
}

// ReminderProcessor announces pending payments whose reminder window has opened.
type ReminderProcessor struct {
	base
	repo      *storage.SQLiteRepository
	settings  *SettingsService
	publisher ReminderPublisher
	sent      *cache.LRUCache[time.Time]
	lookahead int
}

// NewReminderProcessor creates a processor. A nil publisher runs it in dry-run mode:
// due reminders are logged and nothing is sent. sent remembers which reminders already
// went out; its TTL is the dedupe window.
func NewReminderProcessor(repo *storage.SQLiteRepository, settings *SettingsService, publisher ReminderPublisher,
	sent *cache.LRUCache[time.Time], lookaheadDays int, opts ...Option) *ReminderProcessor {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultReminderLookahead
	}
	if sent == nil {
		sent = cache.NewLRUCache[time.Time](reminderDedupeSize, 24*time.Hour)
	}
	return &ReminderProcessor{
		base:      newBase(log.ComponentReminder, opts),
		repo:      repo,
		settings:  settings,
		publisher: publisher,
		sent:      sent,
		lookahead: lookaheadDays,
	}
}

func reminderKey(p core.DuePayment) string {
	return p.PaymentID + ":" + p.DueDate
}

// ProcessDueReminders publishes one reminder per pending payment whose due date minus its
// reminder lead time has been reached. Publishing failures are counted, never returned.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult

	enabled, err := p.settings.settingBool(ctx, SettingNotificationsEnabled, true)
	if err != nil {
		return res, p.fail(ctx, "Failed to read notification setting", err, log.OpRead, nil)
	}
	if !enabled {
		p.logger.DebugContext(ctx, "Notifications disabled, skipping reminders")
		return res, nil
	}
	defaultDays, err := p.settings.settingInt(ctx, SettingReminderDaysBefore, DefaultReminderDays)
	if err != nil {
		return res, p.fail(ctx, "Failed to read reminder setting", err, log.OpRead, nil)
	}
	currency, err := p.settings.settingString(ctx, SettingCurrency, defaultCurrency)
	if err != nil {
		return res, p.fail(ctx, "Failed to read currency setting", err, log.OpRead, nil)
	}

	today := p.today()
	due, err := p.repo.PendingPaymentsBetween(ctx, today, today.AddDays(p.lookahead), -1)
	if err != nil {
		return res, p.fail(ctx, "Failed to list pending payments", err, log.OpList, nil)
	}

	for _, dp := range due {
		res.Checked++

		dueDate, err := core.ParseDate(dp.DueDate)
		if err != nil {
			res.Skipped++
			continue
		}
		days := defaultDays
		if dp.ReminderDaysBefore != nil {
			days = *dp.ReminderDaysBefore
		}
		if dueDate.AddDays(-days).After(today.Time) {
			res.Skipped++
			continue
		}

		key := reminderKey(dp)
		if !p.sent.SetIfAbsent(key, p.now()) {
			res.Skipped++
			continue
		}

		msg := amqp.PaymentReminderMessage{
			PaymentID: dp.PaymentID,
			EntryID:   dp.EntryID,
			Title:     dp.Title,
			Type:      string(dp.Type),
			DueDate:   dp.DueDate,
			Amount:    dp.Amount,
			Currency:  currency,
			DaysLeft:  int(dueDate.Sub(today.Time).Hours() / 24),
			Timestamp: p.now().UTC(),
		}
		fields := log.NewFields().WithPayment(dp.PaymentID, string(dp.Status)).WithEntryID(dp.EntryID)

		if p.publisher == nil {
			p.logger.InfoContext(ctx, "Reminder due (dry run)",
				append(fields.ToSlice(), "due_date", dp.DueDate, "days_left", msg.DaysLeft)...)
			res.Published++
			continue
		}

		if err := p.publisher.PublishPaymentReminder(ctx, msg); err != nil {
			// Forget the key so the next pass retries.
			p.sent.Delete(key)
			res.Failed++
			log.NewStructuredLogger(p.logger).LogError(ctx, "Failed to publish reminder", err,
				log.ComponentReminder, log.OpPublish, fields)
			continue
		}
		res.Published++
	}

	p.logger.InfoContext(ctx, "Reminder pass complete",
		"checked", res.Checked,
		"published", res.Published,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"date", today.String())
	return res, nil
}

// Run processes reminders every interval until ctx is done. The first pass runs at once.
func (p *ReminderProcessor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.ProcessDueReminders(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorContext(ctx, "Reminder pass failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunSchedule processes reminders on a cron schedule, a five-field spec or a descriptor
// such as "@daily", evaluated in the processor's location. A pass still running when
// the next one fires is skipped.
func (p *ReminderProcessor) RunSchedule(ctx context.Context, spec string) error {
	c := cron.New(
		cron.WithLocation(p.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := p.ProcessDueReminders(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorContext(ctx, "Reminder pass failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("parse reminder schedule %q: %w", spec, err)
	}

	c.Start()
	p.logger.InfoContext(ctx, "Reminder schedule started", "schedule", spec)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Forget drops every dedupe record, e.g. after the data they refer to was reset.
func (p *ReminderProcessor) Forget() {
	p.sent.Clear()
}
