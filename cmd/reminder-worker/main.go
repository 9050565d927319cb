package main

import (
	"context"
	"errors"
	"flag"
	"os"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"scadenze/internal/amqp"
	"scadenze/internal/cli"
	"scadenze/internal/config"
	"scadenze/internal/log"
)

func main() {
	consume := flag.Bool("consume", false, "also consume published payment reminders and log them")
	flag.Parse()

	cli.LoadEnvFile()

	boot := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentReminder)

	if err := run(logger, cfg, *consume); err != nil {
		logger.ErrorContext(context.Background(), "Reminder worker error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Reminder worker stopped")
}

func run(logger *log.Logger, cfg *config.Config, consume bool) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	b := cli.InitBackend(ctx, logger, cfg)
	defer b.Close()

	if b.Publisher == nil {
		logger.WarnContext(ctx, "AMQP not configured, reminders are only logged")
	}

	logger.InfoContext(ctx, "Starting reminder worker",
		"interval", cfg.ReminderInterval.String(),
		"schedule", cfg.ReminderSchedule,
		"lookahead_days", cfg.ReminderLookaheadDays,
		"consume", consume)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cfg.ReminderSchedule != "" {
			return b.Reminders.RunSchedule(gctx, cfg.ReminderSchedule)
		}
		return b.Reminders.Run(gctx, cfg.ReminderInterval)
	})

	if consume && b.Publisher != nil {
		g.Go(func() error {
			err := b.Publisher.ConsumePaymentReminders(gctx, func(ctx context.Context, msg *amqp.PaymentReminderMessage) error {
				logger.InfoContext(ctx, "Payment reminder",
					"payment_id", msg.PaymentID,
					"entry_id", msg.EntryID,
					"title", msg.Title,
					"type", msg.Type,
					"due_date", msg.DueDate,
					"amount", msg.Amount.StringFixed(2),
					"days_left", msg.DaysLeft)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
