package services

import (
	"context"
	"errors"
	"time"

	"scadenze/internal/core"
	"scadenze/internal/log"
)

// Option customizes a service at construction.
type Option func(*base)

// WithClock replaces time.Now. Dates such as "today" are derived from it.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLocation sets the time zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(b *base) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// base carries the clock and logger every service shares.
type base struct {
	component string
	now       func() time.Time
	loc       *time.Location
	logger    *log.Logger
}

func newBase(component string, opts []Option) base {
	b := base{
		component: component,
		now:       time.Now,
		loc:       time.Local,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.WithComponent(component)
	return b
}

func (b *base) today() core.Date {
	return core.DateOf(b.now().In(b.loc))
}

// fail logs err unless it is a caller mistake (validation, not found) and returns it
// unchanged.
func (b *base) fail(ctx context.Context, msg string, err error, op string, fields log.LogFields) error {
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) {
		return err
	}
	log.NewStructuredLogger(b.logger).LogError(ctx, msg, err, b.component, op, fields)
	return err
}
