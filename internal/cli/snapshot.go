package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"budgetdash/internal/amqp"
	"budgetdash/internal/cache"
	"budgetdash/internal/core"
	"budgetdash/internal/dashboard"
	"budgetdash/internal/log"
)

// ErrIncomplete is returned when part of the month could not be loaded. The
// report is still printed with whatever was available.
var ErrIncomplete = errors.New("some dashboard data could not be loaded")

const (
	seenEventsMax = 256
	seenEventsTTL = 10 * time.Minute
)

// EventSource delivers dashboard events, e.g. *amqp.Client.
type EventSource interface {
	ConsumeEvents(ctx context.Context, handler func(*amqp.DashboardEvent) error) error
}

// Runner prints month snapshots through a dashboard controller.
type Runner struct {
	ctrl   *dashboard.Controller
	format string
	out    io.Writer
	logger *log.Logger
	seen   *cache.LRUCache[struct{}]
}

// NewRunner creates a runner for month; an empty month means the current one.
// Every loader failure is reported, not only the budget one.
func NewRunner(api dashboard.API, month core.MonthKey, format string, out io.Writer, opts dashboard.Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	opts.Month = month
	opts.NotifyAllLoadErrors = true

	return &Runner{
		ctrl:   dashboard.New(api, opts),
		format: format,
		out:    out,
		logger: opts.Logger.WithComponent(log.ComponentCLI),
		seen:   cache.NewLRUCache[struct{}](seenEventsMax, seenEventsTTL),
	}
}

// Month returns the month being shown.
func (r *Runner) Month() core.MonthKey {
	return r.ctrl.Month()
}

// Snapshot loads the month and prints it.
func (r *Runner) Snapshot(ctx context.Context) error {
	return r.print(r.ctrl.Load(ctx))
}

// Watch prints a fresh snapshot each time src delivers an event, until ctx is
// done. Redelivered events are printed once.
func (r *Runner) Watch(ctx context.Context, src EventSource) error {
	err := src.ConsumeEvents(ctx, func(ev *amqp.DashboardEvent) error {
		if ev.ID != "" {
			if _, dup := r.seen.Get(ev.ID); dup {
				r.logger.DebugContext(ctx, "Duplicate event skipped", "event_id", ev.ID)
				return nil
			}
			r.seen.Set(ev.ID, struct{}{})
		}

		fmt.Fprintf(r.out, "\n[%s] %s %s\n", ev.Timestamp.Local().Format("15:04:05"), ev.Type, ev.Month)
		toasts := r.ctrl.Refresh(ctx)
		if err := r.print(toasts); err != nil && !errors.Is(err, ErrIncomplete) {
			r.logger.ErrorContext(ctx, "Failed to print snapshot", log.FieldError, err)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) print(toasts []dashboard.Toast) error {
	report := BuildReport(r.ctrl.Snapshot(), toasts)
	if err := Print(r.out, report, r.format); err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		return ErrIncomplete
	}
	return nil
}
