// Package dashboard holds the per-session dashboard state and the operations
// that load it from the budget API and write changes back.
//
// A Controller is the single owner of one browser session's view data. Loaders
// replace state wholesale; actions validate input, issue one write and then run
// the refresh cycle (budget, transactions, week, trends).
package dashboard

import (
	"context"
	"sync"
	"time"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/config"
	"budgetdash/internal/core"
	"budgetdash/internal/log"
)

// API is the subset of the budget API client the controller depends on.
type API interface {
	Categories(ctx context.Context) ([]core.Category, error)
	Budget(ctx context.Context, month core.MonthKey) (core.BudgetSummary, error)
	SetIncome(ctx context.Context, month core.MonthKey, income float64) error
	Transactions(ctx context.Context, month core.MonthKey) (budgetapi.TransactionsPage, error)
	Week(ctx context.Context, month core.MonthKey) ([]core.WeekDay, error)
	Trends(ctx context.Context, n int) ([]core.TrendPoint, error)
	AddTransaction(ctx context.Context, tx core.NewTransaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// EventPublisher receives an event after every successful write.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev core.Event) error
}

// ToastKind selects the toast style.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient notification. Only the latest one is visible.
type Toast struct {
	Kind    ToastKind
	Message string
}

// Options tune a Controller. The zero value uses sequential refresh, a
// three-month trend window and the real clock.
type Options struct {
	// Month is the initially selected month; empty means the current one.
	Month               core.MonthKey
	RefreshMode         string
	TrendMonths         int
	NotifyAllLoadErrors bool
	Publisher           EventPublisher
	Logger              *log.Logger
	Clock               func() time.Time
}

// OptionsFromConfig maps application configuration onto controller options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RefreshMode:         cfg.RefreshMode,
		TrendMonths:         cfg.TrendMonths,
		NotifyAllLoadErrors: cfg.NotifyAllLoadErrors,
	}
}

// State is a snapshot of everything the views render. Maps and slices are
// shared with the controller and must not be modified.
type State struct {
	Month        core.MonthKey
	Categories   []core.Category
	Budget       core.BudgetSummary
	Transactions core.TransactionGroups
	DailyTotals  core.DailyTotals
	Week         []core.WeekDay
	Trends       []core.TrendPoint
	Loaded       bool
	Generation   uint64
}

// Controller owns the dashboard state of one session and is safe for
// concurrent use.
type Controller struct {
	api    API
	opts   Options
	logger *log.Logger

	mu         sync.RWMutex
	state      State
	generation uint64
}

// New creates a controller showing opts.Month, or the current UTC month, with
// empty state.
func New(api API, opts Options) *Controller {
	if opts.TrendMonths <= 0 {
		opts.TrendMonths = 3
	}
	if opts.RefreshMode == "" {
		opts.RefreshMode = config.RefreshSequential
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	month := opts.Month
	if month == "" {
		month = core.CurrentMonth(opts.Clock())
	}

	return &Controller{
		api:    api,
		opts:   opts,
		logger: opts.Logger.WithComponent(log.ComponentDashboard),
		state: State{
			Month:        month,
			Transactions: core.TransactionGroups{},
			DailyTotals:  core.DailyTotals{},
		},
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Generation = c.generation
	return s
}

// Month returns the selected month.
func (c *Controller) Month() core.MonthKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Month
}

// Today is the default date of the add form.
func (c *Controller) Today() string {
	return core.Today(c.opts.Clock())
}

// Loaded reports whether the initial load has run.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Loaded
}

// Load runs the initial load: categories first, then the refresh cycle.
func (c *Controller) Load(ctx context.Context) []Toast {
	var toasts []Toast
	if err := c.LoadCategories(ctx); err != nil {
		toasts = c.appendLoadToast(toasts, loaderCategories, err)
	}
	toasts = append(toasts, c.Refresh(ctx)...)

	c.mu.Lock()
	c.state.Loaded = true
	c.mu.Unlock()
	return toasts
}

// SetMonth selects a new month and refreshes.
func (c *Controller) SetMonth(ctx context.Context, month core.MonthKey) []Toast {
	c.mu.Lock()
	c.state.Month = month
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Month changed", log.FieldMonth, month.String())
	return c.Refresh(ctx)
}
