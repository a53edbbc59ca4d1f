package dashboard

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/config"
	"budgetdash/internal/core"
	"budgetdash/internal/log"
)

type loader string

const (
	loaderCategories   loader = "categories"
	loaderBudget       loader = "budget"
	loaderTransactions loader = "transactions"
	loaderWeek         loader = "week"
	loaderTrends       loader = "trends"
)

// Only the budget loader notifies by default; the others log and keep the
// previous state on screen.
var loadErrorMessages = map[loader]string{
	loaderCategories:   "Error loading categories",
	loaderBudget:       "Error loading budget data",
	loaderTransactions: "Error loading transactions",
	loaderWeek:         "Error loading week",
	loaderTrends:       "Error loading trends",
}

// update mutates state with a fetched result.
type update func(*State)

type step struct {
	name  loader
	fetch func(context.Context) (update, error)
}

// LoadCategories fetches the category list.
func (c *Controller) LoadCategories(ctx context.Context) error {
	return c.loadOne(ctx, loaderCategories, c.fetchCategories)
}

// LoadBudget fetches the month overview.
func (c *Controller) LoadBudget(ctx context.Context) error {
	month := c.Month()
	return c.loadOne(ctx, loaderBudget, func(ctx context.Context) (update, error) {
		return c.fetchBudget(ctx, month)
	})
}

// LoadTransactions fetches the month's transactions and daily totals.
func (c *Controller) LoadTransactions(ctx context.Context) error {
	month := c.Month()
	return c.loadOne(ctx, loaderTransactions, func(ctx context.Context) (update, error) {
		return c.fetchTransactions(ctx, month)
	})
}

// LoadWeek fetches the current week strip.
func (c *Controller) LoadWeek(ctx context.Context) error {
	month := c.Month()
	return c.loadOne(ctx, loaderWeek, func(ctx context.Context) (update, error) {
		return c.fetchWeek(ctx, month)
	})
}

// LoadTrends fetches the trend window.
func (c *Controller) LoadTrends(ctx context.Context) error {
	return c.loadOne(ctx, loaderTrends, c.fetchTrends)
}

// Refresh re-fetches budget, transactions, week and trends, in that order,
// each exactly once. Results of a refresh that a newer one superseded are
// dropped.
func (c *Controller) Refresh(ctx context.Context) []Toast {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	month := c.state.Month
	c.mu.Unlock()

	steps := []step{
		{loaderBudget, func(ctx context.Context) (update, error) { return c.fetchBudget(ctx, month) }},
		{loaderTransactions, func(ctx context.Context) (update, error) { return c.fetchTransactions(ctx, month) }},
		{loaderWeek, func(ctx context.Context) (update, error) { return c.fetchWeek(ctx, month) }},
		{loaderTrends, c.fetchTrends},
	}

	logger := c.logger.With(log.FieldOperation, log.OpRefresh, log.FieldMonth, month.String(), log.FieldGeneration, gen)
	logger.DebugContext(ctx, "Refresh started", "mode", c.opts.RefreshMode)

	if c.opts.RefreshMode == config.RefreshConcurrent {
		return c.refreshConcurrent(ctx, gen, steps)
	}
	return c.refreshSequential(ctx, gen, steps)
}

func (c *Controller) refreshSequential(ctx context.Context, gen uint64, steps []step) []Toast {
	var toasts []Toast
	for _, s := range steps {
		u, err := s.fetch(ctx)
		if err != nil {
			c.logLoadError(ctx, s.name, err)
			toasts = c.appendLoadToast(toasts, s.name, err)
			continue
		}
		c.apply(ctx, s.name, gen, u)
	}
	return toasts
}

// refreshConcurrent fetches every step at once and applies the results in
// step order after all of them returned.
func (c *Controller) refreshConcurrent(ctx context.Context, gen uint64, steps []step) []Toast {
	updates := make([]update, len(steps))
	errs := make([]error, len(steps))

	var g errgroup.Group
	for i, s := range steps {
		g.Go(func() error {
			updates[i], errs[i] = s.fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var toasts []Toast
	for i, s := range steps {
		if errs[i] != nil {
			c.logLoadError(ctx, s.name, errs[i])
			toasts = c.appendLoadToast(toasts, s.name, errs[i])
			continue
		}
		c.apply(ctx, s.name, gen, updates[i])
	}
	return toasts
}

func (c *Controller) loadOne(ctx context.Context, name loader, fetch func(context.Context) (update, error)) error {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	u, err := fetch(ctx)
	if err != nil {
		c.logLoadError(ctx, name, err)
		return err
	}
	c.apply(ctx, name, gen, u)
	return nil
}

// apply stores u unless a newer refresh started after gen was taken.
// Categories do not depend on the month and are never part of a refresh, so
// they are always stored.
func (c *Controller) apply(ctx context.Context, name loader, gen uint64, u update) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name != loaderCategories && gen != c.generation {
		c.logger.DebugContext(ctx, "Discarding superseded result",
			log.FieldEndpoint, string(name),
			log.FieldGeneration, gen,
			"current_generation", c.generation)
		return false
	}
	u(&c.state)
	return true
}

func (c *Controller) appendLoadToast(toasts []Toast, name loader, err error) []Toast {
	if name != loaderBudget && !c.opts.NotifyAllLoadErrors {
		return toasts
	}
	return append(toasts, Toast{Kind: ToastError, Message: loadErrorMessages[name]})
}

func (c *Controller) logLoadError(ctx context.Context, name loader, err error) {
	c.logger.ErrorContext(ctx, "Load failed",
		failureFields(log.OpLoad, err).WithEndpoint(string(name)).ToSlice()...)
}

// failureFields describes a failed budget API call.
func failureFields(op string, err error) log.LogFields {
	return log.NewFields().
		WithOperation(op).
		WithErrorType(errorType(err)).
		WithError(err)
}

func errorType(err error) string {
	var se *budgetapi.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return log.ErrorTypeTimeout
	case errors.Is(err, budgetapi.ErrTransport):
		return log.ErrorTypeNetwork
	case errors.As(err, &se):
		return log.ErrorTypeStatus
	case errors.Is(err, budgetapi.ErrDecode):
		return log.ErrorTypeDecode
	default:
		return log.ErrorTypeInternal
	}
}

func (c *Controller) fetchCategories(ctx context.Context) (update, error) {
	cats, err := c.api.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Categories = cats }, nil
}

func (c *Controller) fetchBudget(ctx context.Context, month core.MonthKey) (update, error) {
	b, err := c.api.Budget(ctx, month)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Budget = b }, nil
}

func (c *Controller) fetchTransactions(ctx context.Context, month core.MonthKey) (update, error) {
	page, err := c.api.Transactions(ctx, month)
	if err != nil {
		return nil, err
	}
	return func(s *State) {
		s.Transactions = page.Transactions
		s.DailyTotals = page.DailyTotals
	}, nil
}

func (c *Controller) fetchWeek(ctx context.Context, month core.MonthKey) (update, error) {
	week, err := c.api.Week(ctx, month)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Week = week }, nil
}

func (c *Controller) fetchTrends(ctx context.Context) (update, error) {
	trends, err := c.api.Trends(ctx, c.opts.TrendMonths)
	if err != nil {
		return nil, err
	}
	return func(s *State) { s.Trends = trends }, nil
}
