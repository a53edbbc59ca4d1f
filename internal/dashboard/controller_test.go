package dashboard

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/budgetapi/budgetapitest"
	"budgetdash/internal/config"
	"budgetdash/internal/core"
)

var fixedNow = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, opts Options) (*Controller, *budgetapitest.Server) {
	t.Helper()
	api := budgetapitest.NewServer()
	t.Cleanup(api.Close)
	client, err := budgetapi.New(api.URL, budgetapi.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("budgetapi.New: %v", err)
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return New(client, opts), api
}

var refreshRequests = []string{
	"GET /api/budget/2024-01",
	"GET /api/transactions/2024-01",
	"GET /api/transactions/2024-01/week",
	"GET /api/trends/3",
}

func TestLoadOrder(t *testing.T) {
	c, api := newTestController(t, Options{})

	if toasts := c.Load(context.Background()); len(toasts) != 0 {
		t.Fatalf("unexpected toasts %v", toasts)
	}

	want := append([]string{"GET /api/categories"}, refreshRequests...)
	if got := api.Requests(); !reflect.DeepEqual(got, want) {
		t.Fatalf("requests = %v\nwant %v", got, want)
	}

	s := c.Snapshot()
	if !s.Loaded || s.Month != "2024-01" {
		t.Fatalf("unexpected state header %+v", s)
	}
	if len(s.Categories) != 2 || s.Budget.Percentage != 85 || len(s.Week) != 7 || len(s.Trends) != 3 {
		t.Fatalf("state not populated: %+v", s)
	}
	if len(s.Transactions["2024-01-15"]) != 1 || s.DailyTotals["2024-01-15"] != 12.5 {
		t.Fatalf("transactions not populated: %+v", s.Transactions)
	}
}

func TestSetMonthRefreshesSelectedMonth(t *testing.T) {
	c, api := newTestController(t, Options{TrendMonths: 6})

	c.SetMonth(context.Background(), "2023-11")

	want := []string{
		"GET /api/budget/2023-11",
		"GET /api/transactions/2023-11",
		"GET /api/transactions/2023-11/week",
		"GET /api/trends/6",
	}
	if got := api.Requests(); !reflect.DeepEqual(got, want) {
		t.Fatalf("requests = %v, want %v", got, want)
	}
	if c.Month() != "2023-11" {
		t.Fatalf("month = %s", c.Month())
	}
}

func TestInitialMonthOption(t *testing.T) {
	c, api := newTestController(t, Options{Month: "2023-06"})

	c.Load(context.Background())

	want := []string{
		"GET /api/categories",
		"GET /api/budget/2023-06",
		"GET /api/transactions/2023-06",
		"GET /api/transactions/2023-06/week",
		"GET /api/trends/3",
	}
	if got := api.Requests(); !reflect.DeepEqual(got, want) {
		t.Fatalf("requests = %v, want %v", got, want)
	}
}

func TestSuccessfulWritesRefreshOnceInOrder(t *testing.T) {
	actions := []struct {
		name  string
		write string
		run   func(*Controller) ActionResult
	}{
		{"income", "POST /api/budget/2024-01/income", func(c *Controller) ActionResult {
			return c.SetIncome(context.Background(), 2000)
		}},
		{"add", "POST /api/transaction", func(c *Controller) ActionResult {
			return c.AddTransaction(context.Background(), core.NewTransaction{Amount: 5, Category: "Food"})
		}},
		{"delete", "DELETE /api/transaction/1", func(c *Controller) ActionResult {
			return c.DeleteTransaction(context.Background(), 1, ConfirmFunc(func(string) bool { return true }))
		}},
	}

	for _, mode := range []string{config.RefreshSequential, config.RefreshConcurrent} {
		for _, a := range actions {
			t.Run(mode+"/"+a.name, func(t *testing.T) {
				c, api := newTestController(t, Options{RefreshMode: mode})
				res := a.run(c)
				if !res.OK || !res.Requested {
					t.Fatalf("action failed: %+v", res)
				}

				got := api.Requests()
				if len(got) != 5 || got[0] != a.write {
					t.Fatalf("requests = %v", got)
				}
				refresh := got[1:]
				if mode == config.RefreshConcurrent {
					sorted := append([]string(nil), refresh...)
					sort.Strings(sorted)
					want := append([]string(nil), refreshRequests...)
					sort.Strings(want)
					if !reflect.DeepEqual(sorted, want) {
						t.Fatalf("refresh requests = %v", refresh)
					}
					return
				}
				if !reflect.DeepEqual(refresh, refreshRequests) {
					t.Fatalf("refresh requests = %v, want %v", refresh, refreshRequests)
				}
			})
		}
	}
}

func TestLoadErrorNotifications(t *testing.T) {
	tests := []struct {
		name      string
		fail      string
		notifyAll bool
		want      []string
	}{
		{"budget toasts", "GET /api/budget", false, []string{"Error loading budget data"}},
		{"transactions silent", "GET /api/transactions/2024-01", false, nil},
		{"week silent", "GET /api/transactions/2024-01/week", false, nil},
		{"trends silent", "GET /api/trends", false, nil},
		{"trends with notify all", "GET /api/trends", true, []string{"Error loading trends"}},
		{"week with notify all", "GET /api/transactions/2024-01/week", true, []string{"Error loading week"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api := newTestController(t, Options{NotifyAllLoadErrors: tt.notifyAll})
			api.Fail(tt.fail, http.StatusInternalServerError, "")

			var got []string
			for _, toast := range c.Refresh(context.Background()) {
				if toast.Kind != ToastError {
					t.Fatalf("unexpected toast kind %q", toast.Kind)
				}
				got = append(got, toast.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("toasts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFailedLoadKeepsPreviousState(t *testing.T) {
	c, api := newTestController(t, Options{})
	c.Load(context.Background())

	api.Fail("GET /api/budget", http.StatusUnauthorized, "")
	api.Fail("GET /api/transactions", http.StatusUnauthorized, "")
	c.Refresh(context.Background())

	s := c.Snapshot()
	if s.Budget.Income != 1000 || len(s.Transactions) != 1 {
		t.Fatalf("previous state lost: %+v", s)
	}
}

func TestLoadCategoriesErrorIsReturned(t *testing.T) {
	c, api := newTestController(t, Options{})
	api.Fail("GET /api/categories", http.StatusBadGateway, "")

	var se *budgetapi.StatusError
	if err := c.LoadCategories(context.Background()); !errors.As(err, &se) {
		t.Fatalf("expected status error, got %v", err)
	}
	if toasts := c.Load(context.Background()); len(toasts) != 0 {
		t.Fatalf("categories failure should be silent, got %v", toasts)
	}
}

// blockingAPI serves fixed data but holds Budget calls until released.
type blockingAPI struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
}

func (b *blockingAPI) Categories(context.Context) ([]core.Category, error) { return nil, nil }

func (b *blockingAPI) Budget(ctx context.Context, _ core.MonthKey) (core.BudgetSummary, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	if n == 1 {
		close(b.started)
		<-b.release
		return core.BudgetSummary{Income: 1}, nil
	}
	return core.BudgetSummary{Income: 2}, nil
}

func (b *blockingAPI) SetIncome(context.Context, core.MonthKey, float64) error { return nil }

func (b *blockingAPI) Transactions(context.Context, core.MonthKey) (budgetapi.TransactionsPage, error) {
	return budgetapi.TransactionsPage{Transactions: core.TransactionGroups{}, DailyTotals: core.DailyTotals{}}, nil
}

func (b *blockingAPI) Week(context.Context, core.MonthKey) ([]core.WeekDay, error) { return nil, nil }

func (b *blockingAPI) Trends(context.Context, int) ([]core.TrendPoint, error) { return nil, nil }

func (b *blockingAPI) AddTransaction(context.Context, core.NewTransaction) (core.Transaction, error) {
	return core.Transaction{}, nil
}

func (b *blockingAPI) DeleteTransaction(context.Context, int64) error { return nil }

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	api := &blockingAPI{release: make(chan struct{}), started: make(chan struct{})}
	c := New(api, Options{Clock: func() time.Time { return fixedNow }})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refresh(context.Background())
	}()

	<-api.started
	c.Refresh(context.Background())
	if got := c.Snapshot().Budget.Income; got != 2 {
		t.Fatalf("newer refresh not applied, income = %v", got)
	}

	close(api.release)
	<-done
	if got := c.Snapshot().Budget.Income; got != 2 {
		t.Fatalf("stale refresh overwrote state, income = %v", got)
	}
}

// slowCategoriesAPI holds the categories call until released.
type slowCategoriesAPI struct {
	*blockingAPI
	catsStarted chan struct{}
	catsRelease chan struct{}
}

func (s *slowCategoriesAPI) Categories(context.Context) ([]core.Category, error) {
	close(s.catsStarted)
	<-s.catsRelease
	return []core.Category{{Name: "Food", Icon: "🍔"}}, nil
}

func TestCategoriesSurviveConcurrentMonthChange(t *testing.T) {
	api := &slowCategoriesAPI{
		blockingAPI: &blockingAPI{calls: 1},
		catsStarted: make(chan struct{}),
		catsRelease: make(chan struct{}),
	}
	c := New(api, Options{Clock: func() time.Time { return fixedNow }})

	errc := make(chan error, 1)
	go func() { errc <- c.LoadCategories(context.Background()) }()

	<-api.catsStarted
	c.SetMonth(context.Background(), "2024-02")
	close(api.catsRelease)

	if err := <-errc; err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	s := c.Snapshot()
	if len(s.Categories) != 1 || s.Categories[0].Name != "Food" {
		t.Fatalf("categories = %v, want the fetched list", s.Categories)
	}
	if s.Month != "2024-02" || s.Budget.Income != 2 {
		t.Fatalf("month change not applied: month=%s income=%v", s.Month, s.Budget.Income)
	}
}
