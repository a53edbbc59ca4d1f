package dashboard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/core"
)

type recordingPublisher struct {
	events []core.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, ev core.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestAddTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		tx   core.NewTransaction
		want string
	}{
		{"zero amount", core.NewTransaction{Amount: 0, Category: "Food"}, "Amount must be greater than 0"},
		{"negative amount", core.NewTransaction{Amount: -5, Category: "Food"}, "Amount must be greater than 0"},
		{"amount checked before category", core.NewTransaction{Amount: 0}, "Amount must be greater than 0"},
		{"missing category", core.NewTransaction{Amount: 5}, "Please select a category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api := newTestController(t, Options{})
			res := c.AddTransaction(context.Background(), tt.tx)

			if res.OK || res.Requested {
				t.Fatalf("expected rejection, got %+v", res)
			}
			toast, ok := res.LastToast()
			if !ok || toast.Kind != ToastError || toast.Message != tt.want {
				t.Fatalf("toast = %+v, want %q", toast, tt.want)
			}
			if n := len(api.Requests()); n != 0 {
				t.Fatalf("expected no requests, got %v", api.Requests())
			}
		})
	}
}

func TestAddTransactionSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	c, api := newTestController(t, Options{Publisher: pub})

	res := c.AddTransaction(context.Background(), core.NewTransaction{
		Amount: 12.5, Category: "Food", Description: "  lunch  ",
	})

	if !res.OK || res.CloseModal != ModalAdd || !res.ResetForm {
		t.Fatalf("unexpected result %+v", res)
	}
	if toast, _ := res.LastToast(); toast.Message != "Expense added! 💰" || toast.Kind != ToastSuccess {
		t.Fatalf("toast = %+v", toast)
	}
	if len(api.Added()) != 1 {
		t.Fatalf("added = %+v", api.Added())
	}
	sent := api.Added()[0]
	if sent.Description != "lunch" || sent.Date != "2024-01-20" {
		t.Fatalf("payload = %+v", sent)
	}

	if len(pub.events) != 1 {
		t.Fatalf("events = %+v", pub.events)
	}
	ev := pub.events[0]
	if ev.Type != core.EventTransactionAdded || ev.TransactionID == 0 || ev.Month != "2024-01" || !ev.OccurredAt.Equal(fixedNow) {
		t.Fatalf("event = %+v", ev)
	}
}

func TestAddTransactionEventMonth(t *testing.T) {
	tests := []struct {
		name string
		date string
		want core.MonthKey
	}{
		{"defaults to today", "", "2024-01"},
		{"backdated into previous month", "2023-12-31", "2023-12"},
		{"unparseable date keeps shown month", "31/12/2023", "2024-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			c, _ := newTestController(t, Options{Publisher: pub})

			res := c.AddTransaction(context.Background(), core.NewTransaction{
				Amount: 3, Category: "Food", Date: tt.date,
			})
			if !res.OK {
				t.Fatalf("unexpected result %+v", res)
			}
			if len(pub.events) != 1 || pub.events[0].Month != tt.want {
				t.Fatalf("events = %+v, want month %s", pub.events, tt.want)
			}
		})
	}
}

func TestAddTransactionFailureMessages(t *testing.T) {
	t.Run("server message", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Fail("POST /api/transaction", http.StatusBadRequest, "Invalid category")
		res := c.AddTransaction(context.Background(), core.NewTransaction{Amount: 1, Category: "X"})
		if toast, _ := res.LastToast(); res.OK || toast.Message != "Invalid category" {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("status without message", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Fail("POST /api/transaction", http.StatusInternalServerError, "")
		res := c.AddTransaction(context.Background(), core.NewTransaction{Amount: 1, Category: "X"})
		if toast, _ := res.LastToast(); toast.Message != "Failed to add transaction" {
			t.Fatalf("result = %+v", res)
		}
		if n := len(api.Requests()); n != 1 {
			t.Fatalf("failed write must not refresh, got %v", api.Requests())
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Close()
		res := c.AddTransaction(context.Background(), core.NewTransaction{Amount: 1, Category: "X"})
		if toast, _ := res.LastToast(); toast.Message != "Error adding expense" {
			t.Fatalf("result = %+v", res)
		}
		if !res.Requested {
			t.Fatalf("transport failure still counts as a request")
		}
	})
}

func TestSetIncome(t *testing.T) {
	t.Run("negative", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		res := c.SetIncome(context.Background(), -1)
		if toast, _ := res.LastToast(); toast.Message != "Income cannot be negative" || res.Requested {
			t.Fatalf("result = %+v", res)
		}
		if len(api.Requests()) != 0 {
			t.Fatalf("expected no requests, got %v", api.Requests())
		}
	})

	t.Run("success", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		c, api := newTestController(t, Options{Publisher: pub})
		res := c.SetIncome(context.Background(), 0)
		if !res.OK || res.CloseModal != ModalIncome {
			t.Fatalf("result = %+v", res)
		}
		if toast, _ := res.LastToast(); toast.Message != "Income updated successfully! 🎉" {
			t.Fatalf("toast = %+v", toast)
		}
		if api.Income() == nil || *api.Income() != 0 {
			t.Fatalf("income = %v", api.Income())
		}
		if len(pub.events) != 1 || pub.events[0].Type != core.EventIncomeUpdated {
			t.Fatalf("events = %+v", pub.events)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Fail("POST /api/budget", http.StatusInternalServerError, "")
		res := c.SetIncome(context.Background(), 100)
		if toast, _ := res.LastToast(); res.OK || toast.Message != "Error updating income" || res.CloseModal != ModalNone {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("refresh failure toast follows success", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Fail("GET /api/budget", http.StatusInternalServerError, "")
		res := c.SetIncome(context.Background(), 100)
		if !res.OK || len(res.Toasts) != 2 {
			t.Fatalf("result = %+v", res)
		}
		if toast, _ := res.LastToast(); toast.Message != "Error loading budget data" {
			t.Fatalf("last toast = %+v", toast)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		var asked string
		res := c.DeleteTransaction(context.Background(), 1, ConfirmFunc(func(p string) bool {
			asked = p
			return false
		}))
		if asked != "Delete this transaction?" {
			t.Fatalf("prompt = %q", asked)
		}
		if res.Requested || len(res.Toasts) != 0 || len(api.Requests()) != 0 {
			t.Fatalf("declined delete issued work: %+v %v", res, api.Requests())
		}
	})

	t.Run("nil confirmer", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		c.DeleteTransaction(context.Background(), 1, nil)
		if len(api.Requests()) != 0 {
			t.Fatalf("expected no requests, got %v", api.Requests())
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		res := c.DeleteTransaction(context.Background(), 7, ConfirmFunc(func(string) bool { return true }))
		if toast, _ := res.LastToast(); !res.OK || toast.Message != "Transaction deleted" {
			t.Fatalf("result = %+v", res)
		}
		if len(api.Deleted()) != 1 || api.Deleted()[0] != 7 {
			t.Fatalf("deleted = %v", api.Deleted())
		}
	})

	t.Run("failure", func(t *testing.T) {
		c, api := newTestController(t, Options{})
		api.Fail("DELETE /api/transaction", http.StatusNotFound, "Transaction not found")
		res := c.DeleteTransaction(context.Background(), 7, ConfirmFunc(func(string) bool { return true }))
		if toast, _ := res.LastToast(); res.OK || toast.Message != "Error deleting transaction" {
			t.Fatalf("result = %+v", res)
		}
	})
}

func TestAddFailureMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&budgetapi.StatusError{StatusCode: 400, Message: "Invalid amount"}, "Invalid amount"},
		{&budgetapi.StatusError{StatusCode: 500}, "Failed to add transaction"},
		{budgetapi.ErrTransport, "Error adding expense"},
		{context.DeadlineExceeded, "Error adding expense"},
	}
	for _, tt := range tests {
		if got := addFailureMessage(tt.err); got != tt.want {
			t.Errorf("addFailureMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	c := New(&blockingAPI{}, Options{Clock: func() time.Time { return fixedNow }})
	if c.opts.TrendMonths != 3 || c.opts.RefreshMode != "sequential" {
		t.Fatalf("defaults = %+v", c.opts)
	}
	if c.Today() != "2024-01-20" {
		t.Fatalf("Today = %s", c.Today())
	}
}
