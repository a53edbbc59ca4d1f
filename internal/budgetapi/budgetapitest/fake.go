// Package budgetapitest provides an in-memory budget API for tests.
package budgetapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"budgetdash/internal/core"
)

// Server is a fake budget API that records every request it serves.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	fail     map[string]int
	errMsg   map[string]string
	nextID   int64

	Categories   []core.Category
	Budget       core.BudgetSummary
	Transactions core.TransactionGroups
	DailyTotals  core.DailyTotals
	Week         []core.WeekDay
	Trends       []core.TrendPoint

	income  *float64
	added   []core.NewTransaction
	deleted []int64
}

// NewServer starts a fake API populated with a small month of data.
func NewServer() *Server {
	s := &Server{
		fail:   map[string]int{},
		errMsg: map[string]string{},
		nextID: 100,
		Categories: []core.Category{
			{Name: "Food", Icon: "🍔", Color: "#FF6B6B"},
			{Name: "Transport", Icon: "🚗", Color: "#4ECDC4"},
		},
		Budget: core.BudgetSummary{
			Income: 1000, Spent: 850, Remaining: 150, Percentage: 85,
			TopCategories: []core.CategorySummary{
				{Name: "Food", Icon: "🍔", Color: "#FF6B6B", Total: 850, Percentage: 100, Count: 1},
			},
			AllCategories: []core.CategorySummary{
				{Name: "Food", Icon: "🍔", Color: "#FF6B6B", Total: 850, Percentage: 100, Count: 1},
			},
		},
		Transactions: core.TransactionGroups{
			"2024-01-15": {{ID: 1, Category: "Food", Icon: "🍔", Amount: 12.5, Date: "2024-01-15"}},
		},
		DailyTotals: core.DailyTotals{"2024-01-15": 12.5},
		Week: []core.WeekDay{
			{Day: "Mon", DayNum: 15, Total: 12.5, IsToday: true},
			{Day: "Tue", DayNum: 16}, {Day: "Wed", DayNum: 17}, {Day: "Thu", DayNum: 18},
			{Day: "Fri", DayNum: 19}, {Day: "Sat", DayNum: 20}, {Day: "Sun", DayNum: 21},
		},
		Trends: []core.TrendPoint{
			{Label: "Nov", Income: 1000, Spent: 700, Savings: 300},
			{Label: "Dec", Income: 1000, Spent: 900, Savings: 100},
			{Label: "Jan", Income: 1000, Spent: 850, Savings: 150},
		},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Fail makes requests whose "METHOD /path-prefix" key starts with prefix answer
// with status. An empty message omits the error body.
func (s *Server) Fail(prefix string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[prefix] = status
	s.errMsg[prefix] = message
}

// Requests returns the served requests as "METHOD /path".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Income returns the last income posted, or nil.
func (s *Server) Income() *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.income
}

// Added returns the transactions posted so far.
func (s *Server) Added() []core.NewTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.NewTransaction(nil), s.added...)
}

// Deleted returns the ids deleted so far.
func (s *Server) Deleted() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.deleted...)
}

// SetTransactions replaces the month's transactions while the server runs.
func (s *Server) SetTransactions(groups core.TransactionGroups, totals core.DailyTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions = groups
	s.DailyTotals = totals
}

// Reset clears the request log.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	s.requests = append(s.requests, key)

	for prefix, status := range s.fail {
		if strings.HasPrefix(key, prefix) {
			w.WriteHeader(status)
			if msg := s.errMsg[prefix]; msg != "" {
				_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			}
			return
		}
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodGet && path == "categories":
		writeJSON(w, s.Categories)
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "budget":
		writeJSON(w, s.Budget)
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "budget" && parts[2] == "income":
		var body struct {
			Income float64 `json:"income"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
			return
		}
		s.income = &body.Income
		writeJSON(w, map[string]any{"success": true, "income": body.Income})
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "transactions":
		writeJSON(w, map[string]any{"transactions": s.Transactions, "daily_totals": s.DailyTotals})
	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "transactions" && parts[2] == "week":
		writeJSON(w, map[string]any{"week": s.Week})
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "trends":
		writeJSON(w, map[string]any{"trends": s.Trends})
	case r.Method == http.MethodPost && path == "transaction":
		var tx core.NewTransaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
			return
		}
		s.added = append(s.added, tx)
		s.nextID++
		writeJSON(w, map[string]any{"success": true, "transaction": core.Transaction{
			ID: s.nextID, Category: tx.Category, Amount: tx.Amount,
			Description: tx.Description, Date: tx.Date,
		}})
	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "transaction":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.deleted = append(s.deleted, id)
		writeJSON(w, map[string]any{"success": true})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
