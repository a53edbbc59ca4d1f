package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type (
	// Category is an entry of the static category list offered by the add form.
	Category struct {
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color,omitempty"`
	}

	Transaction struct {
		ID          int64   `json:"id"`
		Category    string  `json:"category"`
		Icon        string  `json:"icon"`
		Color       string  `json:"color,omitempty"`
		Description string  `json:"description,omitempty"`
		Amount      float64 `json:"amount"`
		Date        string  `json:"date"`
		Time        string  `json:"time,omitempty"`
	}

	// NewTransaction is the payload of an add-expense request.
	NewTransaction struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
	}

	// TransactionGroups maps an ISO date (YYYY-MM-DD) to the transactions of that day.
	TransactionGroups map[string][]Transaction

	// DailyTotals maps an ISO date to the amount spent that day.
	DailyTotals map[string]float64

	WeekDay struct {
		Date    string  `json:"date,omitempty"`
		Day     string  `json:"day"`
		DayNum  int     `json:"day_num"`
		Total   float64 `json:"total"`
		IsToday bool    `json:"is_today"`
	}

	TrendPoint struct {
		Month   string  `json:"month,omitempty"`
		Label   string  `json:"label"`
		Income  float64 `json:"income"`
		Spent   float64 `json:"spent"`
		Savings float64 `json:"savings"`
	}
)

var (
	ErrNegativeIncome  = errors.New("income cannot be negative")
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrMissingCategory = errors.New("category is required")
)

// ValidationError reports input rejected before any request is made.
// Message is the text shown to the user.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateIncome rejects negative monthly income.
func ValidateIncome(income float64) error {
	if income < 0 {
		return &ValidationError{Field: "income", Message: "Income cannot be negative", Err: ErrNegativeIncome}
	}
	return nil
}

// Validate checks amount first, then category, matching the order the form reports them.
func (t NewTransaction) Validate() error {
	if t.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "Amount must be greater than 0", Err: ErrInvalidAmount}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category", Message: "Please select a category", Err: ErrMissingCategory}
	}
	return nil
}

// UnmarshalJSON accepts both an object and an array. The API answers with an
// empty array for months that have no budget yet.
func (g *TransactionGroups) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if trimmed != "null" {
			if err := json.Unmarshal(data, &list); err != nil {
				return err
			}
		}
		if len(list) > 0 {
			return errors.New("transactions: expected object keyed by date")
		}
		*g = TransactionGroups{}
		return nil
	}
	m := map[string][]Transaction{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*g = m
	return nil
}

// Dates returns the group keys newest first.
func (g TransactionGroups) Dates() []string {
	dates := make([]string, 0, len(g))
	for d := range g {
		dates = append(dates, d)
	}
	sortDescending(dates)
	return dates
}

// DayTotal returns the amount spent on date. A day missing from totals falls
// back to the sum of its transactions.
func (g TransactionGroups) DayTotal(date string, totals DailyTotals) float64 {
	if total, ok := totals[date]; ok {
		return total
	}
	var sum float64
	for _, tx := range g[date] {
		sum += tx.Amount
	}
	return sum
}

// Today returns the current date as YYYY-MM-DD in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

const DateLayout = "2006-01-02"
