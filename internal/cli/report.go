package cli

import (
	"budgetdash/internal/core"
	"budgetdash/internal/dashboard"
	"budgetdash/internal/render"
)

// Report is a month snapshot shaped for terminal, JSON and YAML output.
type Report struct {
	Month       string         `json:"month" yaml:"month"`
	Label       string         `json:"label" yaml:"label"`
	Income      float64        `json:"income" yaml:"income"`
	Spent       float64        `json:"spent" yaml:"spent"`
	Remaining   float64        `json:"remaining" yaml:"remaining"`
	Percentage  float64        `json:"percentage" yaml:"percentage"`
	Status      string         `json:"status" yaml:"status"`
	LastUpdated string         `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	Categories  []CategoryLine `json:"categories" yaml:"categories"`
	Days        []DayLine      `json:"days" yaml:"days"`
	Week        []WeekLine     `json:"week" yaml:"week"`
	Trends      []TrendLine    `json:"trends" yaml:"trends"`
	Warnings    []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type CategoryLine struct {
	Name       string  `json:"name" yaml:"name"`
	Icon       string  `json:"icon" yaml:"icon"`
	Total      float64 `json:"total" yaml:"total"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Count      int     `json:"count" yaml:"count"`
}

type DayLine struct {
	Date         string            `json:"date" yaml:"date"`
	Total        float64           `json:"total" yaml:"total"`
	Transactions []TransactionLine `json:"transactions" yaml:"transactions"`
}

type TransactionLine struct {
	ID          int64   `json:"id" yaml:"id"`
	Category    string  `json:"category" yaml:"category"`
	Icon        string  `json:"icon" yaml:"icon"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Amount      float64 `json:"amount" yaml:"amount"`
}

type WeekLine struct {
	Day     string  `json:"day" yaml:"day"`
	DayNum  int     `json:"day_num" yaml:"day_num"`
	Total   float64 `json:"total" yaml:"total"`
	IsToday bool    `json:"is_today,omitempty" yaml:"is_today,omitempty"`
}

type TrendLine struct {
	Label   string  `json:"label" yaml:"label"`
	Income  float64 `json:"income" yaml:"income"`
	Spent   float64 `json:"spent" yaml:"spent"`
	Savings float64 `json:"savings" yaml:"savings"`
}

// BuildReport converts a controller snapshot into a Report. Load toasts that
// reported errors become warnings.
func BuildReport(s dashboard.State, toasts []dashboard.Toast) Report {
	b := s.Budget
	r := Report{
		Month:      s.Month.String(),
		Label:      s.Month.Label(),
		Income:     b.Income,
		Spent:      b.Spent,
		Remaining:  b.Remaining,
		Percentage: b.Percentage,
		Status:     render.ProgressClass(b.Percentage),
		Categories: make([]CategoryLine, 0, len(b.AllCategories)),
		Days:       make([]DayLine, 0, len(s.Transactions)),
		Week:       make([]WeekLine, 0, len(s.Week)),
		Trends:     make([]TrendLine, 0, len(s.Trends)),
	}
	if b.LastUpdated != nil {
		r.LastUpdated = *b.LastUpdated
	}

	for _, c := range b.AllCategories {
		r.Categories = append(r.Categories, CategoryLine{
			Name: c.Name, Icon: c.Icon, Total: c.Total, Percentage: c.Percentage, Count: c.Count,
		})
	}

	for _, date := range s.Transactions.Dates() {
		txs := s.Transactions[date]
		day := DayLine{
			Date:         date,
			Total:        s.Transactions.DayTotal(date, s.DailyTotals),
			Transactions: make([]TransactionLine, 0, len(txs)),
		}
		for _, tx := range txs {
			day.Transactions = append(day.Transactions, TransactionLine{
				ID: tx.ID, Category: tx.Category, Icon: tx.Icon, Description: tx.Description, Amount: tx.Amount,
			})
		}
		r.Days = append(r.Days, day)
	}

	for _, d := range s.Week {
		r.Week = append(r.Week, WeekLine{Day: d.Day, DayNum: d.DayNum, Total: d.Total, IsToday: d.IsToday})
	}
	for _, t := range s.Trends {
		r.Trends = append(r.Trends, TrendLine{Label: t.Label, Income: t.Income, Spent: t.Spent, Savings: t.Savings})
	}

	for _, t := range toasts {
		if t.Kind == dashboard.ToastError {
			r.Warnings = append(r.Warnings, t.Message)
		}
	}
	return r
}

// TransactionCount returns the number of transactions across all days.
func (r Report) TransactionCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Transactions)
	}
	return n
}

// formatMoney is the dollar rendering shared with the web dashboard.
func formatMoney(v float64) string {
	return core.FormatDollars(v)
}
