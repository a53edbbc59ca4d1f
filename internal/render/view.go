// Package render turns dashboard state into the view models the HTML
// templates execute and the data of the three charts.
package render

import (
	"strconv"
	"time"

	"budgetdash/internal/core"
	"budgetdash/internal/dashboard"
)

// Progress bar fill classes.
const (
	FillPrimary = "primary"
	FillWarning = "warning"
	FillDanger  = "danger"
)

// viewAllThreshold is the category count above which the overview links to the full list.
const viewAllThreshold = 3

type (
	Overview struct {
		MonthLabel    string
		Income        string
		Spent         string
		Remaining     string
		IncomeValue   string
		ProgressWidth string
		ProgressLabel string
		ProgressClass string
		TopCategories []CategoryRow
		ShowViewAll   bool
		LastUpdated   string
	}

	CategoryRow struct {
		Name       string
		Icon       string
		Color      string
		Total      string
		Percent    string
		CountLabel string
	}

	WeekCell struct {
		Day    string
		DayNum int
		Total  string
		Today  bool
	}

	DaySection struct {
		Date   string
		Header string
		Total  string
		Rows   []TransactionRow
	}

	TransactionRow struct {
		ID          int64
		Icon        string
		Category    string
		Description string
		Amount      string
	}

	CategoryOption struct {
		Value string
		Label string
	}

	// Page is everything the dashboard template needs.
	Page struct {
		Month         string
		Today         string
		Overview      Overview
		Week          []WeekCell
		Days          []DaySection
		Options       []CategoryOption
		AllCategories []CategoryRow
		Charts        Charts
	}
)

// ProgressClass picks the fill for a spent percentage: above 90 is danger,
// above 75 is warning.
func ProgressClass(percentage float64) string {
	switch {
	case percentage > 90:
		return FillDanger
	case percentage > 75:
		return FillWarning
	default:
		return FillPrimary
	}
}

// BuildOverview renders the month overview card.
func BuildOverview(month core.MonthKey, b core.BudgetSummary) Overview {
	pct := core.FormatNumber(b.Percentage)
	ov := Overview{
		MonthLabel:    month.Label(),
		Income:        core.FormatDollars(b.Income),
		Spent:         core.FormatDollars(b.Spent),
		Remaining:     core.FormatDollars(b.Remaining),
		IncomeValue:   core.FormatNumber(b.Income),
		ProgressWidth: pct + "%",
		ProgressLabel: pct + "% spent",
		ProgressClass: ProgressClass(b.Percentage),
		TopCategories: categoryRows(b.TopCategories),
		LastUpdated:   "No transactions yet",
	}
	ov.ShowViewAll = len(b.TopCategories) > 0 && len(b.AllCategories) > viewAllThreshold
	if b.LastUpdated != nil && *b.LastUpdated != "" {
		ov.LastUpdated = "Last updated: " + *b.LastUpdated
	}
	return ov
}

// BuildCategoryModal renders every category of the month with its count.
func BuildCategoryModal(all []core.CategorySummary) []CategoryRow {
	return categoryRows(all)
}

func categoryRows(cats []core.CategorySummary) []CategoryRow {
	rows := make([]CategoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, CategoryRow{
			Name:       c.Name,
			Icon:       c.Icon,
			Color:      c.Color,
			Total:      core.FormatDollars(c.Total),
			Percent:    core.FormatNumber(c.Percentage) + "%",
			CountLabel: strconv.Itoa(c.Count) + " transactions",
		})
	}
	return rows
}

// BuildWeek renders the week strip; totals have no decimals.
func BuildWeek(days []core.WeekDay) []WeekCell {
	cells := make([]WeekCell, 0, len(days))
	for _, d := range days {
		cells = append(cells, WeekCell{
			Day:    d.Day,
			DayNum: d.DayNum,
			Total:  core.FormatWholeDollars(d.Total),
			Today:  d.IsToday,
		})
	}
	return cells
}

// BuildTransactions groups the month's transactions into day sections, newest
// day first. Rows keep the order the API returned. A day missing from totals
// falls back to the sum of its rows.
func BuildTransactions(groups core.TransactionGroups, totals core.DailyTotals) []DaySection {
	if len(groups) == 0 {
		return nil
	}

	sections := make([]DaySection, 0, len(groups))
	for _, date := range groups.Dates() {
		txs := groups[date]
		total := groups.DayTotal(date, totals)

		section := DaySection{
			Date:   date,
			Header: dayHeader(date),
			Total:  core.FormatDollars(total),
			Rows:   make([]TransactionRow, 0, len(txs)),
		}
		for _, tx := range txs {
			section.Rows = append(section.Rows, TransactionRow{
				ID:          tx.ID,
				Icon:        tx.Icon,
				Category:    tx.Category,
				Description: tx.Description,
				Amount:      core.FormatDollars(tx.Amount),
			})
		}
		sections = append(sections, section)
	}
	return sections
}

// dayHeader formats 2024-01-15 as "Monday, Jan 15".
func dayHeader(date string) string {
	t, err := time.Parse(core.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, Jan 2")
}

// BuildCategoryOptions renders the add form's category select.
func BuildCategoryOptions(cats []core.Category) []CategoryOption {
	opts := make([]CategoryOption, 0, len(cats))
	for _, c := range cats {
		opts = append(opts, CategoryOption{Value: c.Name, Label: c.Icon + " " + c.Name})
	}
	return opts
}

// BuildPage renders the whole dashboard from a state snapshot.
func BuildPage(s dashboard.State, today string, charts Charts) Page {
	return Page{
		Month:         s.Month.String(),
		Today:         today,
		Overview:      BuildOverview(s.Month, s.Budget),
		Week:          BuildWeek(s.Week),
		Days:          BuildTransactions(s.Transactions, s.DailyTotals),
		Options:       BuildCategoryOptions(s.Categories),
		AllCategories: BuildCategoryModal(s.Budget.AllCategories),
		Charts:        charts,
	}
}
