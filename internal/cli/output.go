package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"budgetdash/internal/core"
	"budgetdash/internal/render"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Print writes r in the requested format.
func Print(w io.Writer, r Report, format string) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, r)
	case FormatYAML:
		return PrintYAML(w, r)
	case FormatTable, "":
		PrintTable(w, r)
		return nil
	default:
		return fmt.Errorf("unknown output format %q: must be one of %s, %s, %s",
			format, FormatTable, FormatJSON, FormatYAML)
	}
}

// PrintJSON outputs the report as indented JSON
func PrintJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAML outputs the report as YAML
func PrintYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// PrintTable outputs the report as a set of terminal tables
func PrintTable(w io.Writer, r Report) {
	fmt.Fprintf(w, "%s\n", text.Bold.Sprint(r.Label))
	if r.LastUpdated != "" {
		fmt.Fprintf(w, "Last updated: %s\n", r.LastUpdated)
	}
	fmt.Fprintln(w)

	printOverview(w, r)
	printCategories(w, r)
	printTransactions(w, r)
	printWeek(w, r)
	printTrends(w, r)

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", text.FgRed.Sprint("!"), warning)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func statusColor(status string) text.Colors {
	switch status {
	case render.FillDanger:
		return text.Colors{text.FgRed}
	case render.FillWarning:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgGreen}
	}
}

func printOverview(w io.Writer, r Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Income", "Spent", "Remaining", "Spent %"})
	pct := statusColor(r.Status).Sprint(core.FormatNumber(r.Percentage) + "%")
	t.AppendRow(table.Row{formatMoney(r.Income), formatMoney(r.Spent), formatMoney(r.Remaining), pct})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func printCategories(w io.Writer, r Report) {
	if len(r.Categories) == 0 {
		fmt.Fprintf(w, "No expenses yet\n\n")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Count", "Total", "Share"})
	for _, c := range r.Categories {
		t.AppendRow(table.Row{
			strings.TrimSpace(c.Icon + " " + c.Name),
			c.Count,
			formatMoney(c.Total),
			core.FormatNumber(c.Percentage) + "%",
		})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", text.Bold.Sprint(formatMoney(r.Spent)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func printTransactions(w io.Writer, r Report) {
	if len(r.Days) == 0 {
		fmt.Fprintf(w, "No transactions this month\n\n")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Category", "Description", "Amount"})
	for i, day := range r.Days {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, tx := range day.Transactions {
			t.AppendRow(table.Row{
				day.Date,
				strings.TrimSpace(tx.Icon + " " + tx.Category),
				tx.Description,
				formatMoney(tx.Amount),
			})
		}
		t.AppendRow(table.Row{"", "", text.FgHiBlack.Sprint("day total"), text.Bold.Sprint(formatMoney(day.Total))})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d transactions", r.TransactionCount()), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}

func printWeek(w io.Writer, r Report) {
	if len(r.Week) == 0 {
		return
	}

	t := newTable(w)
	header := make(table.Row, 0, len(r.Week))
	totals := make(table.Row, 0, len(r.Week))
	for _, d := range r.Week {
		label := fmt.Sprintf("%s %d", d.Day, d.DayNum)
		if d.IsToday {
			label = text.Bold.Sprint(label)
		}
		header = append(header, label)
		totals = append(totals, core.FormatWholeDollars(d.Total))
	}
	t.AppendHeader(header)
	t.AppendRow(totals)
	t.Render()
	fmt.Fprintln(w)
}

func printTrends(w io.Writer, r Report) {
	if len(r.Trends) == 0 {
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Month", "Income", "Spent", "Savings"})
	for _, p := range r.Trends {
		savings := formatMoney(p.Savings)
		if p.Savings < 0 {
			savings = text.FgRed.Sprint(savings)
		}
		t.AppendRow(table.Row{p.Label, formatMoney(p.Income), formatMoney(p.Spent), savings})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(w)
}
