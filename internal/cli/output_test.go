package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"budgetdash/internal/dashboard"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, BuildReport(testState(), nil), FormatJSON); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	var got Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Month != "2024-01" || got.Spent != 850 || len(got.Days) != 2 {
		t.Errorf("decoded report = %+v", got)
	}
	if strings.Contains(buf.String(), `"warnings"`) {
		t.Error("warnings should be omitted when empty")
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, BuildReport(testState(), nil), FormatYAML); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if got["month"] != "2024-01" || got["status"] != "warning" {
		t.Errorf("decoded report = %v", got)
	}
	if !strings.Contains(buf.String(), "day_num: 15") {
		t.Errorf("week missing from YAML:\n%s", buf.String())
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, BuildReport(testState(), nil), FormatTable); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"January 2024",
		"Last updated: 2024-01-16 09:30",
		"$1000.00", "$850.00", "$150.00", "85%",
		"Transport", "$250.00", "29.4%",
		"2024-01-16", "bus", "$2.50", "$6.50",
		"3 transactions",
		"Tue 16", "$13",
		"Dec", "$-100.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q\n%s", want, out)
		}
	}
}

func TestPrintTable_EmptyMonth(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, BuildReport(dashboard.State{Month: "2024-02"}, nil))
	out := buf.String()

	if !strings.Contains(out, "No expenses yet") || !strings.Contains(out, "No transactions this month") {
		t.Errorf("empty states missing:\n%s", out)
	}
}

func TestPrint_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, Report{}, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %q", buf.String())
	}
}
