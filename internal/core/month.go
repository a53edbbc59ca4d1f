package core

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// MonthKey selects the active reporting period, formatted YYYY-MM.
type MonthKey string

// ParseMonthKey validates s as a YYYY-MM month.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return MonthKey(t.Format(monthLayout)), nil
}

// CurrentMonth returns the month containing now, in UTC.
func CurrentMonth(now time.Time) MonthKey {
	return MonthKey(now.UTC().Format(monthLayout))
}

func (m MonthKey) String() string { return string(m) }

// Label renders the month as "January 2024". Unparseable keys are returned as is.
func (m MonthKey) Label() string {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return string(m)
	}
	return t.Format("January 2006")
}
