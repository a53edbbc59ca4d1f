package core

import "sort"

// CategorySummary is the spending aggregated for one category in a month.
type CategorySummary struct {
	Name       string  `json:"name"`
	Icon       string  `json:"icon"`
	Color      string  `json:"color"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// BudgetSummary is the month overview returned by the budget endpoint.
// Spent + Remaining is expected to equal Income; it is not enforced here.
type BudgetSummary struct {
	Income        float64           `json:"income"`
	Spent         float64           `json:"spent"`
	Remaining     float64           `json:"remaining"`
	Percentage    float64           `json:"percentage"`
	TopCategories []CategorySummary `json:"top_categories"`
	AllCategories []CategorySummary `json:"all_categories"`
	LastUpdated   *string           `json:"last_updated,omitempty"`
}

func sortDescending(s []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(s)))
}
