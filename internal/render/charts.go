package render

import (
	"reflect"
	"sync"

	"budgetdash/internal/core"
)

// Chart colours shared by the bar and line charts.
const (
	ColorIncome    = "#38ef7d"
	ColorSpent     = "#f45c43"
	ColorRemaining = "#667eea"
)

// Dataset mirrors a Chart.js dataset. BackgroundColor is a single colour or
// one colour per point.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	BorderRadius    int       `json:"borderRadius,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

// ChartConfig is the data part of a Chart.js chart. Options that need
// callbacks live in the browser; only data travels.
type ChartConfig struct {
	Type     string    `json:"type"`
	Visible  bool      `json:"visible"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	// Percentages feed the doughnut tooltip, one per label.
	Percentages []float64 `json:"percentages,omitempty"`
}

// Charts is one revision of the three dashboard charts.
type Charts struct {
	Revision uint64      `json:"revision"`
	Category ChartConfig `json:"category"`
	Budget   ChartConfig `json:"budget"`
	Trend    ChartConfig `json:"trend"`
}

// ChartSet keeps the charts of one session. Update rewrites the data of the
// existing datasets and bumps the revision only when something changed, so
// the browser can update its chart objects in place.
type ChartSet struct {
	mu     sync.Mutex
	charts Charts
}

func NewChartSet() *ChartSet {
	return &ChartSet{charts: Charts{
		Category: ChartConfig{
			Type: "doughnut",
			Datasets: []Dataset{{
				Data:            []float64{},
				BackgroundColor: []string{},
				BorderWidth:     2,
				BorderColor:     "#fff",
			}},
			Labels: []string{},
		},
		Budget: ChartConfig{
			Type:    "bar",
			Visible: true,
			Labels:  []string{"Budget Overview"},
			Datasets: []Dataset{
				{Label: "Income", Data: []float64{0}, BackgroundColor: ColorIncome, BorderRadius: 8},
				{Label: "Spent", Data: []float64{0}, BackgroundColor: ColorSpent, BorderRadius: 8},
				{Label: "Remaining", Data: []float64{0}, BackgroundColor: ColorRemaining, BorderRadius: 8},
			},
		},
		Trend: ChartConfig{
			Type:   "line",
			Labels: []string{},
			Datasets: []Dataset{
				trendDataset("Income", ColorIncome, "rgba(56, 239, 125, 0.1)"),
				trendDataset("Spent", ColorSpent, "rgba(244, 92, 67, 0.1)"),
				trendDataset("Savings", ColorRemaining, "rgba(102, 126, 234, 0.1)"),
			},
		},
	}}
}

func trendDataset(label, color, fill string) Dataset {
	return Dataset{
		Label:           label,
		Data:            []float64{},
		BorderColor:     color,
		BackgroundColor: fill,
		BorderWidth:     3,
		Fill:            true,
		Tension:         0.4,
	}
}

// Current returns the latest revision without changing it.
func (cs *ChartSet) Current() Charts {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.charts.clone()
}

// Update applies a budget summary and the trend window. An empty category
// list clears the doughnut; an empty trend list hides the line chart.
func (cs *ChartSet) Update(b core.BudgetSummary, trends []core.TrendPoint) Charts {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	before := cs.charts.clone()

	cat := &cs.charts.Category
	cat.Visible = len(b.AllCategories) > 0
	cat.Labels = cat.Labels[:0]
	cat.Percentages = cat.Percentages[:0]
	data := cat.Datasets[0].Data[:0]
	colors := make([]string, 0, len(b.AllCategories))
	for _, c := range b.AllCategories {
		cat.Labels = append(cat.Labels, c.Name)
		cat.Percentages = append(cat.Percentages, c.Percentage)
		data = append(data, c.Total)
		colors = append(colors, c.Color)
	}
	cat.Datasets[0].Data = data
	cat.Datasets[0].BackgroundColor = colors

	bar := &cs.charts.Budget
	bar.Datasets[0].Data[0] = b.Income
	bar.Datasets[1].Data[0] = b.Spent
	bar.Datasets[2].Data[0] = b.Remaining

	line := &cs.charts.Trend
	line.Visible = len(trends) > 0
	line.Labels = line.Labels[:0]
	for i := range line.Datasets {
		line.Datasets[i].Data = line.Datasets[i].Data[:0]
	}
	for _, t := range trends {
		line.Labels = append(line.Labels, t.Label)
		line.Datasets[0].Data = append(line.Datasets[0].Data, t.Income)
		line.Datasets[1].Data = append(line.Datasets[1].Data, t.Spent)
		line.Datasets[2].Data = append(line.Datasets[2].Data, t.Savings)
	}

	after := cs.charts.clone()
	after.Revision = before.Revision
	if !reflect.DeepEqual(before, after) {
		cs.charts.Revision++
	}
	return cs.charts.clone()
}

// clone deep-copies the slices so callers never share the set's buffers.
func (c Charts) clone() Charts {
	out := c
	out.Category = c.Category.clone()
	out.Budget = c.Budget.clone()
	out.Trend = c.Trend.clone()
	return out
}

func (c ChartConfig) clone() ChartConfig {
	out := c
	out.Labels = append([]string{}, c.Labels...)
	if c.Percentages != nil {
		out.Percentages = append([]float64{}, c.Percentages...)
	}
	out.Datasets = make([]Dataset, len(c.Datasets))
	for i, d := range c.Datasets {
		d.Data = append([]float64{}, d.Data...)
		if colors, ok := d.BackgroundColor.([]string); ok {
			d.BackgroundColor = append([]string{}, colors...)
		}
		out.Datasets[i] = d
	}
	return out
}
