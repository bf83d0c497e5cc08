package feedback

import (
	"github.com/ashureev/peakchat/internal/domain"
)

// Bar chart labels.
const (
	LabelStrengths    = "강점"
	LabelImprovements = "개선점"
)

// ChartEntry is one data point in a feedback chart.
type ChartEntry struct {
	Name     string   `json:"name"`
	Value    float64  `json:"value"`
	MaxScore *float64 `json:"maxScore,omitempty"`
}

// Charts is the chart data the feedback view renders.
type Charts struct {
	Bar []ChartEntry `json:"barChartData"`
	Pie []ChartEntry `json:"pieChartData"`
}

// BuildCharts derives strengths/improvements counts and per-category scores.
func BuildCharts(r domain.FeedbackResult) Charts {
	charts := Charts{
		Bar: []ChartEntry{
			{Name: LabelStrengths, Value: float64(len(r.Summary.Strengths))},
			{Name: LabelImprovements, Value: float64(len(r.Summary.Improvements))},
		},
		Pie: make([]ChartEntry, 0, len(r.Rubric)),
	}
	for _, item := range r.Rubric {
		maxScore := item.MaxScore
		charts.Pie = append(charts.Pie, ChartEntry{
			Name:     item.Category,
			Value:    item.Score,
			MaxScore: &maxScore,
		})
	}
	return charts
}
