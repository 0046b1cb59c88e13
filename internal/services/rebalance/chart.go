package rebalance

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sanjaydutta/fintra/internal/models"
)

// RenderAllocationChart renders a PNG bar chart comparing current and target
// weight per holding type. Returns raw PNG bytes.
func RenderAllocationChart(plan *models.RebalancePlan) ([]byte, error) {
	if len(plan.Types) == 0 {
		return nil, fmt.Errorf("no holdings to chart")
	}

	currentColor := drawing.ColorFromHex("2563eb") // blue-600
	targetColor := drawing.ColorFromHex("9ca3af")  // gray-400

	bars := make([]chart.Value, 0, len(plan.Types)*2)
	for _, t := range plan.Types {
		bars = append(bars,
			chart.Value{
				Value: t.CurrentWeight,
				Label: t.Type + " now",
				Style: chart.Style{FillColor: currentColor, StrokeColor: currentColor},
			},
			chart.Value{
				Value: t.TargetWeight,
				Label: t.Type + " target",
				Style: chart.Style{FillColor: targetColor, StrokeColor: targetColor},
			},
		)
	}

	graph := chart.BarChart{
		Title:    "Allocation vs Target",
		Width:    900,
		Height:   400,
		BarWidth: 50,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render allocation chart: %w", err)
	}
	return buf.Bytes(), nil
}
