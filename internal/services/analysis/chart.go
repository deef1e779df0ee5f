package analysis

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/hindsight/internal/models"
)

// RenderTimelineChart renders a PNG line chart of the valuation timeline.
// Two series: Portfolio Value (blue solid) and Benchmark Value (gray
// dashed). Returns raw PNG bytes.
func RenderTimelineChart(analysis *models.PortfolioAnalysis) ([]byte, error) {
	timeline := analysis.PortfolioTimeline
	if len(timeline) < 2 {
		return nil, fmt.Errorf("need at least 2 snapshots, got %d", len(timeline))
	}

	xValues := make([]float64, len(timeline))
	portfolioY := make([]float64, len(timeline))
	benchmarkY := make([]float64, len(timeline))

	for i, snapshot := range timeline {
		xValues[i] = chart.TimeToFloat64(models.ParseDateKey(snapshot.Date))
		portfolioY[i] = snapshot.PortfolioValue
		benchmarkY[i] = snapshot.BenchmarkStockValue
	}

	portfolioSeries := chart.ContinuousSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: portfolioY,
	}

	benchmarkSeries := chart.ContinuousSeries{
		Name: fmt.Sprintf("Benchmark (%s)", analysis.BenchmarkSymbol),
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: benchmarkY,
	}

	graph := chart.Chart{
		Title:  "Portfolio vs Benchmark",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			portfolioSeries,
			benchmarkSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
