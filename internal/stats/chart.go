package stats

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/garpil124/menfes/internal/storage"
)

// ErrNoData is returned when the series is empty and there is nothing to plot.
var ErrNoData = errors.New("no delivery data")

// RenderChart draws the per-day series as a PNG line chart with one tick per
// day, labels rotated 45 degrees.
func RenderChart(series []storage.DayCount) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	ticks := make([]chart.Tick, len(series))
	maxY := float64(0)
	for i, dc := range series {
		xs[i] = float64(i)
		ys[i] = float64(dc.Count)
		ticks[i] = chart.Tick{Value: float64(i), Label: dc.Day}
		if ys[i] > maxY {
			maxY = ys[i]
		}
	}

	graph := chart.Chart{
		Title:  "Statistik Menfes",
		Width:  900,
		Height: 450,
		XAxis: chart.XAxis{
			Name:  "Tanggal",
			Ticks: ticks,
			TickStyle: chart.Style{
				TextRotationDegrees: 45,
			},
			// Pad half a step each side so a single-day series still renders.
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(series)) - 0.5},
		},
		YAxis: chart.YAxis{
			Name:  "Total",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY + 1},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
