package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/core/model"
)

// WriteChart renders an HTML line chart of the aggregate power with one
// series per appliance marking the estimated start of each match.
func WriteChart(w io.Writer, agg model.Series, rep disagg.Report) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Disaggregation", Subtitle: rep.RunID}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "P (W)"}),
	)

	xAxis := make([]string, agg.Len())
	power := make([]opts.LineData, agg.Len())
	for i := range agg.T {
		xAxis[i] = strconv.FormatFloat(agg.T[i], 'f', -1, 64)
		power[i] = opts.LineData{Value: agg.P[i]}
	}
	line.SetXAxis(xAxis).AddSeries("aggregate", power)

	markers := make(map[string][]opts.LineData)
	var order []string
	for _, r := range rep.Results {
		if _, ok := markers[r.Appliance]; !ok {
			order = append(order, r.Appliance)
			markers[r.Appliance] = gaps(agg.Len())
		}
		if i := nearest(agg.T, r.AbsoluteAnchor); i >= 0 {
			markers[r.Appliance][i] = opts.LineData{Name: r.Appliance, Value: agg.P[i]}
		}
	}
	for _, name := range order {
		line.AddSeries(name, markers[name])
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// gaps returns n points that ECharts leaves undrawn.
func gaps(n int) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: nil}
	}
	return out
}

// nearest returns the index of the sample closest to at, or -1 for an empty
// series.
func nearest(ts []float64, at float64) int {
	best, bestD := -1, math.Inf(1)
	for i, t := range ts {
		if d := math.Abs(t - at); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
