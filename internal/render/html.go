package render

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteHTML renders the figure as an interactive ECharts page. Each trace is
// a heatmap series and the single-select legend switches between electrodes.
func WriteHTML(fig *Figure, subtitle string, w io.Writer) error {
	if len(fig.Traces) == 0 {
		return &EmptyChannelSetError{}
	}

	// Category axes are the union over all traces; traces recorded for
	// different durations leave the cells they do not cover empty.
	xs := axisUnion(fig.Traces, func(tr Trace) []float64 { return tr.X })
	ys := axisUnion(fig.Traces, func(tr Trace) []float64 { return tr.Y })
	xIdx, yIdx := axisIndex(xs), axisIndex(ys)

	xLabels := make([]string, len(xs))
	for i, t := range xs {
		xLabels[i] = strconv.FormatFloat(t, 'f', 2, 64)
	}
	yLabels := make([]string, len(ys))
	for i, f := range ys {
		yLabels[i] = strconv.FormatFloat(f, 'f', 1, 64)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	selected := make(map[string]bool, len(fig.Traces))
	series := make([][]opts.HeatMapData, len(fig.Traces))
	for n, tr := range fig.Traces {
		selected[tr.Name] = tr.Visible
		for i, row := range tr.Z {
			if i >= len(tr.Y) {
				break
			}
			for j, v := range row {
				if j >= len(tr.X) || math.IsInf(v, 0) || math.IsNaN(v) {
					continue
				}
				lo, hi = math.Min(lo, v), math.Max(hi, v)
				series[n] = append(series[n], opts.HeatMapData{Value: [3]interface{}{xIdx[tr.X[j]], yIdx[tr.Y[i]], v}})
			}
		}
	}
	if lo > hi {
		lo, hi = 0, 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Layout.Title, Width: "1200px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: fig.Layout.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{
			Show:         opts.Bool(true),
			Type:         "scroll",
			Orient:       "vertical",
			Right:        "0",
			Top:          "60",
			SelectedMode: "single",
			Selected:     selected,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: fig.Layout.XAxisTitle, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: fig.Layout.YAxisTitle}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Text:       []string{fig.Layout.ColorbarTitle},
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)

	hm.SetXAxis(xLabels)
	for n, tr := range fig.Traces {
		hm.AddSeries(tr.Name, series[n])
	}

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	return nil
}

func axisUnion(traces []Trace, axis func(Trace) []float64) []float64 {
	var out []float64
	for _, tr := range traces {
		out = append(out, axis(tr)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func axisIndex(axis []float64) map[float64]int {
	idx := make(map[float64]int, len(axis))
	for i, v := range axis {
		idx[v] = i
	}
	return idx
}
