package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

const (
	chartWidth  = "1000px"
	chartHeight = "420px"
)

// HTMLRenderer writes a standalone page with one bar chart per metric
// domain: components on the x axis, one series per metric.
type HTMLRenderer struct {
	opts Options
}

type domainChart struct {
	title string
	keys  []string
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(w io.Writer, snap *measure.Snapshot) error {
	view := Visible(snap, r.opts)

	page := components.NewPage()
	page.PageTitle = "Sonargraph measures: " + view.Project

	names := make([]string, len(view.Components))
	for i, cm := range view.Components {
		names[i] = cm.Name
	}

	for _, dc := range r.domains(view) {
		page.AddCharts(r.barChart(view, names, dc))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}

// domains groups the numeric metrics present in view by metric domain, in
// order of first appearance in the catalog.
func (r *HTMLRenderer) domains(view *measure.Snapshot) []domainChart {
	var out []domainChart

	index := make(map[string]int)

	for _, key := range metricKeys(view, r.opts.Registry) {
		def, ok := r.opts.Registry.Get(key)
		if !ok || def.ValueType == metrics.ValueBool {
			continue
		}

		domain := def.Type()

		i, seen := index[domain]
		if !seen {
			i = len(out)
			index[domain] = i
			out = append(out, domainChart{title: domain})
		}

		out[i].keys = append(out[i].keys, key)
	}

	return out
}

func (r *HTMLRenderer) barChart(view *measure.Snapshot, names []string, dc domainChart) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: dc.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(names)

	for _, key := range dc.keys {
		data := make([]opts.BarData, len(view.Components))

		for i, cm := range view.Components {
			if v, ok := cm.Lookup(key); ok {
				data[i] = opts.BarData{Value: sampleValue(v)}
			}
		}

		bar.AddSeries(displayName(r.opts.Registry, key), data)
	}

	return bar
}
