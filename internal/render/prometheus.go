package render

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

var componentLabels = []string{"component", "name", "qualifier"}

// PrometheusRenderer writes the snapshot in the Prometheus text exposition
// format: one gauge family per metric, one sample per component.
type PrometheusRenderer struct {
	opts Options
}

// Render implements Renderer.
func (r *PrometheusRenderer) Render(w io.Writer, snap *measure.Snapshot) error {
	view := Visible(snap, r.opts)
	registry := prometheus.NewRegistry()
	gauges := make(map[string]*prometheus.GaugeVec)

	for _, key := range metricKeys(view, r.opts.Registry) {
		help := key
		if def, ok := r.opts.Registry.Get(key); ok && def.Description() != "" {
			help = def.Description()
		}

		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: key, Help: help}, componentLabels)
		if err := registry.Register(vec); err != nil {
			return fmt.Errorf("register %s: %w", key, err)
		}

		gauges[key] = vec
	}

	for _, cm := range view.Components {
		for _, e := range cm.Measures {
			gauges[e.Metric].WithLabelValues(cm.Key, cm.Name, cm.Qualifier).Set(sampleValue(e.Value))
		}
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	return writeFamilies(w, families)
}

func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}

	return nil
}

func sampleValue(v measure.Value) float64 {
	if b, ok := v.BoolValue(); ok {
		if b {
			return 1
		}

		return 0
	}

	f, _ := v.Float64()

	return f
}
