// Package render writes measure snapshots in the supported output formats.
package render

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// Output formats.
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatPrometheus = "prometheus"
	FormatHTML       = "html"
)

// Formats returns the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatPrometheus, FormatHTML}
}

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Renderer writes a snapshot to w.
type Renderer interface {
	Render(w io.Writer, snap *measure.Snapshot) error
}

// Options configures the renderers.
type Options struct {
	// Registry supplies display names, value types and ordering.
	// Defaults to the full catalog.
	Registry *metrics.Registry
	// ShowHidden includes internal bookkeeping measures.
	ShowHidden bool
	NoColor    bool
	// Currency is appended to the structural debt cost.
	Currency string
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = metrics.DefaultRegistry()
	}

	if o.Currency == "" {
		o.Currency = "USD"
	}

	return o
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	opts = opts.withDefaults()

	switch strings.ToLower(format) {
	case FormatText, "":
		return &TextRenderer{opts: opts}, nil
	case FormatJSON:
		return &JSONRenderer{opts: opts}, nil
	case FormatYAML:
		return &YAMLRenderer{opts: opts}, nil
	case FormatPrometheus:
		return &PrometheusRenderer{opts: opts}, nil
	case FormatHTML:
		return &HTMLRenderer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Visible returns a copy of snap without hidden measures, each component's
// measures sorted in catalog order. Unknown metrics sort last by key.
func Visible(snap *measure.Snapshot, opts Options) *measure.Snapshot {
	opts = opts.withDefaults()

	out := &measure.Snapshot{
		Project:    snap.Project,
		CreatedAt:  snap.CreatedAt,
		Components: make([]measure.ComponentMeasures, 0, len(snap.Components)),
	}

	for _, cm := range snap.Components {
		kept := make([]measure.Entry, 0, len(cm.Measures))

		for _, e := range cm.Measures {
			if opts.ShowHidden || !isHidden(opts.Registry, e.Metric) {
				kept = append(kept, e)
			}
		}

		slices.SortStableFunc(kept, func(a, b measure.Entry) int {
			return compareMetrics(opts.Registry, a.Metric, b.Metric)
		})

		cm.Measures = kept
		out.Components = append(out.Components, cm)
	}

	return out
}

func isHidden(reg *metrics.Registry, key string) bool {
	if def, ok := reg.Get(key); ok {
		return def.Hidden
	}

	return strings.HasPrefix(key, metrics.InternalPrefix)
}

func compareMetrics(reg *metrics.Registry, a, b string) int {
	pa, pb := reg.Position(a), reg.Position(b)

	switch {
	case pa >= 0 && pb >= 0:
		return pa - pb
	case pa >= 0:
		return -1
	case pb >= 0:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// metricKeys returns every metric present in snap, in catalog order.
func metricKeys(snap *measure.Snapshot, reg *metrics.Registry) []string {
	seen := make(map[string]bool)

	var keys []string

	for _, cm := range snap.Components {
		for _, e := range cm.Measures {
			if !seen[e.Metric] {
				seen[e.Metric] = true
				keys = append(keys, e.Metric)
			}
		}
	}

	slices.SortFunc(keys, func(a, b string) int { return compareMetrics(reg, a, b) })

	return keys
}

func displayName(reg *metrics.Registry, key string) string {
	if def, ok := reg.Get(key); ok && def.DisplayName() != "" {
		return def.DisplayName()
	}

	return key
}
