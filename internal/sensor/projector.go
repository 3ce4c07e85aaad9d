package sensor

import (
	"log/slog"
	"math"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// Projector publishes report attributes as measures of one component.
// Values are coerced to the value type of their metric definition. The first
// store error is kept and reported by Err so a projection sequence needs a
// single check.
type Projector struct {
	store     measure.Store
	registry  *metrics.Registry
	logger    *slog.Logger
	component string

	published int
	err       error
}

// NewProjector creates a projector for the component key.
func NewProjector(store measure.Store, registry *metrics.Registry, logger *slog.Logger, componentKey string) *Projector {
	if logger == nil {
		logger = slog.Default()
	}

	return &Projector{store: store, registry: registry, logger: logger, component: componentKey}
}

// Project publishes attrs[sourceKey] under targetKey and returns it as a
// number. Missing and non-numeric attributes are not published.
func (p *Projector) Project(attrs report.AttributeMap, sourceKey, targetKey string) (float64, bool) {
	v, ok := attrs.Get(sourceKey)
	if !ok {
		p.logger.Debug("attribute not in report", "component", p.component, "attribute", sourceKey)

		return 0, false
	}

	number, ok := v.Float64()
	if !ok {
		p.logger.Debug("attribute not numeric", "component", p.component, "attribute", sourceKey, "value", v)

		return 0, false
	}

	p.PublishValue(targetKey, v)

	return number, true
}

// ProjectOperand publishes the attribute of src like Project and returns it
// tagged with the scope of src. A missing attribute yields a zero operand.
func (p *Projector) ProjectOperand(src Source, sourceKey, targetKey string) (Operand, bool) {
	number, ok := p.Project(src.Attributes(), sourceKey, targetKey)

	return Operand{Value: number, Scope: src.Scope()}, ok
}

// Publish publishes a computed number under key.
func (p *Projector) Publish(key string, number float64) {
	p.PublishValue(key, measure.Float(number))
}

// PublishValue publishes v under key after coercing it to the metric type.
// Values an integer metric cannot hold are logged and not published.
func (p *Projector) PublishValue(key string, v measure.Value) {
	coerced, ok := p.coerce(key, v)
	if !ok {
		p.logger.Warn("value out of range for integer metric, not published",
			"component", p.component, "metric", key, "value", v)

		return
	}

	err := p.store.Publish(p.component, key, coerced)
	if err != nil {
		if p.err == nil {
			p.err = err
		}

		return
	}

	p.published++
}

// Published returns the number of successful publications.
func (p *Projector) Published() int { return p.published }

// Err returns the first publish error.
func (p *Projector) Err() error { return p.err }

func (p *Projector) coerce(key string, v measure.Value) (measure.Value, bool) {
	def, ok := p.registry.Get(key)
	if !ok || !v.IsNumeric() {
		return v, true
	}

	number, _ := v.Float64()

	switch def.ValueType {
	case metrics.ValueInt:
		if v.Kind() == measure.KindInt {
			return v, true
		}

		rounded := math.Round(number)
		if math.IsNaN(rounded) || rounded < math.MinInt64 || rounded >= math.MaxInt64 {
			return v, false
		}

		return measure.Int(int64(rounded)), true
	case metrics.ValueFloat, metrics.ValuePercent:
		return measure.Float(number), true
	default:
		return v, true
	}
}
