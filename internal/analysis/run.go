// Package analysis drives one analysis run: every sensor first, then every
// measure computer, both over the component tree in bottom-up order.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/sonarbridge/internal/compute"
	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/internal/sensor"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// tracerName is the default OTel tracer name for the analysis package.
const tracerName = "sonarbridge"

// Span names.
const (
	spanRun     = "sonarbridge.run"
	spanSensor  = "sonarbridge.sensor"
	spanCompute = "sonarbridge.compute"
)

// Deps holds the collaborators and settings of a run. Zero values fall back
// to the OS filesystem, the default registry and the global OTel tracer.
type Deps struct {
	Logger   *slog.Logger
	Fs       afero.Fs
	Settings report.Settings
	Registry *metrics.Registry
	Tracer   trace.Tracer
	Metrics  *observability.AnalysisMetrics

	CostPerIndexPoint string
	ActiveRules       []string

	// Computers overrides the default measure computers.
	Computers []compute.MeasureComputer
	// Now stamps the snapshot; defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a run.
type Result struct {
	Snapshot *measure.Snapshot
	Store    *measure.MemoryStore
	System   *sensor.SystemMetrics
	Stats    observability.RunStats
	// Eligible reports whether parents were computed.
	Eligible bool
}

func (d *Deps) withDefaults() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}

	if d.Registry == nil {
		d.Registry = metrics.DefaultRegistry()
	}

	if d.Tracer == nil {
		d.Tracer = otel.Tracer(tracerName)
	}

	if d.Computers == nil {
		d.Computers = compute.Default(d.Registry)
	}

	if d.Now == nil {
		d.Now = time.Now
	}
}

// Run analyses tree. Each run owns a fresh store, accumulator and report
// cache. Sensors finish on every component before the first computer runs,
// so child-summable measures exist when parents are computed. ctx is checked
// between components.
func Run(ctx context.Context, tree *component.Component, deps Deps) (*Result, error) {
	deps.withDefaults()
	start := time.Now()

	ctx, span := deps.Tracer.Start(ctx, spanRun, trace.WithAttributes(
		attribute.String("sonarbridge.project", tree.Key),
	))
	defer span.End()

	order, err := component.BottomUp(tree)
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeInvalidInput)

		return nil, fmt.Errorf("order components: %w", err)
	}

	store := measure.NewMemoryStore()
	snsr := sensor.New(sensor.Options{
		Logger:            deps.Logger,
		Fs:                deps.Fs,
		Settings:          deps.Settings,
		Store:             store,
		Accumulator:       sensor.NewSystemMetrics(),
		Accessor:          report.NewAccessor(deps.Logger),
		Registry:          deps.Registry,
		CostPerIndexPoint: deps.CostPerIndexPoint,
		ActiveRules:       deps.ActiveRules,
	})

	eligible := isEligible(snsr, order)

	err = runSensors(ctx, deps.Tracer, snsr, order)
	if err != nil {
		observability.RecordSpanError(span, err, errType(err))

		return nil, err
	}

	err = store.Publish(tree.Key, metrics.RootProjectToBeProcessed, measure.Bool(eligible))
	if err != nil {
		observability.RecordSpanError(span, err, observability.ErrTypeInternal)

		return nil, fmt.Errorf("flag root: %w", err)
	}

	err = runComputers(ctx, deps, store, order)
	if err != nil {
		observability.RecordSpanError(span, err, errType(err))

		return nil, err
	}

	sensorStats := snsr.Stats()
	stats := observability.RunStats{
		Analyzed: sensorStats.Analyzed,
		Skipped:  sensorStats.Skipped,
		Measures: int64(store.Count()),
		Issues:   sensorStats.Issues,
		Duration: time.Since(start),
	}

	deps.Metrics.RecordRun(ctx, stats)

	span.SetAttributes(
		attribute.Int64("sonarbridge.components.analyzed", stats.Analyzed),
		attribute.Int64("sonarbridge.measures", stats.Measures),
	)

	deps.Logger.InfoContext(ctx, "analysis finished",
		"project", tree.Key,
		"components", len(order),
		"analyzed", stats.Analyzed,
		"measures", stats.Measures,
		"issues", stats.Issues,
		"eligible", eligible,
		"duration", stats.Duration,
	)

	return &Result{
		Snapshot: store.Snapshot(tree.Key, tree.Refs(), deps.Now()),
		Store:    store,
		System:   snsr.Accumulator(),
		Stats:    stats,
		Eligible: eligible,
	}, nil
}

// isEligible reports whether parents should be computed: some rule is
// active and a report exists for at least one analysed component.
func isEligible(snsr *sensor.Sensor, order []*component.Component) bool {
	if !snsr.HasActiveRules() {
		return false
	}

	for _, comp := range order {
		if snsr.ShouldExecute(comp) && snsr.HasReport(comp) {
			return true
		}
	}

	return false
}

func runSensors(ctx context.Context, tracer trace.Tracer, snsr *sensor.Sensor, order []*component.Component) error {
	ctx, span := tracer.Start(ctx, spanSensor)
	defer span.End()

	for _, comp := range order {
		if err := ctx.Err(); err != nil {
			observability.RecordSpanError(span, err, observability.ErrTypeCanceled)

			return fmt.Errorf("sensor phase: %w", err)
		}

		if !snsr.ShouldExecute(comp) {
			continue
		}

		err := snsr.Analyse(ctx, comp)
		if err != nil {
			observability.RecordSpanError(span, err, errType(err))

			return fmt.Errorf("sensor phase: %w", err)
		}
	}

	return nil
}

func runComputers(ctx context.Context, deps Deps, store measure.Store, order []*component.Component) error {
	ctx, span := deps.Tracer.Start(ctx, spanCompute)
	defer span.End()

	for _, comp := range order {
		if err := ctx.Err(); err != nil {
			observability.RecordSpanError(span, err, observability.ErrTypeCanceled)

			return fmt.Errorf("compute phase: %w", err)
		}

		if !comp.IsAggregating() {
			continue
		}

		cctx := compute.NewContext(comp, store, deps.Logger)

		for _, computer := range deps.Computers {
			err := computer.Compute(cctx)
			if err != nil {
				observability.RecordSpanError(span, err, errType(err))

				return fmt.Errorf("compute phase: %s on %s: %w", computer.Name(), comp.Key, err)
			}
		}

		deps.Logger.DebugContext(ctx, "component computed", "component", comp.Key)
	}

	return nil
}

func errType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observability.ErrTypeCanceled
	case errors.Is(err, sensor.ErrInvariantViolation), errors.Is(err, sensor.ErrScopeMismatch):
		return observability.ErrTypeInvalidInput
	default:
		return observability.ErrTypeInternal
	}
}
