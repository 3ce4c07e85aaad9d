package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricComponentsAnalyzed = "sonarbridge.components.analyzed.total"
	metricComponentsSkipped  = "sonarbridge.components.skipped.total"
	metricMeasuresPublished  = "sonarbridge.measures.published.total"
	metricIssuesRaised       = "sonarbridge.issues.raised.total"
	metricRunDuration        = "sonarbridge.run.duration.seconds"

	attrReason = "reason"
)

// durationBuckets covers 1ms to 60s; one run reads a single report.
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// instruments creates the instruments of one metrics set from a meter and
// keeps the first creation error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) count(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.fail(name, err)

	return c
}

// seconds creates a duration histogram over durationBuckets.
func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...))
	in.fail(name, err)

	return h
}

func (in *instruments) level(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.fail(name, err)

	return c
}

func (in *instruments) fail(name string, err error) {
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("create %s: %w", name, err)
	}
}

// AnalysisMetrics holds the instruments recorded once per analysis run.
type AnalysisMetrics struct {
	analyzed    metric.Int64Counter
	skipped     metric.Int64Counter
	measures    metric.Int64Counter
	issues      metric.Int64Counter
	runDuration metric.Float64Histogram
}

// RunStats summarizes a completed analysis run.
type RunStats struct {
	Analyzed int64
	// Skipped counts skipped components by reason.
	Skipped  map[string]int64
	Measures int64
	Issues   int64
	Duration time.Duration
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	in := &instruments{meter: mt}

	am := &AnalysisMetrics{
		analyzed:    in.count(metricComponentsAnalyzed, "Components projected from the report", "{component}"),
		skipped:     in.count(metricComponentsSkipped, "Components skipped by reason", "{component}"),
		measures:    in.count(metricMeasuresPublished, "Measures published", "{measure}"),
		issues:      in.count(metricIssuesRaised, "Issues raised", "{issue}"),
		runDuration: in.seconds(metricRunDuration, "Analysis run duration"),
	}

	if in.err != nil {
		return nil, in.err
	}

	return am, nil
}

// RecordRun records the statistics of a completed run.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if am == nil {
		return
	}

	am.analyzed.Add(ctx, stats.Analyzed)
	am.measures.Add(ctx, stats.Measures)
	am.issues.Add(ctx, stats.Issues)
	am.runDuration.Record(ctx, stats.Duration.Seconds())

	for reason, count := range stats.Skipped {
		am.skipped.Add(ctx, count, metric.WithAttributes(attribute.String(attrReason, reason)))
	}
}
