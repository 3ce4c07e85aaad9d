// Package sensor projects the Sonargraph report of a module onto measures.
//
// The report is generated per build unit, not for aggregating components, so
// the sensor only runs on leaves. System-wide values that parents cannot
// derive from their children are mirrored into hidden measures and collected
// in a per-run SystemMetrics accumulator.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// DefaultCostPerIndexPoint is the structural debt cost of one index point.
const DefaultCostPerIndexPoint = 11.0

// Skip reasons reported in Stats.
const (
	SkipNoRules     = "no_rules"
	SkipNoReport    = "no_report"
	SkipNoBasePath  = "no_base_path"
	SkipNoBuildUnit = "no_build_unit"
	SkipEmpty       = "empty"
)

// Options configure a Sensor. Store is required.
type Options struct {
	Logger      *slog.Logger
	Fs          afero.Fs
	Settings    report.Settings
	Store       measure.Store
	Accumulator *SystemMetrics
	Accessor    *report.Accessor
	Registry    *metrics.Registry

	// CostPerIndexPoint is the raw setting; empty uses the default.
	CostPerIndexPoint string
	// ActiveRules lists the enabled rule keys. No active rule disables the sensor.
	ActiveRules []string
}

// Stats counts what the sensor did during a run.
type Stats struct {
	Analyzed int64
	Skipped  map[string]int64
	Measures int64
	Issues   int64
}

// Sensor projects report data onto leaf components.
type Sensor struct {
	logger      *slog.Logger
	fs          afero.Fs
	settings    report.Settings
	store       measure.Store
	accumulator *SystemMetrics
	accessor    *report.Accessor
	registry    *metrics.Registry
	costPerIdx  float64
	rules       map[string]bool

	tasks      TaskProcessor
	cycles     *CycleGroupProcessor
	violations ArchitectureViolationProcessor
	warnings   *WarningProcessor

	stats Stats
}

// New creates a sensor.
func New(opts Options) *Sensor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sensor{
		logger:      logger,
		fs:          opts.Fs,
		settings:    opts.Settings,
		store:       opts.Store,
		accumulator: opts.Accumulator,
		accessor:    opts.Accessor,
		registry:    opts.Registry,
		costPerIdx:  CostPerIndexPoint(opts.CostPerIndexPoint, logger),
		rules:       make(map[string]bool, len(opts.ActiveRules)),
		cycles:      &CycleGroupProcessor{},
		warnings:    NewWarningProcessor(logger),
		stats:       Stats{Skipped: make(map[string]int64)},
	}

	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}

	if s.accumulator == nil {
		s.accumulator = NewSystemMetrics()
	}

	if s.accessor == nil {
		s.accessor = report.NewAccessor(logger)
	}

	if s.registry == nil {
		s.registry = metrics.DefaultRegistry()
	}

	for _, rule := range opts.ActiveRules {
		s.rules[rule] = true
	}

	return s
}

// CostPerIndexPoint parses the cost setting. Empty input yields the default;
// unparsable or non-finite input is logged and yields the default.
func CostPerIndexPoint(setting string, logger *slog.Logger) float64 {
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return DefaultCostPerIndexPoint
	}

	cost, err := strconv.ParseFloat(setting, 64)
	if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) {
		logger.Error("cost per index point must be a number, using default",
			"value", setting, "default", DefaultCostPerIndexPoint)

		return DefaultCostPerIndexPoint
	}

	return cost
}

// ShouldExecute reports whether the sensor runs on comp. Aggregating
// components have no build unit in the report.
func (s *Sensor) ShouldExecute(comp *component.Component) bool {
	return !comp.IsAggregating()
}

// HasReport reports whether a report exists for comp.
func (s *Sensor) HasReport(comp *component.Component) bool {
	return s.accessor.HasReport(s.fs, s.settingsFor(comp))
}

// HasActiveRules reports whether at least one rule is enabled.
func (s *Sensor) HasActiveRules() bool { return len(s.rules) > 0 }

// Accumulator returns the system metrics collected so far.
func (s *Sensor) Accumulator() *SystemMetrics { return s.accumulator }

// Stats returns a copy of the run statistics.
func (s *Sensor) Stats() Stats {
	out := s.stats
	out.Skipped = make(map[string]int64, len(s.stats.Skipped))

	for reason, n := range s.stats.Skipped {
		out.Skipped[reason] = n
	}

	return out
}

// Analyse projects the report onto comp. Missing data is logged and skips
// the component; only store conflicts and violated report invariants are
// returned as errors.
func (s *Sensor) Analyse(ctx context.Context, comp *component.Component) error {
	if !s.HasActiveRules() {
		s.logger.WarnContext(ctx, "skipping component, no sonargraph rule is active", "component", comp.Key)
		s.skip(SkipNoRules)

		return nil
	}

	settings := s.settingsFor(comp)

	if !s.accessor.HasReport(s.fs, settings) {
		s.logger.WarnContext(ctx, "skipping component, no sonargraph report found",
			"component", comp.Key, "path", settings.Path())

		return s.notPartOfWorkspace(comp, SkipNoReport)
	}

	s.logger.InfoContext(ctx, "analysing component", "component", comp.Key, "name", comp.Name)

	s.accessor.ReadReport(comp, s.fs, settings)
	rep := s.accessor.Report()

	if _, err := rep.BasePath(); err != nil {
		s.logger.ErrorContext(ctx, "skipping component", "component", comp.Key, "error", err)
		s.skip(SkipNoBasePath)

		return nil
	}

	bu := s.accessor.BuildUnit(comp)
	if bu == nil {
		s.logger.WarnContext(ctx, "no sonargraph build unit found in report, component not processed",
			"component", comp.Key)

		return s.notPartOfWorkspace(comp, SkipNoBuildUnit)
	}

	attrs := bu.Attributes()

	instructions, ok := attrs.Number(metrics.AttrInstructions)
	if !ok || instructions < 1 {
		s.logger.WarnContext(ctx, "no code to be analysed, component not processed",
			"component", comp.Key, "build_unit", bu.Name)

		return s.notPartOfWorkspace(comp, SkipEmpty)
	}

	s.logger.DebugContext(ctx, "analysing build unit", "component", comp.Key, "build_unit", bu.Name)

	run := &projection{
		sensor: s,
		comp:   comp,
		rep:    rep,
		bu:     bu,
		unit:   BuildUnitSource(bu),
		system: SystemSource(rep),
		leaf:   isLeaf(comp),
		proj:   NewProjector(s.store, s.registry, s.logger, comp.Key),
	}

	err := run.execute(ctx)
	if err != nil {
		return fmt.Errorf("analyse %s: %w", comp.Key, err)
	}

	s.stats.Analyzed++
	s.stats.Measures += int64(run.proj.Published())
	s.stats.Issues += run.issues

	return nil
}

func isLeaf(comp *component.Component) bool {
	_, leaf := component.ScopeOf(comp).(component.LeafScope)

	return leaf
}

func (s *Sensor) settingsFor(comp *component.Component) report.Settings {
	settings := s.settings
	if comp.Dir == "" {
		return settings
	}

	if filepath.IsAbs(comp.Dir) {
		settings.ProjectDir = comp.Dir
	} else {
		settings.ProjectDir = filepath.Join(settings.ProjectDir, comp.Dir)
	}

	return settings
}

func (s *Sensor) notPartOfWorkspace(comp *component.Component, reason string) error {
	s.skip(reason)

	err := s.store.Publish(comp.Key, metrics.ModuleNotPartOfWorkspace, measure.Bool(true))
	if err != nil {
		return fmt.Errorf("flag %s: %w", comp.Key, err)
	}

	s.stats.Measures++

	return nil
}

func (s *Sensor) skip(reason string) {
	s.stats.Skipped[reason]++
}
