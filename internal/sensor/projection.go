package sensor

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// Warning metrics in publication order.
var warningMetrics = []string{
	metrics.AllWarnings,
	metrics.CycleWarnings,
	metrics.DuplicateWarnings,
	metrics.WorkspaceWarnings,
	metrics.ThresholdWarnings,
	metrics.IgnoredWarnings,
}

// projection is the state of one Analyse call on a component with a usable
// build unit.
type projection struct {
	sensor *Sensor
	comp   *component.Component
	rep    *report.Report
	bu     *report.BuildUnit
	unit   Source
	system Source
	leaf   bool
	proj   *Projector
	issues int64
}

func (r *projection) execute(ctx context.Context) error {
	r.buildUnit()
	r.structuralDebt()

	err := r.structure()
	if err != nil {
		return err
	}

	err = r.architecture(ctx)
	if err != nil {
		return err
	}

	r.warnings(ctx)
	r.process(r.sensor.violations)
	r.process(r.sensor.warnings)

	return r.proj.Err()
}

func (r *projection) buildUnit() {
	r.project(r.unit, metrics.AttrJavaFiles, metrics.JavaFiles)
	r.project(r.unit, metrics.AttrTypeDependencies, metrics.TypeDependencies)
}

func (r *projection) structuralDebt() {
	index, _ := r.project(r.unit, metrics.AttrStructuralDebtIndex, metrics.StructuralDebtIndex)

	if costPerPoint := r.sensor.costPerIdx; costPerPoint > 0 {
		cost := metrics.StructuralDebtCostMetric.Compute(metrics.DebtInput{Index: index, CostPerPoint: costPerPoint})
		r.proj.Publish(metrics.StructuralDebtCost, cost)
	}

	if r.leaf {
		r.project(r.unit, metrics.AttrTasks, metrics.Tasks)
		r.mirror(metrics.Tasks)
	} else {
		r.project(r.system, metrics.AttrTasks, metrics.Tasks)
	}

	r.process(r.sensor.tasks)
}

func (r *projection) structure() error {
	r.process(r.sensor.cycles)
	stats := r.sensor.cycles.Stats()

	packages, _ := r.proj.ProjectOperand(r.unit, metrics.AttrInternalPackages, metrics.InternalPackages)

	r.proj.PublishValue(metrics.BiggestCycleGroup, measure.Int(stats.BiggestGroup))
	r.proj.PublishValue(metrics.Cyclicity, measure.Int(stats.Cyclicity))
	r.proj.PublishValue(metrics.CyclicPackages, measure.Int(stats.CyclicPackages))

	relCyclicity, err := RelativeCyclicity(r.unit.Count(stats.Cyclicity), packages)
	if err != nil {
		return err
	}

	cyclicPercent, err := Percent(metrics.CyclicPackagesPercentMetric, r.unit.Count(stats.CyclicPackages), packages)
	if err != nil {
		return err
	}

	r.proj.Publish(metrics.RelativeCyclicity, relCyclicity)
	r.proj.Publish(metrics.CyclicPackagesPercent, cyclicPercent)

	r.project(r.unit, metrics.AttrErosionRefs, metrics.ReferencesToRemove)
	r.project(r.unit, metrics.AttrErosionTypes, metrics.TypeDependenciesToCut)
	r.project(r.unit, metrics.AttrACD, metrics.ACD)
	r.project(r.unit, metrics.AttrNCCD, metrics.NCCD)
	r.project(r.unit, metrics.AttrRACD, metrics.RelativeACD)
	r.project(r.unit, metrics.AttrInstructions, metrics.Instructions)

	return nil
}

func (r *projection) architecture(ctx context.Context) error {
	if !r.unit.Attributes().Has(metrics.AttrUnassignedTypes) {
		r.sensor.logger.InfoContext(ctx, "no architecture measures found", "build_unit", r.bu.Name)

		return nil
	}

	types, ok := r.proj.ProjectOperand(r.unit, metrics.AttrInternalTypes, metrics.InternalTypes)
	if !ok || types.Value < 1 {
		return fmt.Errorf("%w: build unit %s has architecture measures but %v types",
			ErrInvariantViolation, r.bu.Name, types.Value)
	}

	r.project(r.unit, metrics.AttrViolatingTypeDependencies, metrics.ViolatingTypeDependencies)

	violating, _ := r.proj.ProjectOperand(r.unit, metrics.AttrViolatingTypes, metrics.ViolatingTypes)

	violatingPercent, err := Percent(metrics.ViolatingTypesPercentMetric, violating, types)
	if err != nil {
		return err
	}

	r.proj.Publish(metrics.ViolatingTypesPercent, violatingPercent)
	r.project(r.unit, metrics.AttrViolatingReferences, metrics.ViolatingReferences)
	r.project(r.unit, metrics.AttrIgnoredViolations, metrics.IgnoredViolations)

	unassigned, _ := r.proj.ProjectOperand(r.unit, metrics.AttrUnassignedTypes, metrics.UnassignedTypes)

	unassignedPercent, err := Percent(metrics.UnassignedTypesPercentMetric, unassigned, types)
	if err != nil {
		return err
	}

	r.proj.Publish(metrics.UnassignedTypesPercent, unassignedPercent)

	return nil
}

func (r *projection) warnings(ctx context.Context) {
	if !r.leaf {
		r.sensor.logger.DebugContext(ctx, "warning metrics taken from the system section", "component", r.comp.Key)

		for _, key := range warningMetrics {
			r.projectDefinition(r.system, key)
		}

		return
	}

	r.sensor.logger.DebugContext(ctx, "warning metrics taken from the build unit", "component", r.comp.Key)

	for _, key := range warningMetrics {
		r.projectDefinition(r.unit, key)
	}

	for _, key := range warningMetrics {
		r.mirror(key)
	}
}

func (r *projection) projectDefinition(src Source, key string) {
	def, ok := r.sensor.registry.Get(key)
	if !ok {
		return
	}

	r.project(src, def.Source, key)
}

func (r *projection) project(src Source, sourceKey, targetKey string) (float64, bool) {
	return r.proj.Project(src.Attributes(), sourceKey, targetKey)
}

// mirror stores the system value of a visible metric in its hidden mirror.
func (r *projection) mirror(key string) {
	def, ok := r.sensor.registry.Get(key)
	if !ok || def.Mirror == "" {
		return
	}

	v, ok := r.sensor.accumulator.Accumulate(r.system.Attributes(), def.Source)
	if !ok || !v.IsNumeric() {
		return
	}

	r.proj.PublishValue(def.Mirror, v)
}

// process runs p and records the issues of active rules. Processors run even
// when none of their rules is active; the cycle processor feeds measures.
func (r *projection) process(p IssueProcessor) {
	active := false

	for _, rule := range p.Rules() {
		active = active || r.sensor.rules[rule]
	}

	p.Process(r.rep, r.bu, func(issue measure.Issue) {
		if !active || !r.sensor.rules[issue.RuleKey] {
			return
		}

		r.sensor.store.AddIssue(r.comp.Key, issue)
		r.issues++
	})
}
