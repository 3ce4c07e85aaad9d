package sensor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// IssueProcessor turns report content of a build unit into issues.
type IssueProcessor interface {
	// Rules returns the rule keys the processor can raise.
	Rules() []string

	// Process raises issues for the build unit through raise.
	Process(rep *report.Report, bu *report.BuildUnit, raise func(measure.Issue))
}

// withPositions raises one issue per position, or a single issue without
// location when there are none.
func withPositions(rule, message string, positions []report.Position, raise func(measure.Issue)) {
	if len(positions) == 0 {
		raise(measure.Issue{RuleKey: rule, Message: message})

		return
	}

	for _, pos := range positions {
		raise(measure.Issue{RuleKey: rule, Message: message, File: pos.File, Line: pos.Line})
	}
}

// CycleStats summarises the package cycle groups of a build unit.
type CycleStats struct {
	Groups         int
	Cyclicity      int64
	BiggestGroup   int64
	CyclicPackages int64
}

// CycleGroupProcessor computes cycle statistics and raises one issue per
// cyclic package.
type CycleGroupProcessor struct {
	stats CycleStats
}

// Stats returns the statistics of the last Process call.
func (p *CycleGroupProcessor) Stats() CycleStats { return p.stats }

// Rules implements IssueProcessor.
func (*CycleGroupProcessor) Rules() []string { return []string{metrics.RuleCycleGroup} }

// Process implements IssueProcessor.
func (p *CycleGroupProcessor) Process(rep *report.Report, bu *report.BuildUnit, raise func(measure.Issue)) {
	p.stats = CycleStats{}

	for _, group := range rep.CycleGroupsOf(bu, report.ElementScopePackage) {
		size := int64(len(group.Elements))

		p.stats.Groups++
		p.stats.Cyclicity += size * size
		p.stats.CyclicPackages += size
		p.stats.BiggestGroup = max(p.stats.BiggestGroup, size)

		for _, elem := range group.Elements {
			raise(measure.Issue{
				RuleKey: metrics.RuleCycleGroup,
				Message: fmt.Sprintf("Package %s is part of cycle group %s with %d packages", elem.Name, group.Name, size),
				File:    elem.Position.File,
				Line:    elem.Position.Line,
			})
		}
	}
}

// TaskProcessor raises the open tasks of a build unit.
type TaskProcessor struct{}

// Rules implements IssueProcessor.
func (TaskProcessor) Rules() []string { return []string{metrics.RuleTask} }

// Process implements IssueProcessor.
func (TaskProcessor) Process(rep *report.Report, bu *report.BuildUnit, raise func(measure.Issue)) {
	for _, task := range rep.TasksOf(bu) {
		details := make([]string, 0, 2)
		if task.Priority != "" {
			details = append(details, "priority: "+task.Priority)
		}

		if task.Assignee != "" {
			details = append(details, "assignee: "+task.Assignee)
		}

		message := "Task: " + task.Description
		if len(details) > 0 {
			message += " [" + strings.Join(details, ", ") + "]"
		}

		withPositions(metrics.RuleTask, message, task.Positions, raise)
	}
}

// ArchitectureViolationProcessor raises architecture violations.
type ArchitectureViolationProcessor struct{}

// Rules implements IssueProcessor.
func (ArchitectureViolationProcessor) Rules() []string {
	return []string{metrics.RuleArchitectureViolation}
}

// Process implements IssueProcessor.
func (ArchitectureViolationProcessor) Process(rep *report.Report, bu *report.BuildUnit, raise func(measure.Issue)) {
	for _, v := range rep.ViolationsOf(bu) {
		message := fmt.Sprintf("Architecture violation: %s uses %s", v.From, v.To)
		if v.Type != "" {
			message += " (" + v.Type + ")"
		}

		if v.Description != "" {
			message += ": " + v.Description
		}

		withPositions(metrics.RuleArchitectureViolation, message, v.Positions, raise)
	}
}

// WarningProcessor raises threshold, duplicate code and workspace warnings.
type WarningProcessor struct {
	logger *slog.Logger
}

// NewWarningProcessor creates a warning processor.
func NewWarningProcessor(logger *slog.Logger) *WarningProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	return &WarningProcessor{logger: logger}
}

// Rules implements IssueProcessor.
func (*WarningProcessor) Rules() []string {
	return []string{metrics.RuleThresholdWarning, metrics.RuleDuplicateCode, metrics.RuleWorkspaceWarning}
}

// Process implements IssueProcessor.
func (p *WarningProcessor) Process(rep *report.Report, bu *report.BuildUnit, raise func(measure.Issue)) {
	for _, w := range rep.WarningsOf(bu) {
		switch w.Type {
		case report.WarningThreshold:
			message := fmt.Sprintf("Threshold violation: %s = %s (threshold %s)", w.Attribute, w.Value, w.Threshold)
			withPositions(metrics.RuleThresholdWarning, message, w.Positions, raise)
		case report.WarningDuplicate:
			withPositions(metrics.RuleDuplicateCode, "Duplicate code: "+w.Description, w.Positions, raise)
		case report.WarningWorkspace:
			withPositions(metrics.RuleWorkspaceWarning, "Workspace warning: "+w.Description, w.Positions, raise)
		default:
			p.logger.Debug("skip warning of unknown type", "build_unit", bu.Name, "type", w.Type)
		}
	}
}
