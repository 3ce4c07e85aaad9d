// Package report reads the Sonargraph XML report and exposes its attribute
// values keyed by standalone metric name.
package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/html/charset"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

// ElementScopePackage marks package level cycle groups.
const ElementScopePackage = "Package"

// Warning types as they appear in the report.
const (
	WarningThreshold = "ThresholdWarning"
	WarningDuplicate = "DuplicateCode"
	WarningWorkspace = "WorkspaceWarning"
)

// ErrNoBasePath indicates a report without <general basePath>.
var ErrNoBasePath = errors.New("sonargraph base path cannot be determined")

// Report is the decoded report. It is immutable after Decode.
type Report struct {
	XMLName     xml.Name      `xml:"report"`
	General     General       `xml:"general"`
	Attributes  AttributeRoot `xml:"attributes"`
	BuildUnits  []*BuildUnit  `xml:"buildUnits>buildUnit"`
	CycleGroups []CycleGroup  `xml:"cycleGroups>cycleGroup"`
	Violations  []Violation   `xml:"architectureViolations>violation"`
	Warnings    []Warning     `xml:"warnings>warning"`
	Tasks       []Task        `xml:"tasks>task"`

	system AttributeMap
}

// General holds report level metadata.
type General struct {
	BasePath    string `xml:"basePath,attr"`
	ProjectName string `xml:"projectName,attr"`
	Version     string `xml:"version,attr"`
	Timestamp   string `xml:"timestamp,attr"`
}

// AttributeRoot is an <attributes> section.
type AttributeRoot struct {
	Categories []AttributeCategory `xml:"attributeCategory"`
}

// AttributeCategory groups attributes for display.
type AttributeCategory struct {
	Name       string      `xml:"name,attr"`
	Attributes []Attribute `xml:"attribute"`
}

// Attribute is a single report value.
type Attribute struct {
	Name           string `xml:"name,attr"`
	StandaloneName string `xml:"standaloneName,attr"`
	Value          string `xml:"value,attr"`
}

// BuildUnit is a Sonargraph build unit, usually one per module.
type BuildUnit struct {
	Name string        `xml:"name,attr"`
	Root AttributeRoot `xml:"attributes"`

	attrs AttributeMap
}

// Position is a source location.
type Position struct {
	File string `xml:"file,attr"`
	Line int    `xml:"line,attr"`
}

// CycleGroup is a set of mutually dependent elements.
type CycleGroup struct {
	Name         string         `xml:"name,attr"`
	ElementScope string         `xml:"elementScope,attr"`
	BuildUnit    string         `xml:"buildUnit,attr"`
	Elements     []CycleElement `xml:"cycleElement"`
}

// CycleElement is a member of a cycle group.
type CycleElement struct {
	Name     string   `xml:"name,attr"`
	Position Position `xml:"position"`
}

// Violation is an architecture violation.
type Violation struct {
	BuildUnit   string     `xml:"buildUnit,attr"`
	Type        string     `xml:"type,attr"`
	From        string     `xml:"from,attr"`
	To          string     `xml:"to,attr"`
	Description string     `xml:"description,attr"`
	Positions   []Position `xml:"position"`
}

// Warning is a threshold, duplicate code or workspace warning.
type Warning struct {
	BuildUnit   string     `xml:"buildUnit,attr"`
	Type        string     `xml:"type,attr"`
	Description string     `xml:"description,attr"`
	Attribute   string     `xml:"attribute,attr"`
	Value       string     `xml:"value,attr"`
	Threshold   string     `xml:"threshold,attr"`
	Positions   []Position `xml:"position"`
}

// Task is an open refactoring task.
type Task struct {
	BuildUnit   string     `xml:"buildUnit,attr"`
	Priority    string     `xml:"priority,attr"`
	Assignee    string     `xml:"assignee,attr"`
	Description string     `xml:"description,attr"`
	Positions   []Position `xml:"position"`
}

// Decode reads a report and builds its attribute maps. Attributes whose value
// cannot be parsed are logged at debug level and skipped.
func Decode(r io.Reader, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var rep Report

	err := decoder.Decode(&rep)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	rep.system = rep.Attributes.toMap(logger, "system")

	for _, bu := range rep.BuildUnits {
		bu.attrs = bu.Root.toMap(logger, bu.Name)
	}

	return &rep, nil
}

// BasePath returns the analysed workspace directory.
func (r *Report) BasePath() (string, error) {
	if r == nil || r.General.BasePath == "" {
		return "", ErrNoBasePath
	}

	return r.General.BasePath, nil
}

// SystemAttributes returns the system-wide attribute map.
func (r *Report) SystemAttributes() AttributeMap { return r.system }

// FindBuildUnit returns the build unit with the given name.
func (r *Report) FindBuildUnit(name string) *BuildUnit {
	for _, bu := range r.BuildUnits {
		if bu.Name == name {
			return bu
		}
	}

	return nil
}

// CycleGroupsOf returns the cycle groups of the build unit with the given scope.
func (r *Report) CycleGroupsOf(bu *BuildUnit, scope string) []CycleGroup {
	var out []CycleGroup

	for _, group := range r.CycleGroups {
		if group.BuildUnit == bu.Name && group.ElementScope == scope {
			out = append(out, group)
		}
	}

	return out
}

// ViolationsOf returns the architecture violations of the build unit.
func (r *Report) ViolationsOf(bu *BuildUnit) []Violation {
	return filterByUnit(r.Violations, bu.Name, func(v Violation) string { return v.BuildUnit })
}

// WarningsOf returns the warnings of the build unit.
func (r *Report) WarningsOf(bu *BuildUnit) []Warning {
	return filterByUnit(r.Warnings, bu.Name, func(w Warning) string { return w.BuildUnit })
}

// TasksOf returns the tasks of the build unit.
func (r *Report) TasksOf(bu *BuildUnit) []Task {
	return filterByUnit(r.Tasks, bu.Name, func(t Task) string { return t.BuildUnit })
}

// Attributes returns the attribute map of the build unit.
func (b *BuildUnit) Attributes() AttributeMap { return b.attrs }

func filterByUnit[T any](items []T, unit string, unitOf func(T) string) []T {
	var out []T

	for _, item := range items {
		if unitOf(item) == unit {
			out = append(out, item)
		}
	}

	return out
}

func (root AttributeRoot) toMap(logger *slog.Logger, section string) AttributeMap {
	attrs := make(AttributeMap)

	for _, category := range root.Categories {
		for _, attr := range category.Attributes {
			if attr.StandaloneName == "" {
				continue
			}

			value, err := measure.Parse(attr.Value)
			if err != nil {
				logger.Debug("skip report attribute",
					"section", section, "attribute", attr.StandaloneName, "error", err)

				continue
			}

			attrs[attr.StandaloneName] = value
		}
	}

	return attrs
}
