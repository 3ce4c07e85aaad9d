package report

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
)

// DefaultReportPath is the report location relative to the project directory.
const DefaultReportPath = "target/sonargraph/sonargraph-sonar-report.xml"

// Settings locate the report.
type Settings struct {
	// ProjectDir is the directory relative report paths are resolved against.
	ProjectDir string
	// ReportPath is the report file; absolute paths are used as given.
	ReportPath string
}

// Path returns the resolved report path.
func (s Settings) Path() string {
	path := s.ReportPath
	if path == "" {
		path = DefaultReportPath
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(s.ProjectDir, path)
}

// Accessor loads the report of the component being analysed. Reports are
// decoded once per path; an Accessor belongs to a single run.
type Accessor struct {
	logger  *slog.Logger
	cache   map[string]*Report
	current *Report
}

// NewAccessor creates an accessor logging through logger.
func NewAccessor(logger *slog.Logger) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Accessor{logger: logger, cache: make(map[string]*Report)}
}

// HasReport reports whether the report file exists.
func (a *Accessor) HasReport(fs afero.Fs, settings Settings) bool {
	exists, err := afero.Exists(fs, settings.Path())
	if err != nil {
		a.logger.Warn("cannot stat sonargraph report", "path", settings.Path(), "error", err)

		return false
	}

	return exists
}

// ReadReport loads the report for comp. Failures are logged and leave the
// accessor without a report.
func (a *Accessor) ReadReport(comp *component.Component, fs afero.Fs, settings Settings) {
	path := settings.Path()
	a.current = nil

	if cached, ok := a.cache[path]; ok {
		a.current = cached

		return
	}

	file, err := fs.Open(path)
	if err != nil {
		a.logger.Error("cannot open sonargraph report", "component", comp.Key, "path", path, "error", err)

		return
	}
	defer file.Close()

	rep, err := Decode(file, a.logger)
	if err != nil {
		a.logger.Error("cannot read sonargraph report", "component", comp.Key, "path", path, "error", err)

		return
	}

	a.logger.Debug("sonargraph report loaded", "path", path, "build_units", len(rep.BuildUnits))
	a.cache[path] = rep
	a.current = rep
}

// Report returns the report loaded by the last ReadReport, or nil.
func (a *Accessor) Report() *Report { return a.current }

// BuildUnit returns the build unit matching comp, or nil. Matching tries the
// explicit build unit name, the component name and the artifact part of the
// key in that order. A report with a single build unit matches a stand-alone
// project.
func (a *Accessor) BuildUnit(comp *component.Component) *BuildUnit {
	if a.current == nil {
		return nil
	}

	for _, name := range []string{comp.BuildUnit, comp.Name, component.ArtifactOf(comp.Key)} {
		if name == "" {
			continue
		}

		if bu := a.current.FindBuildUnit(name); bu != nil {
			return bu
		}
	}

	if comp.IsStandalone() && len(a.current.BuildUnits) == 1 {
		return a.current.BuildUnits[0]
	}

	return nil
}
