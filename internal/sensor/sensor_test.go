package sensor_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sonarbridge/internal/sensor"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const (
	testProjectDir = "/work/shop"
	fixturePath    = "testdata/report.xml"
	rootKey        = "org.example:shop"
)

const standaloneReport = `<?xml version="1.0" encoding="UTF-8"?>
<report>
  <general basePath="/work/app"/>
  <attributes>
    <attributeCategory name="Warnings">
      <attribute standaloneName="AllWarnings" value="9"/>
      <attribute standaloneName="DuplicateWarnings" value="2"/>
      <attribute standaloneName="Tasks" value="3"/>
    </attributeCategory>
  </attributes>
  <buildUnits>
    <buildUnit name="App">
      <attributes>
        <attributeCategory name="Structure">
          <attribute standaloneName="Instructions" value="50"/>
          <attribute standaloneName="AllWarnings" value="1"/>
          <attribute standaloneName="Tasks" value="1"/>
        </attributeCategory>
      </attributes>
    </buildUnit>
  </buildUnits>
</report>`

type fixture struct {
	fs     afero.Fs
	store  *measure.MemoryStore
	logs   *bytes.Buffer
	sensor *sensor.Sensor
}

func writeReport(t *testing.T, fs afero.Fs, dir string, data []byte) {
	t.Helper()

	path := filepath.Join(dir, report.DefaultReportPath)
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func fixtureReport(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	return data
}

func newFixture(t *testing.T, data []byte, mutate func(*sensor.Options)) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	if data != nil {
		writeReport(t, fs, testProjectDir, data)
	}

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := measure.NewMemoryStore()

	opts := sensor.Options{
		Logger:      logger,
		Fs:          fs,
		Settings:    report.Settings{ProjectDir: testProjectDir},
		Store:       store,
		ActiveRules: metrics.RuleKeys(),
	}

	if mutate != nil {
		mutate(&opts)
	}

	return &fixture{fs: fs, store: store, logs: logs, sensor: sensor.New(opts)}
}

// module returns a Module component for the build unit under a shop root.
func module(buildUnit string) *component.Component {
	root := &component.Component{Key: rootKey, Name: "shop", Qualifier: component.QualifierProject}
	mod := &component.Component{
		Key:       "org.example:shop-" + strings.ToLower(buildUnit),
		Name:      "shop-" + strings.ToLower(buildUnit),
		BuildUnit: buildUnit,
	}
	root.AddChild(mod)

	return mod
}

func requireValue(t *testing.T, store measure.Reader, key, metric string) measure.Value {
	t.Helper()

	v, ok := store.Get(key, metric)
	require.True(t, ok, "measure %s not published on %s", metric, key)

	return v
}

func TestAnalyse_ProjectsModule(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), nil)
	core := module("Core")

	require.True(t, f.sensor.ShouldExecute(core))
	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	expected := map[string]measure.Value{
		metrics.JavaFiles:                 measure.Int(120),
		metrics.TypeDependencies:          measure.Int(310),
		metrics.StructuralDebtIndex:       measure.Int(10),
		metrics.StructuralDebtCost:        measure.Float(110),
		metrics.Tasks:                     measure.Int(1),
		metrics.SystemAllTasks:            measure.Int(3),
		metrics.InternalPackages:          measure.Int(8),
		metrics.BiggestCycleGroup:         measure.Int(3),
		metrics.Cyclicity:                 measure.Int(13),
		metrics.CyclicPackages:            measure.Int(5),
		metrics.CyclicPackagesPercent:     measure.Float(62.5),
		metrics.ReferencesToRemove:        measure.Int(5),
		metrics.TypeDependenciesToCut:     measure.Int(3),
		metrics.ACD:                       measure.Float(12.5),
		metrics.NCCD:                      measure.Float(1.25),
		metrics.RelativeACD:               measure.Float(4.2),
		metrics.Instructions:              measure.Int(5400),
		metrics.InternalTypes:             measure.Int(40),
		metrics.ViolatingTypeDependencies: measure.Int(6),
		metrics.ViolatingTypes:            measure.Int(4),
		metrics.ViolatingTypesPercent:     measure.Float(10),
		metrics.ViolatingReferences:       measure.Int(9),
		metrics.IgnoredViolations:         measure.Int(1),
		metrics.UnassignedTypes:           measure.Int(10),
		metrics.UnassignedTypesPercent:    measure.Float(25),
		metrics.AllWarnings:               measure.Int(5),
		metrics.CycleWarnings:             measure.Int(2),
		metrics.DuplicateWarnings:         measure.Int(1),
		metrics.ThresholdWarnings:         measure.Int(1),
		metrics.SystemAllWarnings:         measure.Int(9),
		metrics.SystemCycleWarnings:       measure.Int(4),
		metrics.SystemThresholdWarnings:   measure.Int(2),
		metrics.SystemWorkspaceWarnings:   measure.Int(1),
		metrics.SystemIgnoredWarnings:     measure.Int(0),
	}

	for metric, want := range expected {
		assert.Equal(t, want, requireValue(t, f.store, core.Key, metric), metric)
	}

	relCyclicity, ok := requireValue(t, f.store, core.Key, metrics.RelativeCyclicity).Float64()
	require.True(t, ok)
	assert.InDelta(t, 45.0694, relCyclicity, 1e-3)

	_, flagged := f.store.Get(core.Key, metrics.ModuleNotPartOfWorkspace)
	assert.False(t, flagged)

	stats := f.sensor.Stats()
	assert.Equal(t, int64(1), stats.Analyzed)
	assert.Equal(t, int64(len(f.store.Entries(core.Key))), stats.Measures)
	assert.Equal(t, int64(10), stats.Issues)

	acc := f.sensor.Accumulator()
	tasks, ok := acc.Get(metrics.AttrTasks)
	require.True(t, ok)
	assert.Equal(t, measure.Int(3), tasks)
}

func TestAnalyse_RaisesIssues(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), nil)
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	byRule := make(map[string][]measure.Issue)
	for _, issue := range f.store.Issues(core.Key) {
		byRule[issue.RuleKey] = append(byRule[issue.RuleKey], issue)
	}

	assert.Len(t, byRule[metrics.RuleCycleGroup], 5)
	assert.Len(t, byRule[metrics.RuleDuplicateCode], 2)
	assert.Len(t, byRule[metrics.RuleThresholdWarning], 1)
	assert.Empty(t, byRule[metrics.RuleWorkspaceWarning])

	require.Len(t, byRule[metrics.RuleTask], 1)
	task := byRule[metrics.RuleTask][0]
	assert.Equal(t, "Task: Split package [priority: High, assignee: dev]", task.Message)
	assert.Equal(t, "src/a/A.java", task.File)
	assert.Equal(t, 7, task.Line)

	require.Len(t, byRule[metrics.RuleArchitectureViolation], 1)
	violation := byRule[metrics.RuleArchitectureViolation][0]
	assert.Equal(t, "Architecture violation: ui uses db (Layer): ui must not use db", violation.Message)
	assert.Equal(t, 42, violation.Line)
}

func TestAnalyse_InactiveRulesRaiseNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), func(o *sensor.Options) {
		o.ActiveRules = []string{metrics.RuleTask}
	})
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	issues := f.store.Issues(core.Key)
	require.Len(t, issues, 1)
	assert.Equal(t, metrics.RuleTask, issues[0].RuleKey)

	// Cycle measures do not depend on the cycle group rule.
	assert.Equal(t, measure.Int(13), requireValue(t, f.store, core.Key, metrics.Cyclicity))
}

func TestAnalyse_ZeroPackagesGiveZeroRatios(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), nil)
	lib := module("Lib")

	require.NoError(t, f.sensor.Analyse(context.Background(), lib))

	assert.Equal(t, measure.Int(9), requireValue(t, f.store, lib.Key, metrics.Cyclicity))
	assert.Equal(t, measure.Float(0), requireValue(t, f.store, lib.Key, metrics.RelativeCyclicity))
	assert.Equal(t, measure.Float(0), requireValue(t, f.store, lib.Key, metrics.CyclicPackagesPercent))
	assert.Equal(t, measure.Float(0), requireValue(t, f.store, lib.Key, metrics.StructuralDebtCost))

	_, ok := f.store.Get(lib.Key, metrics.InternalPackages)
	assert.False(t, ok)

	_, ok = f.store.Get(lib.Key, metrics.ViolatingTypesPercent)
	assert.False(t, ok, "no architecture measures without UnassignedTypes")
}

func TestAnalyse_UnparsableCostUsesDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), func(o *sensor.Options) { o.CostPerIndexPoint = "abc" })
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	assert.Equal(t, measure.Float(10*sensor.DefaultCostPerIndexPoint),
		requireValue(t, f.store, core.Key, metrics.StructuralDebtCost))
	assert.Contains(t, f.logs.String(), "level=ERROR")
	assert.Contains(t, f.logs.String(), "cost per index point must be a number")
}

func TestAnalyse_NonPositiveCostSkipsDebtCost(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), func(o *sensor.Options) { o.CostPerIndexPoint = "0" })
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	_, ok := f.store.Get(core.Key, metrics.StructuralDebtCost)
	assert.False(t, ok)
	assert.Equal(t, measure.Int(10), requireValue(t, f.store, core.Key, metrics.StructuralDebtIndex))
}

func TestAnalyse_NotPartOfWorkspace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		buildUnit string
		reason    string
	}{
		{"zero instructions", "Web", sensor.SkipEmpty},
		{"missing instructions", "NoCode", sensor.SkipEmpty},
		{"unknown build unit", "Ghost", sensor.SkipNoBuildUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fixtureReport(t), nil)
			comp := module(tt.buildUnit)

			require.NoError(t, f.sensor.Analyse(context.Background(), comp))

			entries := f.store.Entries(comp.Key)
			require.Len(t, entries, 1)
			assert.Equal(t, metrics.ModuleNotPartOfWorkspace, entries[0].Metric)
			assert.Equal(t, measure.Bool(true), entries[0].Value)
			assert.Empty(t, f.store.Issues(comp.Key))

			stats := f.sensor.Stats()
			assert.Equal(t, int64(1), stats.Skipped[tt.reason])
			assert.Zero(t, stats.Analyzed)
		})
	}
}

func TestAnalyse_MissingReportFlagsComponent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	assert.Equal(t, measure.Bool(true), requireValue(t, f.store, core.Key, metrics.ModuleNotPartOfWorkspace))
	assert.Equal(t, int64(1), f.sensor.Stats().Skipped[sensor.SkipNoReport])
	assert.Contains(t, f.logs.String(), "no sonargraph report found")
}

func TestAnalyse_InvariantViolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), nil)

	err := f.sensor.Analyse(context.Background(), module("Broken"))
	require.ErrorIs(t, err, sensor.ErrInvariantViolation)
	assert.Zero(t, f.sensor.Stats().Analyzed)
}

func TestAnalyse_NoActiveRulesSkips(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), func(o *sensor.Options) { o.ActiveRules = nil })
	core := module("Core")

	assert.False(t, f.sensor.HasActiveRules())
	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	assert.Zero(t, f.store.Count())
	assert.Equal(t, int64(1), f.sensor.Stats().Skipped[sensor.SkipNoRules])
}

func TestAnalyse_NoBasePathSkips(t *testing.T) {
	t.Parallel()

	data := strings.Replace(string(fixtureReport(t)), `basePath="/work/shop" `, "", 1)
	f := newFixture(t, []byte(data), nil)
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	assert.Zero(t, f.store.Count())
	assert.Equal(t, int64(1), f.sensor.Stats().Skipped[sensor.SkipNoBasePath])
	assert.Contains(t, f.logs.String(), report.ErrNoBasePath.Error())
}

func TestAnalyse_StandaloneProjectUsesSystemSection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, func(o *sensor.Options) { o.Settings.ProjectDir = "/work/app" })
	writeReport(t, f.fs, "/work/app", []byte(standaloneReport))

	app := component.Standalone("/work/app")
	require.True(t, f.sensor.ShouldExecute(app))
	require.NoError(t, f.sensor.Analyse(context.Background(), app))

	assert.Equal(t, measure.Int(9), requireValue(t, f.store, app.Key, metrics.AllWarnings))
	assert.Equal(t, measure.Int(2), requireValue(t, f.store, app.Key, metrics.DuplicateWarnings))
	assert.Equal(t, measure.Int(3), requireValue(t, f.store, app.Key, metrics.Tasks))

	_, ok := f.store.Get(app.Key, metrics.SystemAllWarnings)
	assert.False(t, ok, "system values are not mirrored on aggregate scope")
}

func TestAnalyse_ComponentDirLocatesReport(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	writeReport(t, f.fs, filepath.Join(testProjectDir, "core"), fixtureReport(t))

	core := module("Core")
	core.Dir = "core"

	require.NoError(t, f.sensor.Analyse(context.Background(), core))
	assert.Equal(t, measure.Int(120), requireValue(t, f.store, core.Key, metrics.JavaFiles))
}

func TestAnalyse_RepeatedRunIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), nil)
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))
	count := f.store.Count()

	require.NoError(t, f.sensor.Analyse(context.Background(), core))
	assert.Equal(t, count, f.store.Count())
}

func TestShouldExecute_SkipsAggregating(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)
	core := module("Core")

	assert.False(t, f.sensor.ShouldExecute(core.Parent()))
	assert.True(t, f.sensor.ShouldExecute(core))
}

func TestCostPerIndexPoint(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	assert.InDelta(t, sensor.DefaultCostPerIndexPoint, sensor.CostPerIndexPoint("", logger), 1e-9)
	assert.InDelta(t, sensor.DefaultCostPerIndexPoint, sensor.CostPerIndexPoint("  ", logger), 1e-9)
	assert.InDelta(t, 7.5, sensor.CostPerIndexPoint(" 7.5 ", logger), 1e-9)
	assert.InDelta(t, sensor.DefaultCostPerIndexPoint, sensor.CostPerIndexPoint("abc", logger), 1e-9)

	for _, setting := range []string{"Inf", "+Infinity", "-inf", "NaN"} {
		assert.InDelta(t, sensor.DefaultCostPerIndexPoint, sensor.CostPerIndexPoint(setting, logger), 1e-9, setting)
	}
}

func TestAnalyse_NonFiniteCostUsesDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fixtureReport(t), func(o *sensor.Options) { o.CostPerIndexPoint = "Inf" })
	core := module("Core")

	require.NoError(t, f.sensor.Analyse(context.Background(), core))

	assert.Equal(t, measure.Float(10*sensor.DefaultCostPerIndexPoint),
		requireValue(t, f.store, core.Key, metrics.StructuralDebtCost))
	assert.Contains(t, f.logs.String(), "level=ERROR")
	assert.Contains(t, f.logs.String(), "value=Inf")
}
