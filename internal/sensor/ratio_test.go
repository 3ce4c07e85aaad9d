package sensor_test

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sonarbridge/internal/sensor"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const scopedReport = `<?xml version="1.0" encoding="UTF-8"?>
<report>
  <general basePath="/work/app"/>
  <attributes>
    <attributeCategory name="Structure">
      <attribute standaloneName="InternalPackages" value="20"/>
      <attribute standaloneName="InternalTypes" value="200"/>
    </attributeCategory>
  </attributes>
  <buildUnits>
    <buildUnit name="App">
      <attributes>
        <attributeCategory name="Structure">
          <attribute standaloneName="InternalPackages" value="4"/>
          <attribute standaloneName="InternalTypes" value="40"/>
          <attribute standaloneName="ViolatingTypes" value="4"/>
        </attributeCategory>
      </attributes>
    </buildUnit>
  </buildUnits>
</report>`

func decodeScoped(t *testing.T) (*report.Report, *report.BuildUnit) {
	t.Helper()

	rep, err := report.Decode(strings.NewReader(scopedReport), nil)
	require.NoError(t, err)

	bu := rep.FindBuildUnit("App")
	require.NotNil(t, bu)

	return rep, bu
}

func TestProjectOperand_TagsSourceScope(t *testing.T) {
	t.Parallel()

	rep, bu := decodeScoped(t)
	p := sensor.NewProjector(measure.NewMemoryStore(), metrics.DefaultRegistry(), nil, "c")

	unit, ok := p.ProjectOperand(sensor.BuildUnitSource(bu), metrics.AttrInternalPackages, metrics.InternalPackages)
	require.True(t, ok)
	assert.Equal(t, sensor.Operand{Value: 4, Scope: sensor.ScopeBuildUnit}, unit)

	system, ok := p.ProjectOperand(sensor.SystemSource(rep), metrics.AttrInternalTypes, metrics.InternalTypes)
	require.True(t, ok)
	assert.Equal(t, sensor.Operand{Value: 200, Scope: sensor.ScopeSystem}, system)

	missing, ok := p.ProjectOperand(sensor.SystemSource(rep), metrics.AttrViolatingTypes, metrics.ViolatingTypes)
	assert.False(t, ok)
	assert.Equal(t, sensor.ScopeSystem, missing.Scope)
}

func TestPercent_MixedSectionsMismatch(t *testing.T) {
	t.Parallel()

	rep, bu := decodeScoped(t)
	p := sensor.NewProjector(measure.NewMemoryStore(), metrics.DefaultRegistry(), nil, "c")
	unit := sensor.BuildUnitSource(bu)

	violating, ok := p.ProjectOperand(unit, metrics.AttrViolatingTypes, metrics.ViolatingTypes)
	require.True(t, ok)

	systemTypes, ok := p.ProjectOperand(sensor.SystemSource(rep), metrics.AttrInternalTypes, metrics.InternalTypes)
	require.True(t, ok)

	_, err := sensor.Percent(metrics.ViolatingTypesPercentMetric, violating, systemTypes)
	require.ErrorIs(t, err, sensor.ErrScopeMismatch)
	assert.Contains(t, err.Error(), "build-unit and system")

	systemPackages, ok := p.ProjectOperand(sensor.SystemSource(rep), metrics.AttrInternalPackages, metrics.InternalPackages)
	require.True(t, ok)

	_, err = sensor.RelativeCyclicity(unit.Count(16), systemPackages)
	require.ErrorIs(t, err, sensor.ErrScopeMismatch)
}

func TestPercent_SameSection(t *testing.T) {
	t.Parallel()

	_, bu := decodeScoped(t)
	p := sensor.NewProjector(measure.NewMemoryStore(), metrics.DefaultRegistry(), nil, "c")
	unit := sensor.BuildUnitSource(bu)

	violating, _ := p.ProjectOperand(unit, metrics.AttrViolatingTypes, metrics.ViolatingTypes)
	types, _ := p.ProjectOperand(unit, metrics.AttrInternalTypes, metrics.InternalTypes)

	got, err := sensor.Percent(metrics.ViolatingTypesPercentMetric, violating, types)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)

	packages, _ := p.ProjectOperand(unit, metrics.AttrInternalPackages, metrics.InternalPackages)

	got, err = sensor.RelativeCyclicity(unit.Count(16), packages)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-9)

	got, err = sensor.RelativeCyclicity(unit.Count(16), unit.Count(0))
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAggregatedOperand_ScopeFromAggregation(t *testing.T) {
	t.Parallel()

	registry := metrics.DefaultRegistry()

	summed := sensor.AggregatedOperand(registry, metrics.InternalTypes, 40)
	assert.Equal(t, sensor.ScopeChildren, summed.Scope)

	republished := sensor.AggregatedOperand(registry, metrics.AllWarnings, 9)
	assert.Equal(t, sensor.ScopeSystem, republished.Scope)

	_, err := sensor.Percent(metrics.ViolatingTypesPercentMetric, republished, summed)
	require.ErrorIs(t, err, sensor.ErrScopeMismatch)
}

func TestProjector_MissingAndNonNumeric(t *testing.T) {
	t.Parallel()

	store := measure.NewMemoryStore()
	p := sensor.NewProjector(store, metrics.DefaultRegistry(), nil, "c")
	attrs := report.AttributeMap{"Flag": measure.Bool(true)}

	_, ok := p.Project(attrs, "Missing", metrics.JavaFiles)
	assert.False(t, ok)

	_, ok = p.Project(attrs, "Flag", metrics.JavaFiles)
	assert.False(t, ok)

	assert.Zero(t, store.Count())
	assert.Zero(t, p.Published())
}

func TestProjector_CoercesToDefinitionType(t *testing.T) {
	t.Parallel()

	store := measure.NewMemoryStore()
	p := sensor.NewProjector(store, metrics.DefaultRegistry(), nil, "c")
	attrs := report.AttributeMap{
		metrics.AttrJavaFiles: measure.Float(12.0),
		metrics.AttrACD:       measure.Int(3),
	}

	n, ok := p.Project(attrs, metrics.AttrJavaFiles, metrics.JavaFiles)
	require.True(t, ok)
	assert.InDelta(t, 12.0, n, 1e-9)

	_, ok = p.Project(attrs, metrics.AttrACD, metrics.ACD)
	require.True(t, ok)

	files, _ := store.Get("c", metrics.JavaFiles)
	assert.Equal(t, measure.Int(12), files)

	acd, _ := store.Get("c", metrics.ACD)
	assert.Equal(t, measure.Float(3), acd)

	p.Publish(metrics.BiggestCycleGroup, 4)

	biggest, _ := store.Get("c", metrics.BiggestCycleGroup)
	assert.Equal(t, measure.Int(4), biggest)
	assert.Equal(t, 3, p.Published())
}

func TestProjector_SkipsOutOfRangeIntegers(t *testing.T) {
	t.Parallel()

	store := measure.NewMemoryStore()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	p := sensor.NewProjector(store, metrics.DefaultRegistry(), logger, "c")
	attrs := report.AttributeMap{
		metrics.AttrJavaFiles:        measure.Float(1e20),
		metrics.AttrTypeDependencies: measure.Float(-1e20),
	}

	_, ok := p.Project(attrs, metrics.AttrJavaFiles, metrics.JavaFiles)
	assert.True(t, ok)

	p.Project(attrs, metrics.AttrTypeDependencies, metrics.TypeDependencies)
	p.Publish(metrics.BiggestCycleGroup, math.Inf(1))
	p.Publish(metrics.Instructions, math.NaN())

	assert.Zero(t, store.Count())
	assert.Zero(t, p.Published())
	require.NoError(t, p.Err())
	assert.Contains(t, logs.String(), "value out of range for integer metric")
	assert.Contains(t, logs.String(), "metric="+metrics.JavaFiles)

	p.Publish(metrics.Instructions, 9.6)

	instructions, _ := store.Get("c", metrics.Instructions)
	assert.Equal(t, measure.Int(10), instructions)
}

func TestProjector_KeepsFirstError(t *testing.T) {
	t.Parallel()

	store := measure.NewMemoryStore()
	p := sensor.NewProjector(store, metrics.DefaultRegistry(), nil, "c")

	p.PublishValue(metrics.JavaFiles, measure.Int(1))
	p.PublishValue(metrics.JavaFiles, measure.Int(2))
	p.PublishValue(metrics.JavaFiles, measure.Int(3))

	require.ErrorIs(t, p.Err(), measure.ErrAlreadyPublished)
	assert.Contains(t, p.Err().Error(), "got 2")
	assert.Equal(t, 1, p.Published())
}

func TestSystemMetrics_Accumulate(t *testing.T) {
	t.Parallel()

	acc := sensor.NewSystemMetrics()
	attrs := report.AttributeMap{metrics.AttrAllWarnings: measure.Int(9), metrics.AttrTasks: measure.Int(3)}

	_, ok := acc.Accumulate(attrs, "Missing")
	assert.False(t, ok)

	v, ok := acc.Accumulate(attrs, metrics.AttrTasks)
	require.True(t, ok)
	assert.Equal(t, measure.Int(3), v)

	_, ok = acc.Accumulate(attrs, metrics.AttrAllWarnings)
	require.True(t, ok)

	_, ok = acc.Accumulate(attrs, metrics.AttrTasks)
	require.True(t, ok)

	assert.Equal(t, []string{metrics.AttrTasks, metrics.AttrAllWarnings}, acc.Names())
	assert.Equal(t, 2, acc.Len())
}
