package report_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const (
	testProjectDir = "/work/shop"
	fixturePath    = "testdata/sonargraph-report.xml"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	return data
}

func fixtureFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	path := filepath.Join(testProjectDir, report.DefaultReportPath)
	require.NoError(t, afero.WriteFile(fs, path, loadFixture(t), 0o644))

	return fs
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDecode_ISO88591Report(t *testing.T) {
	t.Parallel()

	rep, err := report.Decode(bytes.NewReader(loadFixture(t)), discardLogger())
	require.NoError(t, err)

	base, err := rep.BasePath()
	require.NoError(t, err)
	assert.Equal(t, testProjectDir, base)

	system := rep.SystemAttributes()
	tasks, ok := system.Get("Tasks")
	require.True(t, ok)
	assert.True(t, measure.Int(3).Equal(tasks))

	core := rep.FindBuildUnit("Core")
	require.NotNil(t, core)

	attrs := core.Attributes()
	files, ok := attrs.Number("JavaFiles")
	require.True(t, ok)
	assert.InDelta(t, 1204.0, files, 0)

	acd, _ := attrs.Get("ACD")
	assert.Equal(t, measure.KindFloat, acd.Kind())

	assert.False(t, attrs.Has("NCCD"), "unparsable value is skipped")
	assert.Len(t, attrs.Names(), 6)
}

func TestDecode_BuildUnitSections(t *testing.T) {
	t.Parallel()

	rep, err := report.Decode(bytes.NewReader(loadFixture(t)), discardLogger())
	require.NoError(t, err)

	core := rep.FindBuildUnit("Core")
	web := rep.FindBuildUnit("Web")
	require.NotNil(t, web)

	assert.Len(t, rep.CycleGroupsOf(core, report.ElementScopePackage), 1)
	assert.Len(t, rep.ViolationsOf(core), 1)
	assert.Len(t, rep.TasksOf(core), 1)
	assert.Empty(t, rep.WarningsOf(core))
	assert.Len(t, rep.WarningsOf(web), 1)
	assert.Empty(t, web.Attributes())
	assert.Nil(t, rep.FindBuildUnit("Missing"))
}

func TestDecode_MissingBasePath(t *testing.T) {
	t.Parallel()

	rep, err := report.Decode(strings.NewReader(`<report><general/></report>`), discardLogger())
	require.NoError(t, err)

	_, err = rep.BasePath()
	require.ErrorIs(t, err, report.ErrNoBasePath)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := report.Decode(strings.NewReader(`<report>`), discardLogger())
	assert.Error(t, err)
}

func TestSettings_Path(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(testProjectDir, report.DefaultReportPath),
		report.Settings{ProjectDir: testProjectDir}.Path())
	assert.Equal(t, "/abs/report.xml", report.Settings{ProjectDir: testProjectDir, ReportPath: "/abs//report.xml"}.Path())
	assert.Equal(t, filepath.Join(testProjectDir, "out/r.xml"),
		report.Settings{ProjectDir: testProjectDir, ReportPath: "out/r.xml"}.Path())
}

func TestAccessor_HasAndReadReport(t *testing.T) {
	t.Parallel()

	fs := fixtureFs(t)
	settings := report.Settings{ProjectDir: testProjectDir}
	accessor := report.NewAccessor(discardLogger())

	require.True(t, accessor.HasReport(fs, settings))
	assert.False(t, accessor.HasReport(fs, report.Settings{ProjectDir: "/elsewhere"}))

	comp := &component.Component{Key: "org.example:shop-core", Name: "shop-core", BuildUnit: "Core"}
	accessor.ReadReport(comp, fs, settings)
	require.NotNil(t, accessor.Report())

	first := accessor.Report()
	accessor.ReadReport(comp, fs, settings)
	assert.Same(t, first, accessor.Report(), "report is decoded once per path")
}

func TestAccessor_ReadReportFailureLeavesNoReport(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	settings := report.Settings{ProjectDir: testProjectDir}
	require.NoError(t, afero.WriteFile(fs, settings.Path(), []byte("<report"), 0o644))

	accessor := report.NewAccessor(discardLogger())
	accessor.ReadReport(&component.Component{Key: "k"}, fs, settings)

	assert.Nil(t, accessor.Report())
	assert.Nil(t, accessor.BuildUnit(&component.Component{Key: "k", BuildUnit: "Core"}))
}

func TestAccessor_BuildUnitMatching(t *testing.T) {
	t.Parallel()

	fs := fixtureFs(t)
	settings := report.Settings{ProjectDir: testProjectDir}
	accessor := report.NewAccessor(discardLogger())
	accessor.ReadReport(&component.Component{Key: "shop"}, fs, settings)

	tests := []struct {
		name string
		comp *component.Component
		want string
	}{
		{"explicit", &component.Component{Key: "x:y", BuildUnit: "Core", Qualifier: component.QualifierModule}, "Core"},
		{"by name", &component.Component{Key: "x:y", Name: "Web", Qualifier: component.QualifierModule}, "Web"},
		{"by artifact", &component.Component{Key: "org.example:Core", Qualifier: component.QualifierModule}, "Core"},
		{"none", &component.Component{Key: "x:y", Name: "z", Qualifier: component.QualifierModule}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bu := accessor.BuildUnit(tt.comp)
			if tt.want == "" {
				assert.Nil(t, bu)

				return
			}

			require.NotNil(t, bu)
			assert.Equal(t, tt.want, bu.Name)
		})
	}
}

func TestAccessor_StandaloneSingleBuildUnit(t *testing.T) {
	t.Parallel()

	const single = `<report><general basePath="/p"/><buildUnits><buildUnit name="Only"/></buildUnits></report>`

	fs := afero.NewMemMapFs()
	settings := report.Settings{ProjectDir: "/p"}
	require.NoError(t, afero.WriteFile(fs, settings.Path(), []byte(single), 0o644))

	accessor := report.NewAccessor(discardLogger())
	root := component.Standalone("/p/solo")
	accessor.ReadReport(root, fs, settings)

	bu := accessor.BuildUnit(root)
	require.NotNil(t, bu)
	assert.Equal(t, "Only", bu.Name)
}
