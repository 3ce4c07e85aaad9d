package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const (
	rootKey = "org.example:shop"
	coreKey = "org.example:shop-core"

	descriptorYAML = `key: org.example:shop
name: shop
modules:
  - key: org.example:shop-core
    name: shop-core
    build_unit: Core
  - key: org.example:shop-lib
    name: shop-lib
    build_unit: Lib
  - key: org.example:shop-web
    name: shop-web
    build_unit: Web
`
)

// workspace holds a project directory and a config file pointing the
// history database into the test's temp dir.
type workspace struct {
	dir     string
	config  string
	history string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "shop")

	data, err := os.ReadFile("testdata/report.xml")
	require.NoError(t, err)

	reportPath := filepath.Join(dir, report.DefaultReportPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(reportPath), 0o755))
	require.NoError(t, os.WriteFile(reportPath, data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, component.DescriptorFile), []byte(descriptorYAML), 0o644))

	ws := workspace{
		dir:     dir,
		config:  filepath.Join(root, "sonarbridge.yaml"),
		history: filepath.Join(root, "state", "history.db"),
	}

	cfg := "output:\n  no_color: true\nhistory:\n  database: " + ws.history + "\n"
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0o644))

	return ws
}

func (ws workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", ws.config, "--quiet"}, args...))

	err := cmd.Execute()

	return stdout.String(), err
}

func TestRootCommand_HelpAndSubcommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		wantOut string
		wantErr bool
	}{
		{args: []string{"--help"}, wantOut: "Sonarbridge projects Sonargraph"},
		{args: []string{"analyze", "--help"}, wantOut: "--cost-per-index-point"},
		{args: []string{"diff", "--help"}, wantOut: "analyze --snapshot"},
		{args: []string{"history", "--help"}, wantOut: "trend"},
		{args: []string{"mcp", "--help"}, wantOut: "--metrics-addr"},
		{args: []string{"unknown"}, wantErr: true},
	}

	for _, tt := range tests {
		cmd := NewRootCommand()

		var buf bytes.Buffer

		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs(tt.args)

		err := cmd.Execute()
		if tt.wantErr {
			require.Error(t, err, tt.args)

			continue
		}

		require.NoError(t, err, tt.args)
		assert.Contains(t, buf.String(), tt.wantOut, tt.args)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCommand()

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "sonarbridge ")
	assert.Contains(t, buf.String(), "commit: ")
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewMCPCommand(&GlobalOptions{})
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	debug := cmd.Flags().Lookup("debug")
	require.NotNil(t, debug)
	assert.Equal(t, "false", debug.DefValue)

	addr := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, addr)
	assert.Empty(t, addr.DefValue)
}

func TestAnalyze_JSON(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	out, err := ws.run(t, "analyze", ws.dir, "--format", "json")
	require.NoError(t, err)

	var snap measure.Snapshot

	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Components, 4)

	root, ok := snap.Component(rootKey)
	require.True(t, ok)

	javaFiles, ok := root.Lookup(metrics.JavaFiles)
	require.True(t, ok)
	assert.True(t, javaFiles.Equal(measure.Int(150)))

	_, ok = root.Lookup(metrics.RootProjectToBeProcessed)
	assert.False(t, ok)
}

func TestAnalyze_TextToFile(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	output := filepath.Join(t.TempDir(), "measures.txt")

	out, err := ws.run(t, "analyze", ws.dir, "--output", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shop-core")
	assert.Contains(t, string(data), "165 USD")
	assert.NotContains(t, string(data), "\x1b[")
}

func TestAnalyze_StandaloneWithoutDescriptor(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	require.NoError(t, os.Remove(filepath.Join(ws.dir, component.DescriptorFile)))

	out, err := ws.run(t, "analyze", ws.dir, "--format", "json")
	require.NoError(t, err)

	var snap measure.Snapshot

	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Components, 1)
	assert.Equal(t, "shop", snap.Components[0].Key)
}

func TestAnalyze_UnknownFormat(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, err := ws.run(t, "analyze", ws.dir, "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestAnalyze_SnapshotDiffAndHistory(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	snapshots := t.TempDir()
	before := filepath.Join(snapshots, "before.json")
	after := filepath.Join(snapshots, "after.gob")

	_, err := ws.run(t, "analyze", ws.dir, "--snapshot", before, "--history")
	require.NoError(t, err)

	_, err = ws.run(t, "analyze", ws.dir, "--snapshot", after, "--history", "--cost-per-index-point", "2")
	require.NoError(t, err)

	out, err := ws.run(t, "diff", before, after, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "- "+rootKey+" "+metrics.StructuralDebtCost+" = 165 USD")
	assert.Contains(t, out, "+ "+rootKey+" "+metrics.StructuralDebtCost+" = 30 USD")

	_, err = ws.run(t, "diff", before, after, "--exit-code")
	require.ErrorIs(t, err, ErrSnapshotsDiffer)

	_, err = ws.run(t, "diff", before, before, "--exit-code")
	require.NoError(t, err)

	out, err = ws.run(t, "history", "list", "--json")
	require.NoError(t, err)

	var runs []struct {
		ID      int64  `json:"id"`
		Project string `json:"project"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, rootKey, runs[0].Project)
	assert.Greater(t, runs[0].ID, runs[1].ID)

	out, err = ws.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, rootKey)

	out, err = ws.run(t, "history", "show", "1", "--format", "json")
	require.NoError(t, err)

	var shown measure.Snapshot

	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	_, ok := shown.Component(coreKey)
	assert.True(t, ok)

	out, err = ws.run(t, "history", "trend", rootKey, metrics.StructuralDebtCost)
	require.NoError(t, err)
	assert.Contains(t, out, "165 USD")
	assert.Contains(t, out, "30 USD")
}

func TestHistory_Errors(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)

	_, err := ws.run(t, "history", "list")
	require.ErrorIs(t, err, ErrNoHistory)

	_, err = ws.run(t, "history", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")

	_, err = ws.run(t, "analyze", ws.dir, "--history")
	require.NoError(t, err)

	_, err = ws.run(t, "history", "show", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantOut string
		wantErr bool
	}{
		{name: "valid", yaml: descriptorYAML, wantOut: "Modules: 3"},
		{name: "missing key", yaml: "name: shop\n", wantOut: "Descriptor validation failed", wantErr: true},
		{name: "unknown field", yaml: "key: a\npackaging: pom\n", wantOut: "packaging", wantErr: true},
		{
			name:    "duplicate key",
			yaml:    "key: a\nmodules:\n  - key: b\n  - key: b\n",
			wantOut: "duplicate component key",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), component.DescriptorFile)
		require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

		cmd := NewValidateCommand()

		var buf bytes.Buffer

		cmd.SetOut(&buf)
		cmd.SetArgs([]string{path, "--no-color"})

		err := cmd.Execute()
		if tt.wantErr {
			require.ErrorIs(t, err, ErrDescriptorInvalid, tt.name)
		} else {
			require.NoError(t, err, tt.name)
		}

		assert.Contains(t, buf.String(), tt.wantOut, tt.name)
	}
}

func TestSnapshotCodec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		name    string
		wantExt string
		wantErr bool
	}{
		{path: "a.json", name: "gob", wantExt: ".json"},
		{path: "a.gob", name: "json", wantExt: ".gob"},
		{path: "a.gob.lz4", name: "json", wantExt: ".gob.lz4"},
		{path: "a.snap", name: "gob", wantExt: ".gob"},
		{path: "a.snap", name: "zip", wantErr: true},
	}

	for _, tt := range tests {
		codec, err := snapshotCodec(tt.path, tt.name)
		if tt.wantErr {
			require.Error(t, err, tt.path)

			continue
		}

		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.wantExt, codec.Extension(), tt.path)
	}
}
