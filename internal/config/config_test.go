package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sonarbridge/internal/config"
	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const testConfigYAML = `
sonargraph:
  report_path: build/report.xml
  cost_per_index_point: "12.5"
rules:
  active: [TASK, CYCLE_GROUP]
output:
  format: json
snapshot:
  codec: lz4
logging:
  level: debug
  json: true
telemetry:
  otlp_headers: "authorization=token"
  sample_ratio: 0.5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sonarbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, report.DefaultReportPath, cfg.Sonargraph.ReportPath)
	assert.Equal(t, metrics.RuleKeys(), cfg.Rules.Active)
	assert.Empty(t, cfg.Sonargraph.CostPerIndexPoint)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "build/report.xml", cfg.Sonargraph.ReportPath)
	assert.Equal(t, "12.5", cfg.Sonargraph.CostPerIndexPoint)
	assert.Equal(t, config.DefaultCurrency, cfg.Sonargraph.Currency)
	assert.Equal(t, []string{metrics.RuleTask, metrics.RuleCycleGroup}, cfg.Rules.Active)
	assert.Equal(t, render.FormatJSON, cfg.Output.Format)
	assert.Equal(t, "lz4", cfg.Snapshot.Codec)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, config.DefaultHistoryDatabase, cfg.History.Database)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SONARBRIDGE_SONARGRAPH_COST_PER_INDEX_POINT", "abc")
	t.Setenv("SONARBRIDGE_OUTPUT_FORMAT", "yaml")

	cfg, err := config.LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Sonargraph.CostPerIndexPoint)
	assert.Equal(t, render.FormatYAML, cfg.Output.Format)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "output:\n  format: pdf\n"))
	require.ErrorIs(t, err, config.ErrUnknownFormat)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"codec", func(c *config.Config) { c.Snapshot.Codec = "zip" }, config.ErrUnknownCodec},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, config.ErrInvalidLevel},
		{"ratio", func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, config.ErrInvalidRatio},
		{"rule", func(c *config.Config) { c.Rules.Active = []string{"NOPE"} }, config.ErrUnknownRule},
		{"report path", func(c *config.Config) { c.Sonargraph.ReportPath = "" }, config.ErrEmptyReportPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_AcceptsEveryRendererFormat(t *testing.T) {
	t.Parallel()

	for _, format := range render.Formats() {
		cfg := config.Default()
		cfg.Output.Format = format
		require.NoError(t, cfg.Validate(), format)

		_, err := render.New(format, render.Options{})
		require.NoError(t, err, format)
	}
}

func TestValidate_EmptyRulesAllowed(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Rules.Active = nil
	require.NoError(t, cfg.Validate())
}

func TestObservability_Mapping(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	obs := cfg.Observability(observability.ModeMCP, "1.2.3")
	assert.Equal(t, observability.ModeMCP, obs.Mode)
	assert.Equal(t, "1.2.3", obs.ServiceVersion)
	assert.True(t, obs.Log.JSON)
	assert.Equal(t, slog.LevelDebug, obs.Log.Level)
	assert.Equal(t, map[string]string{"authorization": "token"}, obs.Export.Headers)
	assert.InDelta(t, 0.5, obs.Export.SampleRatio, 1e-9)
}
