// Package config loads sonarbridge settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// Sentinel errors returned by Validate.
var (
	ErrUnknownFormat   = errors.New("unknown output format")
	ErrUnknownCodec    = errors.New("unknown snapshot codec")
	ErrInvalidLevel    = errors.New("invalid log level")
	ErrInvalidRatio    = errors.New("sample ratio must be within [0, 1]")
	ErrUnknownRule     = errors.New("unknown rule key")
	ErrEmptyReportPath = errors.New("report path must not be empty")
)

// Config is the top-level configuration struct for sonarbridge.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Sonargraph SonargraphConfig `mapstructure:"sonargraph"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Output     OutputConfig     `mapstructure:"output"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	History    HistoryConfig    `mapstructure:"history"`
}

// SonargraphConfig holds report location and cost settings.
type SonargraphConfig struct {
	ReportPath string `mapstructure:"report_path"`
	// CostPerIndexPoint stays a string; the sensor parses it and falls back
	// to the default on bad input.
	CostPerIndexPoint string `mapstructure:"cost_per_index_point"`
	Currency          string `mapstructure:"currency"`
}

// RulesConfig lists the active rule keys.
type RulesConfig struct {
	Active []string `mapstructure:"active"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// SnapshotConfig selects the snapshot codec.
type SnapshotConfig struct {
	Codec string `mapstructure:"codec"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Database string `mapstructure:"database"`
}

var (
	codecs    = []string{"json", "gob", "lz4"}
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	if c.Sonargraph.ReportPath == "" {
		return ErrEmptyReportPath
	}

	if !slices.Contains(render.Formats(), c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Output.Format)
	}

	if !slices.Contains(codecs, c.Snapshot.Codec) {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, c.Snapshot.Codec)
	}

	if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, c.Logging.Level)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, c.Telemetry.SampleRatio)
	}

	for _, rule := range c.Rules.Active {
		if !metrics.IsRuleKey(rule) {
			return fmt.Errorf("%w: %q", ErrUnknownRule, rule)
		}
	}

	return nil
}

// SlogLevel returns the configured log level, info when unrecognised.
func (c *Config) SlogLevel() slog.Level {
	level, ok := logLevels[strings.ToLower(c.Logging.Level)]
	if !ok {
		return slog.LevelInfo
	}

	return level
}

// Observability maps the logging and telemetry sections onto an
// observability configuration for the given mode and version.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.Mode = mode
	obs.ServiceVersion = version
	obs.Log = observability.LogConfig{Level: c.SlogLevel(), JSON: c.Logging.JSON}
	obs.Export = observability.ExportConfig{
		Endpoint:    c.Telemetry.OTLPEndpoint,
		Headers:     observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders),
		Insecure:    c.Telemetry.OTLPInsecure,
		SampleRatio: c.Telemetry.SampleRatio,
	}

	return obs
}
