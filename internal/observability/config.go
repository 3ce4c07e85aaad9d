// Package observability provides OpenTelemetry tracing and metrics plus
// structured logging for the sonarbridge CLI and MCP server.
package observability

import (
	"log/slog"
	"strings"
	"time"
)

// AppMode names the surface a process serves; it tags logs and the resource.
type AppMode string

// Surfaces.
const (
	ModeCLI AppMode = "cli"
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName     = "sonarbridge"
	defaultShutdownTimeout = 5 * time.Second
)

// Config selects where telemetry goes and how logs look.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Mode           AppMode

	Export ExportConfig
	Log    LogConfig

	// ShutdownTimeout bounds the final flush.
	ShutdownTimeout time.Duration
}

// ExportConfig addresses the OTLP gRPC collector. A zero Endpoint keeps
// traces and metrics in-process.
type ExportConfig struct {
	Endpoint string
	Headers  map[string]string
	Insecure bool

	// SampleRatio applies to root spans; 0 samples all of them.
	SampleRatio float64
}

// LogConfig sets the slog level and encoding.
type LogConfig struct {
	Level slog.Level
	JSON  bool
}

// DefaultConfig returns the CLI configuration with export disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		Log:             LogConfig{Level: slog.LevelInfo},
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// enabled reports whether telemetry leaves the process.
func (e ExportConfig) enabled() bool { return e.Endpoint != "" }

// ParseOTLPHeaders reads "key=value,key=value" collector headers. Pairs
// without "=" are dropped; nil means no usable pair.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}
