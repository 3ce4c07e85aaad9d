package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/internal/config"
	"github.com/Sumatoshi-tech/sonarbridge/internal/mcp"
	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(globals *GlobalOptions) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes Sonargraph measures as tools that AI agents can discover
and invoke:
  - sonargraph_measures: project a report onto the modules of a project
  - sonargraph_history: list recorded runs, show a run or a metric trend

With --metrics-addr a diagnostics listener serves /healthz and Prometheus
/metrics for the tool calls.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := globals.loadConfig()
			if err != nil {
				return err
			}

			providers, err := initMCPObservability(cfg, debug)
			if err != nil {
				return err
			}
			defer shutdown(providers)

			meter := providers.Meter

			if metricsAddr != "" {
				diag, endpoint, diagErr := startDiagnostics(cobraCmd.Context(), metricsAddr, providers.Logger)
				if diagErr != nil {
					return diagErr
				}

				defer func() {
					closeErr := errors.Join(diag.Close(context.Background()), endpoint.Shutdown(context.Background()))
					if closeErr != nil {
						providers.Logger.Warn("diagnostics shutdown failed", "error", closeErr)
					}
				}()

				meter = endpoint.Meter
			}

			red, err := observability.NewREDMetrics(meter)
			if err != nil {
				return err
			}

			am, err := observability.NewAnalysisMetrics(meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:   providers.Logger,
				Config:   cfg,
				Fs:       afero.NewOsFs(),
				Version:  version.Version,
				Metrics:  red,
				Analysis: am,
				Tracer:   providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /healthz and /metrics on this address (e.g. 127.0.0.1:9464)")

	return cmd
}

// initMCPObservability logs JSON to stderr; stdout carries the protocol.
func initMCPObservability(cfg *config.Config, debug bool) (observability.Providers, error) {
	obsCfg := cfg.Observability(observability.ModeMCP, version.Version)
	obsCfg.Log.JSON = true

	if debug {
		obsCfg.Log.Level = slog.LevelDebug
	}

	return observability.Init(obsCfg)
}

func startDiagnostics(
	ctx context.Context, addr string, logger *slog.Logger,
) (*observability.DiagnosticsServer, *observability.ScrapeEndpoint, error) {
	endpoint, err := observability.NewScrapeEndpoint()
	if err != nil {
		return nil, nil, err
	}

	diag, err := observability.NewDiagnosticsServer(ctx, addr, endpoint.Handler, logger)
	if err != nil {
		return nil, nil, errors.Join(err, endpoint.Shutdown(ctx))
	}

	logger.Info("diagnostics listening", "addr", diag.Addr())

	return diag, endpoint, nil
}
