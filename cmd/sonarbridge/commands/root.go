// Package commands implements the sonarbridge CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/internal/config"
	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/version"
)

const (
	levelDebug = "debug"
	levelError = "error"
)

// GlobalOptions are the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// NewRootCommand builds the sonarbridge command tree.
func NewRootCommand() *cobra.Command {
	globals := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sonarbridge",
		Short: "Sonarbridge - Sonargraph measures for Maven-style projects",
		Long: `Sonarbridge projects Sonargraph architecture reports onto per-module and
aggregated measures.

Commands:
  analyze   Project a report onto the component tree and render the measures
  diff      Compare two measure snapshots
  history   Inspect recorded analysis runs
  validate  Check a project descriptor
  mcp       Serve the measures to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "config file (default: ./.sonarbridge.yaml or ~/.sonarbridge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(NewAnalyzeCommand(globals))
	rootCmd.AddCommand(NewDiffCommand(globals))
	rootCmd.AddCommand(NewHistoryCommand(globals))
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewMCPCommand(globals))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// loadConfig reads the configuration and applies the verbosity flags.
func (g *GlobalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	switch {
	case g.Quiet:
		cfg.Logging.Level = levelError
	case g.Verbose:
		cfg.Logging.Level = levelDebug
	}

	return cfg, nil
}

// initCLIObservability starts the CLI providers with logs written to logOut.
func initCLIObservability(cfg *config.Config, logOut io.Writer) (observability.Providers, error) {
	providers, err := observability.InitWithWriter(cfg.Observability(observability.ModeCLI, version.Version), logOut)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func shutdown(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
