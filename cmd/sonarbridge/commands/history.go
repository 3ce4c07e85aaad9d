package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/internal/config"
	"github.com/Sumatoshi-tech/sonarbridge/internal/history"
	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

const (
	historyListLimit  = 20
	historyTimeLayout = "2006-01-02 15:04:05"
	showArgCount      = 1
	trendArgCount     = 2
)

// ErrNoHistory is returned when the history database has not been created.
var ErrNoHistory = errors.New("no history database found; run analyze with --history first")

// NewHistoryCommand creates the history subcommand group.
func NewHistoryCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analysis runs",
		Long:  "Read the runs recorded by \"analyze --history\" from the history database.",
	}

	cmd.AddCommand(newHistoryListCommand(globals))
	cmd.AddCommand(newHistoryShowCommand(globals))
	cmd.AddCommand(newHistoryTrendCommand(globals))

	return cmd
}

func newHistoryListCommand(globals *GlobalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(cmd.Context(), globals, func(_ *config.Config, store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), runs)
				}

				writeRuns(cmd.OutOrStdout(), runs)

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", historyListLimit, "maximum number of runs (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func newHistoryShowCommand(globals *GlobalOptions) *cobra.Command {
	var (
		format     string
		showHidden bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the measures recorded by one run",
		Args:  cobra.ExactArgs(showArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			return withHistory(cmd.Context(), globals, func(cfg *config.Config, store *history.Store) error {
				snap, showErr := store.Show(cmd.Context(), id)
				if showErr != nil {
					return showErr
				}

				renderer, renderErr := render.New(format, render.Options{
					ShowHidden: showHidden,
					NoColor:    noColor || cfg.Output.NoColor,
					Currency:   cfg.Sonargraph.Currency,
				})
				if renderErr != nil {
					return renderErr
				}

				return renderer.Render(cmd.OutOrStdout(), snap)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format")
	cmd.Flags().BoolVar(&showHidden, "show-hidden", false, "include internal bookkeeping measures")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func newHistoryTrendCommand(globals *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trend <component> <metric>",
		Short: "Show the recorded values of one metric on one component",
		Args:  cobra.ExactArgs(trendArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), globals, func(cfg *config.Config, store *history.Store) error {
				points, err := store.Trend(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), points)
				}

				writeTrend(cmd.OutOrStdout(), args[1], points, cfg.Sonargraph.Currency)

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// withHistory opens the configured database for fn. A missing database is
// reported instead of created.
func withHistory(ctx context.Context, globals *GlobalOptions, fn func(*config.Config, *history.Store) error) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}

	path := cfg.History.Database

	exists, err := afero.Exists(afero.NewOsFs(), path)
	if err != nil {
		return fmt.Errorf("stat history database: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrNoHistory, path)
	}

	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(cfg, store)
}

func writeRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")

		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Project", "Created", "Components", "Measures", "Issues"})

	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.ID,
			run.Project,
			run.CreatedAt.Local().Format(historyTimeLayout),
			run.Components,
			humanize.Comma(int64(run.Measures)),
			humanize.Comma(int64(run.Issues)),
		})
	}

	fmt.Fprintln(w, tw.Render())
}

func writeTrend(w io.Writer, metric string, points []history.TrendPoint, currency string) {
	if len(points) == 0 {
		fmt.Fprintln(w, "no values recorded")

		return
	}

	reg := metrics.DefaultRegistry()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Created", metric})

	for _, p := range points {
		tw.AppendRow(table.Row{
			p.RunID,
			p.CreatedAt.Local().Format(historyTimeLayout),
			render.FormatValue(reg, metric, p.Value, currency),
		})
	}

	fmt.Fprintln(w, tw.Render())
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
