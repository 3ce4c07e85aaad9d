package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
)

const (
	diffCmdUse   = "diff <old-snapshot> <new-snapshot>"
	diffCmdShort = "Compare two measure snapshots"
	diffArgCount = 2
)

// ErrSnapshotsDiffer is returned by diff --exit-code when the snapshots differ.
var ErrSnapshotsDiffer = errors.New("snapshots differ")

// NewDiffCommand creates the diff subcommand.
func NewDiffCommand(globals *GlobalOptions) *cobra.Command {
	var (
		noColor    bool
		unchanged  bool
		showHidden bool
		exitCode   bool
	)

	fs := afero.NewOsFs()

	cmd := &cobra.Command{
		Use:   diffCmdUse,
		Short: diffCmdShort,
		Long: `Compare two snapshots written by "analyze --snapshot" and print the measures
and issues that were added or removed.`,
		Args: cobra.ExactArgs(diffArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := globals.loadConfig()
			if err != nil {
				return err
			}

			before, err := loadSnapshot(fs, args[0], cfg.Snapshot.Codec)
			if err != nil {
				return err
			}

			after, err := loadSnapshot(fs, args[1], cfg.Snapshot.Codec)
			if err != nil {
				return err
			}

			stats, err := render.Diff(cmd.OutOrStdout(), before, after, render.Options{
				ShowHidden: showHidden,
				NoColor:    noColor || cfg.Output.NoColor,
				Currency:   cfg.Sonargraph.Currency,
			}, unchanged)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d added, %d removed\n", stats.Added, stats.Removed)

			if exitCode && stats.Changed() {
				return ErrSnapshotsDiffer
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&unchanged, "unchanged", false, "also print unchanged lines")
	cmd.Flags().BoolVar(&showHidden, "show-hidden", false, "include internal bookkeeping measures")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "fail when the snapshots differ")

	return cmd
}
