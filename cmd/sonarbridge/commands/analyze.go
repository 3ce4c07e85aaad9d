package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/internal/analysis"
	"github.com/Sumatoshi-tech/sonarbridge/internal/config"
	"github.com/Sumatoshi-tech/sonarbridge/internal/history"
	"github.com/Sumatoshi-tech/sonarbridge/internal/observability"
	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/persist"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

const (
	analyzeCmdUse   = "analyze [project-dir]"
	analyzeCmdShort = "Project a Sonargraph report onto the component tree"
	analyzeMaxArgs  = 1
	defaultDir      = "."
)

// AnalyzeCommand holds the flags of the analyze subcommand.
type AnalyzeCommand struct {
	globals *GlobalOptions
	fs      afero.Fs

	descriptor string
	reportPath string
	cost       string
	format     string
	output     string
	snapshot   string
	history    bool
	noColor    bool
	showHidden bool
}

// NewAnalyzeCommand creates the analyze subcommand.
func NewAnalyzeCommand(globals *GlobalOptions) *cobra.Command {
	return newAnalyzeCommandWithFs(globals, afero.NewOsFs())
}

func newAnalyzeCommandWithFs(globals *GlobalOptions, fs afero.Fs) *cobra.Command {
	ac := &AnalyzeCommand{globals: globals, fs: fs}

	cmd := &cobra.Command{
		Use:   analyzeCmdUse,
		Short: analyzeCmdShort,
		Long: `Read the Sonargraph report of a project and compute the measures of every
module and of the aggregating components above them.

The component tree comes from the project descriptor. Without a descriptor the
directory is analysed as a single-module project.`,
		Args: cobra.MaximumNArgs(analyzeMaxArgs),
		RunE: ac.run,
	}

	cmd.Flags().StringVar(&ac.descriptor, "project", "", "project descriptor (default: <project-dir>/"+component.DescriptorFile+")")
	cmd.Flags().StringVar(&ac.reportPath, "report", "", "Sonargraph report, absolute or relative to the project directory")
	cmd.Flags().StringVar(&ac.cost, "cost-per-index-point", "", "cost of one structural debt index point")
	cmd.Flags().StringVarP(&ac.format, "format", "f", "", "output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVarP(&ac.output, "output", "o", "", "write the rendering to this file instead of stdout")
	cmd.Flags().StringVar(&ac.snapshot, "snapshot", "", "save the measure snapshot to this file")
	cmd.Flags().BoolVar(&ac.history, "history", false, "record the run in the history database")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "disable colored text output")
	cmd.Flags().BoolVar(&ac.showHidden, "show-hidden", false, "include internal bookkeeping measures")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := ac.globals.loadConfig()
	if err != nil {
		return err
	}

	ac.applyConfig(cfg)

	providers, err := initCLIObservability(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdown(providers)

	renderer, err := render.New(ac.format, render.Options{
		ShowHidden: ac.showHidden,
		NoColor:    ac.noColor,
		Currency:   cfg.Sonargraph.Currency,
	})
	if err != nil {
		return err
	}

	dir := defaultDir
	if len(args) > 0 {
		dir = args[0]
	}

	res, err := ac.analyze(cmd.Context(), dir, cfg, providers)
	if err != nil {
		return err
	}

	if ac.snapshot != "" {
		err = saveSnapshot(ac.fs, ac.snapshot, cfg.Snapshot.Codec, res.Snapshot)
		if err != nil {
			return err
		}

		providers.Logger.Debug("snapshot saved", "path", ac.snapshot)
	}

	if ac.history {
		err = recordRun(cmd.Context(), cfg.History.Database, res.Snapshot, providers.Logger)
		if err != nil {
			return err
		}
	}

	return ac.write(cmd.OutOrStdout(), renderer, res.Snapshot)
}

// applyConfig fills flags left unset from the configuration.
func (ac *AnalyzeCommand) applyConfig(cfg *config.Config) {
	if ac.reportPath == "" {
		ac.reportPath = cfg.Sonargraph.ReportPath
	}

	if ac.cost == "" {
		ac.cost = cfg.Sonargraph.CostPerIndexPoint
	}

	if ac.format == "" {
		ac.format = cfg.Output.Format
	}

	ac.noColor = ac.noColor || cfg.Output.NoColor
	ac.history = ac.history || cfg.History.Enabled
}

func (ac *AnalyzeCommand) analyze(
	ctx context.Context,
	dir string,
	cfg *config.Config,
	providers observability.Providers,
) (*analysis.Result, error) {
	descriptor := ac.descriptor
	if descriptor == "" {
		descriptor = filepath.Join(dir, component.DescriptorFile)
	}

	tree, err := component.Load(ac.fs, descriptor, dir)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	am, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	res, err := analysis.Run(ctx, tree, analysis.Deps{
		Logger:            providers.Logger,
		Fs:                ac.fs,
		Settings:          report.Settings{ProjectDir: dir, ReportPath: ac.reportPath},
		Tracer:            providers.Tracer,
		Metrics:           am,
		CostPerIndexPoint: ac.cost,
		ActiveRules:       cfg.Rules.Active,
	})
	if err != nil {
		return nil, err
	}

	if !res.Eligible {
		providers.Logger.Warn("aggregated measures not computed", "project", tree.Key, "skipped", res.Stats.Skipped)
	}

	return res, nil
}

func (ac *AnalyzeCommand) write(stdout io.Writer, renderer render.Renderer, snap *measure.Snapshot) (err error) {
	if ac.output == "" {
		return renderer.Render(stdout, snap)
	}

	file, err := ac.fs.Create(ac.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return renderer.Render(file, snap)
}

// snapshotCodec picks the codec from the file extension, falling back to
// the configured codec name.
func snapshotCodec(path, name string) (persist.Codec, error) {
	for _, ext := range []string{".gob.lz4", ".json.lz4", ".gob", ".json"} {
		if strings.HasSuffix(path, ext) {
			return persist.ForPath(path), nil
		}
	}

	return persist.ByName(name)
}

func saveSnapshot(fs afero.Fs, path, codecName string, snap *measure.Snapshot) error {
	codec, err := snapshotCodec(path, codecName)
	if err != nil {
		return err
	}

	return persist.SaveState(fs, path, codec, snap)
}

func loadSnapshot(fs afero.Fs, path, codecName string) (*measure.Snapshot, error) {
	codec, err := snapshotCodec(path, codecName)
	if err != nil {
		return nil, err
	}

	var snap measure.Snapshot

	err = persist.LoadState(fs, path, codec, &snap)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}

	return &snap, nil
}

func recordRun(ctx context.Context, database string, snap *measure.Snapshot, logger *slog.Logger) error {
	store, err := history.Open(ctx, database)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, snap)
	if err != nil {
		return err
	}

	logger.Info("run recorded", "run_id", id, "database", database)

	return nil
}
