package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/sonarbridge/internal/analysis"
	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// MeasuresOutput is the result of the sonargraph_measures tool.
type MeasuresOutput struct {
	Snapshot *measure.Snapshot `json:"snapshot"`
	// Eligible is false when parents were not computed.
	Eligible bool             `json:"eligible"`
	Analyzed int64            `json:"analyzed"`
	Skipped  map[string]int64 `json:"skipped,omitempty"`
}

// handleMeasures processes sonargraph_measures tool calls.
func (s *Server) handleMeasures(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input MeasuresInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := s.validateProjectDir(input.ProjectDir); err != nil {
		return errorResult(err)
	}

	descriptor := input.Descriptor
	if descriptor == "" {
		descriptor = filepath.Join(input.ProjectDir, component.DescriptorFile)
	}

	tree, err := component.Load(s.deps.Fs, descriptor, input.ProjectDir)
	if err != nil {
		return errorResult(fmt.Errorf("load project: %w", err))
	}

	cfg := s.deps.Config

	settings := report.Settings{ProjectDir: input.ProjectDir, ReportPath: cfg.Sonargraph.ReportPath}
	if input.ReportPath != "" {
		settings.ReportPath = input.ReportPath
	}

	cost := cfg.Sonargraph.CostPerIndexPoint
	if input.CostPerIndexPoint != "" {
		cost = input.CostPerIndexPoint
	}

	res, err := analysis.Run(ctx, tree, analysis.Deps{
		Logger:            s.deps.Logger,
		Fs:                s.deps.Fs,
		Settings:          settings,
		Tracer:            s.deps.Tracer,
		Metrics:           s.deps.Analysis,
		CostPerIndexPoint: cost,
		ActiveRules:       cfg.Rules.Active,
	})
	if err != nil {
		return errorResult(err)
	}

	snap := render.Visible(res.Snapshot, render.Options{ShowHidden: input.IncludeHidden})

	if input.Component != "" {
		cm, ok := snap.Component(input.Component)
		if !ok {
			return errorResult(fmt.Errorf("%w: %s", ErrUnknownComponent, input.Component))
		}

		snap.Components = []measure.ComponentMeasures{cm}
	}

	return jsonResult(MeasuresOutput{
		Snapshot: snap,
		Eligible: res.Eligible,
		Analyzed: res.Stats.Analyzed,
		Skipped:  res.Stats.Skipped,
	})
}

func (s *Server) validateProjectDir(dir string) error {
	if dir == "" {
		return ErrEmptyProjectDir
	}

	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%w: %s", ErrProjectDirNotAbsolute, dir)
	}

	exists, err := afero.DirExists(s.deps.Fs, dir)
	if err != nil || !exists {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, dir)
	}

	return nil
}
