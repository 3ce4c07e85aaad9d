package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/sonarbridge/internal/history"
)

const defaultHistoryLimit = 20

// handleHistory processes sonargraph_history tool calls.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input HistoryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if (input.Component == "") != (input.Metric == "") {
		return errorResult(ErrTrendNeedsMetric)
	}

	path := s.deps.Config.History.Database

	exists, err := afero.Exists(s.deps.Fs, path)
	if err != nil {
		return errorResult(fmt.Errorf("stat history database: %w", err))
	}

	if !exists {
		return errorResult(fmt.Errorf("%w: %s", ErrHistoryDisabled, path))
	}

	store, err := history.Open(ctx, path)
	if err != nil {
		return errorResult(err)
	}
	defer store.Close()

	switch {
	case input.RunID > 0:
		snap, showErr := store.Show(ctx, input.RunID)
		if showErr != nil {
			return errorResult(showErr)
		}

		return jsonResult(snap)
	case input.Metric != "":
		points, trendErr := store.Trend(ctx, input.Component, input.Metric)
		if trendErr != nil {
			return errorResult(trendErr)
		}

		return jsonResult(points)
	default:
		limit := input.Limit
		if limit <= 0 {
			limit = defaultHistoryLimit
		}

		runs, listErr := store.List(ctx, limit)
		if listErr != nil {
			return errorResult(listErr)
		}

		return jsonResult(runs)
	}
}
