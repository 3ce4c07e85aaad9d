package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameMeasures = "sonargraph_measures"
	ToolNameHistory  = "sonargraph_history"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyProjectDir indicates the project_dir parameter is empty.
	ErrEmptyProjectDir = errors.New("project_dir parameter is required and must not be empty")
	// ErrProjectDirNotAbsolute indicates a relative project_dir.
	ErrProjectDirNotAbsolute = errors.New("project_dir must be an absolute path")
	// ErrProjectNotFound indicates the project directory does not exist.
	ErrProjectNotFound = errors.New("project directory does not exist")
	// ErrUnknownComponent indicates a component filter matching nothing.
	ErrUnknownComponent = errors.New("component not found in project")
	// ErrHistoryDisabled indicates no history database exists yet.
	ErrHistoryDisabled = errors.New("no history database found; run analyze with --history first")
	// ErrTrendNeedsMetric indicates a trend query without both component and metric.
	ErrTrendNeedsMetric = errors.New("component and metric must be given together")
)

// MeasuresInput is the input schema for the sonargraph_measures tool.
type MeasuresInput struct {
	ProjectDir        string `json:"project_dir"                    jsonschema:"absolute path of the analysed project"`
	Descriptor        string `json:"descriptor,omitempty"           jsonschema:"project descriptor path (default: <project_dir>/sonarbridge-project.yaml)"`
	ReportPath        string `json:"report_path,omitempty"          jsonschema:"Sonargraph report, absolute or relative to the project directory"`
	CostPerIndexPoint string `json:"cost_per_index_point,omitempty" jsonschema:"cost of one structural debt index point"`
	Component         string `json:"component,omitempty"            jsonschema:"only return the measures of this component key"`
	IncludeHidden     bool   `json:"include_hidden,omitempty"       jsonschema:"include internal bookkeeping measures"`
}

// HistoryInput is the input schema for the sonargraph_history tool.
type HistoryInput struct {
	RunID     int64  `json:"run_id,omitempty"    jsonschema:"return the snapshot recorded as this run"`
	Component string `json:"component,omitempty" jsonschema:"component key for a metric trend"`
	Metric    string `json:"metric,omitempty"    jsonschema:"metric key for a metric trend"`
	Limit     int    `json:"limit,omitempty"     jsonschema:"maximum number of runs to list (default: 20)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

const (
	measuresToolDescription = "Project the Sonargraph report of a Maven-style project onto per-module " +
		"and aggregated measures (structure, cycles, architecture, structural debt, warnings). " +
		"Accepts an absolute project directory and optional report settings."

	historyToolDescription = "Read recorded analysis runs: list recent runs, show one run's measures, " +
		"or the trend of one metric on one component."
)
