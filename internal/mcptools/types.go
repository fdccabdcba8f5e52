package mcptools

import (
	"time"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
)

// --- MCP tool types ---
// These tools let an MCP client drive the orchestrator: start a run and wait
// for it, inspect the current run, reset it, and probe the backend.

// AnalyzeInput is the input for the analyze MCP tool.
type AnalyzeInput struct {
	Query      string `json:"query" jsonschema:"the question to research and analyze"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"number of insights to request (default 5)"`
}

// AnalyzeOutput is the result of the analyze MCP tool.
type AnalyzeOutput struct {
	Run RunView `json:"run"`
}

// GetRunInput is the input for the get_run MCP tool.
type GetRunInput struct{}

// GetRunOutput is the result of the get_run MCP tool.
type GetRunOutput struct {
	Run RunView `json:"run"`
}

// ResetRunInput is the input for the reset_run MCP tool.
type ResetRunInput struct{}

// ResetRunOutput is the result of the reset_run MCP tool.
type ResetRunOutput struct {
	Status string `json:"status"`
}

// CheckConnectivityInput is the input for the check_connectivity MCP tool.
type CheckConnectivityInput struct{}

// CheckConnectivityOutput is the result of the check_connectivity MCP tool.
type CheckConnectivityOutput struct {
	Reachable bool `json:"reachable"`
}

// RunView is a flattened run snapshot for tool output.
type RunView struct {
	ID           string                     `json:"id,omitempty"`
	Query        string                     `json:"query,omitempty"`
	MaxResults   int                        `json:"maxResults,omitempty"`
	Status       string                     `json:"status"`
	ActiveStage  string                     `json:"activeStage,omitempty"`
	StageHistory []string                   `json:"stageHistory"`
	Trace        []TraceStep                `json:"trace"`
	Result       *orchestrator.ResultBundle `json:"result,omitempty"`
	Error        *orchestrator.RunError     `json:"error,omitempty"`
}

// TraceStep is one trace entry in tool output.
type TraceStep struct {
	Stage     string `json:"stage"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func viewOf(run orchestrator.Run) RunView {
	v := RunView{
		ID:           run.ID,
		Query:        run.Query,
		MaxResults:   run.Params.MaxResults,
		Status:       string(run.Status),
		ActiveStage:  run.ActiveStage,
		StageHistory: append([]string{}, run.StageHistory...),
		Trace:        make([]TraceStep, len(run.Trace)),
		Result:       run.Result,
		Error:        run.Error,
	}
	for i, e := range run.Trace {
		v.Trace[i] = TraceStep{
			Stage:     e.Stage,
			Status:    e.State.Status,
			Error:     e.State.Error,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		}
	}
	return v
}
