package mcptools

import (
	"context"
	"fmt"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// InsightService handles MCP tool calls. It wraps an Orchestrator and the
// connectivity gate the orchestrator starts runs behind.
type InsightService struct {
	orch              orchestrator.Orchestrator
	gate              orchestrator.Gate
	defaultMaxResults int
}

// NewInsightService creates an InsightService. gate may be nil.
func NewInsightService(orch orchestrator.Orchestrator, gate orchestrator.Gate, defaultMaxResults int) *InsightService {
	if defaultMaxResults <= 0 {
		defaultMaxResults = orchestrator.DefaultMaxResults
	}
	return &InsightService{
		orch:              orch,
		gate:              gate,
		defaultMaxResults: defaultMaxResults,
	}
}

// Analyze starts a run and waits for it to finish. Rejected starts are tool
// errors; a run that starts and then fails is reported in the output.
func (s *InsightService) Analyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	maxResults := input.MaxResults
	if maxResults == 0 {
		maxResults = s.defaultMaxResults
	}

	x, err := s.orch.Start(ctx, input.Query, orchestrator.Params{MaxResults: maxResults})
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analyze rejected: %w", err)
	}

	run, err := x.Wait(ctx)
	if err != nil && !run.Status.IsTerminal() {
		// ctx ended before the run did.
		return nil, AnalyzeOutput{}, fmt.Errorf("analyze: %w", err)
	}
	return nil, AnalyzeOutput{Run: viewOf(run)}, nil
}

// GetRun returns the current run snapshot.
func (s *InsightService) GetRun(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetRunInput,
) (*mcp.CallToolResult, GetRunOutput, error) {
	return nil, GetRunOutput{Run: viewOf(s.orch.Snapshot())}, nil
}

// ResetRun returns the orchestrator to idle.
func (s *InsightService) ResetRun(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ResetRunInput,
) (*mcp.CallToolResult, ResetRunOutput, error) {
	if err := s.orch.Reset(); err != nil {
		return nil, ResetRunOutput{}, err
	}
	return nil, ResetRunOutput{Status: string(orchestrator.StatusIdle)}, nil
}

// CheckConnectivity probes the analysis backend.
func (s *InsightService) CheckConnectivity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CheckConnectivityInput,
) (*mcp.CallToolResult, CheckConnectivityOutput, error) {
	if s.gate == nil {
		return nil, CheckConnectivityOutput{Reachable: true}, nil
	}
	return nil, CheckConnectivityOutput{Reachable: s.gate.Probe(ctx)}, nil
}
