package orchestrator

import (
	"context"

	"github.com/dusk-indust/insightflow/internal/analysis"
)

// Orchestrator coordinates one analysis run at a time: a narrated stage
// animation joined with a single remote analysis call.
type Orchestrator interface {
	// Start validates the request, checks connectivity and launches a run.
	// It returns as soon as the run is running.
	Start(ctx context.Context, query string, params Params) (*Execution, error)

	// Run is Start followed by Execution.Wait.
	Run(ctx context.Context, query string, params Params) (Run, error)

	// Reset returns a finished executor to idle.
	Reset() error

	// Snapshot returns a copy of the current run.
	Snapshot() Run

	// Subscribe returns a channel of run events and a cancel func.
	Subscribe() (<-chan Event, func())

	// Stages returns the fixed stage sequence.
	Stages() []Stage
}

// Invoker issues the remote analysis request.
type Invoker interface {
	Analyze(ctx context.Context, query string, maxResults int) (*analysis.AnalyzeResponse, error)
}

// Gate reports whether the remote service is reachable. Probe must not
// return an error or panic; failures read as false.
type Gate interface {
	Probe(ctx context.Context) bool
}

// Compile-time interface checks.
var (
	_ Orchestrator = (*Executor)(nil)
	_ Invoker      = (analysis.Client)(nil)
)
