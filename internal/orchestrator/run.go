package orchestrator

import (
	"errors"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
)

// RunStatus is the lifecycle state of an execution run.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// IsTerminal returns true for succeeded and failed.
func (s RunStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// DefaultMaxResults is the result count used when none is requested.
const DefaultMaxResults = 5

// Params are the per-run parameters sent to the analysis service.
type Params struct {
	MaxResults int `json:"max_results"`
}

// Run is a snapshot of one execution. Snapshots handed out by the Executor
// are copies; mutating them has no effect on the live run.
type Run struct {
	ID           string        `json:"id,omitempty"`
	Query        string        `json:"query,omitempty"`
	Params       Params        `json:"params"`
	Status       RunStatus     `json:"status"`
	ActiveStage  string        `json:"active_stage,omitempty"`
	StageHistory []string      `json:"stage_history"`
	Trace        []TraceEntry  `json:"trace"`
	Result       *ResultBundle `json:"result,omitempty"`
	Error        *RunError     `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at,omitzero"`
	FinishedAt   time.Time     `json:"finished_at,omitzero"`
}

func idleRun() Run {
	return Run{
		Status:       StatusIdle,
		StageHistory: []string{},
		Trace:        []TraceEntry{},
	}
}

// clone deep-copies the mutable parts of r. Result is immutable once set
// and is shared.
func (r Run) clone() Run {
	out := r
	out.StageHistory = append([]string{}, r.StageHistory...)
	out.Trace = make([]TraceEntry, len(r.Trace))
	for i, e := range r.Trace {
		out.Trace[i] = e
		if e.State.SearchQueries != nil {
			out.Trace[i].State.SearchQueries = append([]string(nil), e.State.SearchQueries...)
		}
	}
	if r.Error != nil {
		errCopy := *r.Error
		out.Error = &errCopy
	}
	return out
}

// RunError is the serialisable form of the error that failed a run.
type RunError struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func newRunError(err error) *RunError {
	re := &RunError{
		Kind:    analysis.Kind(err),
		Message: err.Error(),
	}
	if re.Kind == "" {
		re.Kind = "internal"
	}
	var statusErr *analysis.HTTPStatusError
	if errors.As(err, &statusErr) {
		re.StatusCode = statusErr.Code
	}
	return re
}

// EventKind identifies what changed in an Event.
type EventKind string

const (
	EventStarted    EventKind = "started"
	EventTransition EventKind = "transition"
	EventSucceeded  EventKind = "succeeded"
	EventFailed     EventKind = "failed"
	EventReset      EventKind = "reset"
)

// Event is published to subscribers on every change of the run.
type Event struct {
	Kind EventKind `json:"kind"`
	Run  Run       `json:"run"`
	// Entry is the new trace entry for transition and failed events.
	Entry *TraceEntry `json:"entry,omitempty"`
}
