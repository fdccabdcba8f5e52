package status

import (
	"fmt"
	"io"
	"slices"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
)

// Node states, as shown next to each stage.
const (
	StatePending  = "pending"
	StateActive   = "active"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// StageInfo describes the display state of a single stage.
type StageInfo struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Label string `json:"label"`
	State string `json:"state"`
}

// RunStatus is the stage-by-stage view of one run.
type RunStatus struct {
	RunID  string                 `json:"run_id,omitempty"`
	Query  string                 `json:"query,omitempty"`
	Status orchestrator.RunStatus `json:"status"`
	Stages []StageInfo            `json:"stages"`
	// Summary is a one-line outcome, empty while idle or running.
	Summary string `json:"summary,omitempty"`
}

// FromRun derives node states from a run snapshot. A stage is active while
// it is the run's active stage, complete once it is in the history and no
// longer active, and pending otherwise. On a failed run the stage that was
// last entered is marked failed.
func FromRun(run orchestrator.Run, stages []orchestrator.Stage) RunStatus {
	rs := RunStatus{
		RunID:  run.ID,
		Query:  run.Query,
		Status: run.Status,
		Stages: make([]StageInfo, len(stages)),
	}

	var lastEntered string
	if n := len(run.StageHistory); n > 0 {
		lastEntered = run.StageHistory[n-1]
	}

	for i, s := range stages {
		state := StatePending
		switch {
		case s.ID == run.ActiveStage:
			state = StateActive
		case run.Status == orchestrator.StatusFailed && s.ID == lastEntered:
			state = StateFailed
		case slices.Contains(run.StageHistory, s.ID):
			state = StateComplete
		}
		rs.Stages[i] = StageInfo{Index: i, ID: s.ID, Label: s.Label, State: state}
	}

	switch run.Status {
	case orchestrator.StatusSucceeded:
		if run.Result != nil {
			rs.Summary = fmt.Sprintf("%d insights, average confidence %s",
				len(run.Result.Insights), run.Result.ThoughtTrace.AverageConfidence)
		}
	case orchestrator.StatusFailed:
		if run.Error != nil {
			rs.Summary = run.Error.Message
		}
	}
	return rs
}

// PrintTable writes the stage table to w.
func PrintTable(w io.Writer, rs RunStatus) {
	if rs.RunID != "" {
		fmt.Fprintf(w, "Run %s: %q [%s]\n", rs.RunID, rs.Query, rs.Status)
	} else {
		fmt.Fprintf(w, "No run [%s]\n", rs.Status)
	}

	for _, si := range rs.Stages {
		marker := "  "
		if si.State == StateActive {
			marker = "->"
		}
		fmt.Fprintf(w, "  %s Stage %d: %-20s [%s]\n", marker, si.Index, si.Label, si.State)
	}

	if rs.Summary != "" {
		fmt.Fprintf(w, "  %s\n", rs.Summary)
	}
}
