package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/dusk-indust/insightflow/internal/status"
)

// RunExport is the top-level JSON export of a run.
type RunExport struct {
	ExportedAt string                     `json:"exportedAt"`
	Status     status.RunStatus           `json:"status"`
	Trace      []orchestrator.TraceEntry  `json:"trace"`
	Result     *orchestrator.ResultBundle `json:"result,omitempty"`
	Error      *orchestrator.RunError     `json:"error,omitempty"`
}

// ExportRun builds a RunExport from a run snapshot.
func ExportRun(run orchestrator.Run, stages []orchestrator.Stage, now time.Time) RunExport {
	trace := run.Trace
	if trace == nil {
		trace = []orchestrator.TraceEntry{}
	}
	return RunExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Status:     status.FromRun(run, stages),
		Trace:      trace,
		Result:     run.Result,
		Error:      run.Error,
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
