package orchestrator

import (
	"fmt"
	"time"
)

// Stage ids of the fixed pipeline, in visitation order.
const (
	StageInput     = "input"
	StageResearch  = "research"
	StageAnalysis  = "analysis"
	StageSynthesis = "synthesis"
	StageOutput    = "output"
)

// ErrorEntryStage is the stage id of the trace entry appended when a run fails.
const ErrorEntryStage = "error"

// Stage is a static descriptor of one pipeline step.
type Stage struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Hold  time.Duration `json:"hold"`
}

// DefaultStages returns the fixed five-stage sequence. Research and analysis
// hold longer to mimic the I/O-bound work they stand for.
func DefaultStages() []Stage {
	return []Stage{
		{ID: StageInput, Label: "Input Processing", Hold: 1 * time.Second},
		{ID: StageResearch, Label: "Web Research", Hold: 3 * time.Second},
		{ID: StageAnalysis, Label: "Model Analysis", Hold: 4 * time.Second},
		{ID: StageSynthesis, Label: "Insight Synthesis", Hold: 1 * time.Second},
		{ID: StageOutput, Label: "Output Formatting", Hold: 1 * time.Second},
	}
}

// StageIDs returns the ids of stages in order.
func StageIDs(stages []Stage) []string {
	ids := make([]string, len(stages))
	for i, s := range stages {
		ids[i] = s.ID
	}
	return ids
}

// WithHolds returns a copy of stages with hold durations replaced from
// holds, keyed by stage id. Unknown ids are an error; order and labels are
// never changed.
func WithHolds(stages []Stage, holds map[string]time.Duration) ([]Stage, error) {
	out := make([]Stage, len(stages))
	copy(out, stages)

	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for id, d := range holds {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("orchestrator: unknown stage %q", id)
		}
		if d < 0 {
			return nil, fmt.Errorf("orchestrator: stage %q: negative hold %s", id, d)
		}
		out[i].Hold = d
	}
	return out, nil
}

// StageLabel returns the display label for id within stages, or id itself.
func StageLabel(stages []Stage, id string) string {
	for _, s := range stages {
		if s.ID == id {
			return s.Label
		}
	}
	return id
}
