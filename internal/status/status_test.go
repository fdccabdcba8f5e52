package status

import (
	"bytes"
	"testing"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func states(rs RunStatus) []string {
	out := make([]string, len(rs.Stages))
	for i, s := range rs.Stages {
		out[i] = s.State
	}
	return out
}

func TestFromRun(t *testing.T) {
	stages := orchestrator.DefaultStages()

	tests := []struct {
		name string
		run  orchestrator.Run
		want []string
	}{
		{
			name: "idle",
			run:  orchestrator.Run{Status: orchestrator.StatusIdle},
			want: []string{StatePending, StatePending, StatePending, StatePending, StatePending},
		},
		{
			name: "running in analysis",
			run: orchestrator.Run{
				Status:       orchestrator.StatusRunning,
				ActiveStage:  orchestrator.StageAnalysis,
				StageHistory: []string{orchestrator.StageInput, orchestrator.StageResearch, orchestrator.StageAnalysis},
			},
			want: []string{StateComplete, StateComplete, StateActive, StatePending, StatePending},
		},
		{
			name: "succeeded",
			run: orchestrator.Run{
				Status:       orchestrator.StatusSucceeded,
				StageHistory: orchestrator.StageIDs(stages),
			},
			want: []string{StateComplete, StateComplete, StateComplete, StateComplete, StateComplete},
		},
		{
			name: "failed in research",
			run: orchestrator.Run{
				Status:       orchestrator.StatusFailed,
				StageHistory: []string{orchestrator.StageInput, orchestrator.StageResearch},
				Error:        &orchestrator.RunError{Kind: "http_status", Message: "HTTP 500"},
			},
			want: []string{StateComplete, StateFailed, StatePending, StatePending, StatePending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := FromRun(tt.run, stages)
			require.Len(t, rs.Stages, 5)
			assert.Equal(t, tt.want, states(rs))
			assert.Equal(t, "Input Processing", rs.Stages[0].Label)
		})
	}
}

func TestFromRun_Summary(t *testing.T) {
	failed := FromRun(orchestrator.Run{
		Status: orchestrator.StatusFailed,
		Error:  &orchestrator.RunError{Message: "analysis: analyze: HTTP 500"},
	}, orchestrator.DefaultStages())
	assert.Equal(t, "analysis: analyze: HTTP 500", failed.Summary)

	ok := FromRun(orchestrator.Run{
		Status: orchestrator.StatusSucceeded,
		Result: &orchestrator.ResultBundle{ThoughtTrace: orchestrator.ThoughtTrace{AverageConfidence: "0.60"}},
	}, orchestrator.DefaultStages())
	assert.Equal(t, "0 insights, average confidence 0.60", ok.Summary)
}

func TestPrintTable(t *testing.T) {
	rs := FromRun(orchestrator.Run{
		ID:           "abc",
		Query:        "q",
		Status:       orchestrator.StatusRunning,
		ActiveStage:  orchestrator.StageInput,
		StageHistory: []string{orchestrator.StageInput},
	}, orchestrator.DefaultStages())

	var buf bytes.Buffer
	PrintTable(&buf, rs)

	out := buf.String()
	assert.Contains(t, out, "Run abc: \"q\" [running]")
	assert.Contains(t, out, "-> Stage 0: Input Processing")
	assert.Contains(t, out, "[active]")
	assert.Contains(t, out, "Stage 4: Output Formatting")
}
