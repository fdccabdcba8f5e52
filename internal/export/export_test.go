package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMermaid_PipelineOnly(t *testing.T) {
	got := Mermaid(orchestrator.DefaultStages(), nil)

	assert.Contains(t, got, "graph LR\n")
	assert.Contains(t, got, `S0["Input Processing<br/>1s"]`)
	assert.Contains(t, got, `S2["Model Analysis<br/>4s"]`)
	assert.Contains(t, got, "S3 --> S4")
	assert.NotContains(t, got, "classDef")
}

func TestMermaid_WithRun(t *testing.T) {
	run := orchestrator.Run{
		Status:       orchestrator.StatusRunning,
		ActiveStage:  orchestrator.StageResearch,
		StageHistory: []string{orchestrator.StageInput, orchestrator.StageResearch},
	}

	got := Mermaid(orchestrator.DefaultStages(), &run)

	assert.Contains(t, got, "class S0 complete")
	assert.Contains(t, got, "class S1 active")
	assert.NotContains(t, got, "class S2")
}

func TestExportRun_WriteJSON(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run := orchestrator.Run{
		ID:     "r1",
		Status: orchestrator.StatusFailed,
		Error:  &orchestrator.RunError{Kind: "timeout", Message: "timed out"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ExportRun(run, orchestrator.DefaultStages(), now)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["exportedAt"])
	assert.Equal(t, []any{}, decoded["trace"])
	assert.Equal(t, "timeout", decoded["error"].(map[string]any)["kind"])
	assert.NotContains(t, decoded, "result")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestWriteJSON_MarshalError(t *testing.T) {
	err := WriteJSON(&bytes.Buffer{}, map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "export: marshal JSON")
}
