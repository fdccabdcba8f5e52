package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	require.Len(t, stages, 5)
	assert.Equal(t, []string{StageInput, StageResearch, StageAnalysis, StageSynthesis, StageOutput}, StageIDs(stages))
	assert.Equal(t, "Web Research", stages[1].Label)
	assert.Greater(t, stages[1].Hold, stages[0].Hold)
	assert.Greater(t, stages[2].Hold, stages[0].Hold)
}

func TestWithHolds(t *testing.T) {
	base := DefaultStages()

	got, err := WithHolds(base, map[string]time.Duration{StageResearch: 10 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, got[1].Hold)
	assert.Equal(t, StageIDs(base), StageIDs(got))
	assert.Equal(t, 3*time.Second, base[1].Hold, "input slice must not change")

	_, err = WithHolds(base, map[string]time.Duration{"review": time.Second})
	assert.ErrorContains(t, err, `unknown stage "review"`)

	_, err = WithHolds(base, map[string]time.Duration{StageOutput: -time.Second})
	assert.ErrorContains(t, err, "negative hold")
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Model Analysis", StageLabel(DefaultStages(), StageAnalysis))
	assert.Equal(t, "error", StageLabel(DefaultStages(), ErrorEntryStage))
}
