package orchestrator

import (
	"math"
	"testing"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightsWith(confidences ...float64) []analysis.Insight {
	out := make([]analysis.Insight, len(confidences))
	for i, c := range confidences {
		out[i] = analysis.Insight{Title: "i", Confidence: c}
	}
	return out
}

func TestAverageConfidence(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		want        string
	}{
		{name: "empty", confidences: nil, want: "0.00"},
		{name: "scenario A", confidences: []float64{0.9, 0.6, 0.3}, want: "0.60"},
		{name: "single", confidences: []float64{1}, want: "1.00"},
		{name: "half rounds up", confidences: []float64{0.87, 0.82}, want: "0.85"},
		{name: "decimal half up", confidences: []float64{0.145}, want: "0.15"},
		{name: "repeating", confidences: []float64{0.1, 0.2, 0.2}, want: "0.17"},
		{name: "all zero", confidences: []float64{0, 0, 0}, want: "0.00"},
		{name: "NaN counts as zero", confidences: []float64{math.NaN(), 1}, want: "0.50"},
		{name: "clamped high", confidences: []float64{1.5}, want: "1.00"},
		{name: "clamped low", confidences: []float64{-0.2, 0.6}, want: "0.30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageConfidence(insightsWith(tt.confidences...)))
		})
	}
}

func TestReduce_ScenarioA(t *testing.T) {
	resp := analysis.AnalyzeResponse{
		Insights:       insightsWith(0.9, 0.6, 0.3),
		Sources:        []analysis.Source{{Title: "a"}, {Title: "b"}},
		TotalInsights:  3,
		ProcessingTime: 2.5,
		Timestamp:      "2026-01-02T03:04:05.000Z",
	}

	got := Reduce(resp, 5, fixedNow)

	assert.Equal(t, resp.Insights, got.Insights)
	assert.Equal(t, resp.Sources, got.Sources)
	assert.Equal(t, "Retrieved 2 sources", got.ThoughtTrace.ResearchPhase)
	assert.Equal(t, "Generated 3 insights", got.ThoughtTrace.AnalysisPhase)
	assert.Equal(t, "Average confidence: 0.60", got.ThoughtTrace.SynthesisPhase)
	assert.Equal(t, "0.60", got.ThoughtTrace.AverageConfidence)
	assert.Equal(t, QualityMetrics{
		TotalInsights:  3,
		ProcessingTime: 2.5,
		Timestamp:      "2026-01-02T03:04:05.000Z",
	}, got.ThoughtTrace.QualityMetrics)
	assert.Equal(t, Metadata{
		ExecutionTimeMs: 2500,
		StagesExecuted:  5,
		Timestamp:       "2026-01-02T03:04:05.000Z",
	}, got.Metadata)
}

func TestReduce_ScenarioD_EmptyLists(t *testing.T) {
	got := Reduce(analysis.AnalyzeResponse{}, 5, fixedNow)

	require.NotNil(t, got.Insights)
	require.NotNil(t, got.Sources)
	assert.Empty(t, got.Insights)
	assert.Empty(t, got.Sources)
	assert.Equal(t, "0.00", got.ThoughtTrace.AverageConfidence)
	assert.Equal(t, "Retrieved 0 sources", got.ThoughtTrace.ResearchPhase)
	assert.Equal(t, 5, got.Metadata.StagesExecuted)
}

func TestReduce_TimestampFallsBackToClock(t *testing.T) {
	local := time.Date(2026, 5, 1, 12, 0, 0, 250_000_000, time.FixedZone("CEST", 2*60*60))

	got := Reduce(analysis.AnalyzeResponse{}, 5, local)

	assert.Equal(t, "2026-05-01T10:00:00.250Z", got.Metadata.Timestamp)
	assert.Empty(t, got.ThoughtTrace.QualityMetrics.Timestamp)
}

func TestReduce_PreservesOrder(t *testing.T) {
	resp := analysis.AnalyzeResponse{
		Insights: []analysis.Insight{
			{Title: "low", Confidence: 0.1},
			{Title: "high", Confidence: 0.9},
			{Title: "mid", Confidence: 0.5},
		},
	}

	got := Reduce(resp, 5, fixedNow)

	titles := make([]string, len(got.Insights))
	for i, in := range got.Insights {
		titles[i] = in.Title
	}
	assert.Equal(t, []string{"low", "high", "mid"}, titles)
}

func TestAverageConfidence_WithinUnitInterval(t *testing.T) {
	cases := [][]float64{
		{0.999, 0.998},
		{0.001},
		{0.33, 0.33, 0.34},
		{1, 1, 1, 1},
	}
	for _, c := range cases {
		avg := AverageConfidence(insightsWith(c...))
		assert.GreaterOrEqual(t, avg, "0.00")
		assert.LessOrEqual(t, avg, "1.00")
		assert.Len(t, avg, 4)
	}
}
