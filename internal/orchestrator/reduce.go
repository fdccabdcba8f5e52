package orchestrator

import (
	"fmt"
	"math"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/shopspring/decimal"
)

// isoMillis matches the millisecond ISO-8601 form browsers produce.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ResultBundle is the display-ready result of a successful run.
type ResultBundle struct {
	Insights     []analysis.Insight `json:"insights"`
	Sources      []analysis.Source  `json:"sources"`
	ThoughtTrace ThoughtTrace       `json:"thought_trace"`
	Metadata     Metadata           `json:"metadata"`
}

// ThoughtTrace summarizes each analysis phase.
type ThoughtTrace struct {
	ResearchPhase     string         `json:"research_phase"`
	AnalysisPhase     string         `json:"analysis_phase"`
	SynthesisPhase    string         `json:"synthesis_phase"`
	AverageConfidence string         `json:"average_confidence"`
	QualityMetrics    QualityMetrics `json:"quality_metrics"`
}

// QualityMetrics are copied verbatim from the service response.
type QualityMetrics struct {
	TotalInsights  int     `json:"total_insights"`
	ProcessingTime float64 `json:"processing_time"`
	Timestamp      string  `json:"timestamp,omitempty"`
}

// Metadata describes the execution that produced the bundle.
type Metadata struct {
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	StagesExecuted  int     `json:"stages_executed"`
	Timestamp       string  `json:"timestamp"`
}

// AverageConfidence returns the mean insight confidence with two decimals,
// rounded half-up on the decimal value of each confidence (0.145 gives
// "0.15"). An empty list yields "0.00". Non-finite confidences count as 0 and values
// are clamped to [0,1].
func AverageConfidence(insights []analysis.Insight) string {
	if len(insights) == 0 {
		return "0.00"
	}
	sum := decimal.Zero
	for _, in := range insights {
		sum = sum.Add(decimal.NewFromFloat(clampConfidence(in.Confidence)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(insights)))).StringFixed(2)
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Reduce turns a service response into a ResultBundle. stageCount is the
// length of the fixed stage sequence; now is used when the response carries
// no timestamp. Insights and sources pass through unchanged and in order.
func Reduce(resp analysis.AnalyzeResponse, stageCount int, now time.Time) ResultBundle {
	insights := resp.Insights
	if insights == nil {
		insights = []analysis.Insight{}
	}
	sources := resp.Sources
	if sources == nil {
		sources = []analysis.Source{}
	}

	avg := AverageConfidence(insights)

	timestamp := resp.Timestamp
	if timestamp == "" {
		timestamp = now.UTC().Format(isoMillis)
	}

	return ResultBundle{
		Insights: insights,
		Sources:  sources,
		ThoughtTrace: ThoughtTrace{
			ResearchPhase:     fmt.Sprintf("Retrieved %d sources", len(sources)),
			AnalysisPhase:     fmt.Sprintf("Generated %d insights", len(insights)),
			SynthesisPhase:    "Average confidence: " + avg,
			AverageConfidence: avg,
			QualityMetrics: QualityMetrics{
				TotalInsights:  resp.TotalInsights,
				ProcessingTime: resp.ProcessingTime,
				Timestamp:      resp.Timestamp,
			},
		},
		Metadata: Metadata{
			ExecutionTimeMs: resp.ProcessingTime * 1000,
			StagesExecuted:  stageCount,
			Timestamp:       timestamp,
		},
	}
}
