package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatEvent_AllKinds(t *testing.T) {
	stages := DefaultStages()
	bundle := Reduce(*sampleResponse(0.9, 0.6, 0.3), 5, fixedNow)

	tests := []struct {
		name   string
		event  Event
		expect string
	}{
		{
			name: "started",
			event: Event{Kind: EventStarted, Run: Run{
				ID: "0123456789abcdef", Query: "saas", Params: Params{MaxResults: 5},
			}},
			expect: "▶ run 01234567 started: \"saas\" (max 5)",
		},
		{
			name: "transition",
			event: Event{Kind: EventTransition, Entry: &TraceEntry{
				Stage: StageResearch, State: StatusPayload{Status: "Searching the web"},
			}},
			expect: "  ● Web Research: Searching the web",
		},
		{
			name:   "transition without entry",
			event:  Event{Kind: EventTransition},
			expect: "  ● (unknown stage)",
		},
		{
			name:   "succeeded",
			event:  Event{Kind: EventSucceeded, Run: Run{Result: &bundle}},
			expect: "  ✓ complete: 3 insights, 2 sources, average confidence 0.60",
		},
		{
			name:   "failed",
			event:  Event{Kind: EventFailed, Run: Run{Error: &RunError{Message: "HTTP 500"}}},
			expect: "  ✗ failed: HTTP 500",
		},
		{
			name:   "reset",
			event:  Event{Kind: EventReset},
			expect: "  ○ reset",
		},
		{
			name:   "unknown",
			event:  Event{Kind: "bogus"},
			expect: "  ? bogus (unknown event)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, FormatEvent(stages, tt.event))
		})
	}
}
