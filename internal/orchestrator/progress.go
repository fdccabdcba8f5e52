package orchestrator

import "fmt"

// FormatEvent formats an Event as a human-readable status line. Labels
// come from stages; unknown stage ids are printed as-is.
func FormatEvent(stages []Stage, ev Event) string {
	switch ev.Kind {
	case EventStarted:
		return fmt.Sprintf("▶ run %s started: %q (max %d)", shortID(ev.Run.ID), ev.Run.Query, ev.Run.Params.MaxResults)
	case EventTransition:
		if ev.Entry == nil {
			return "  ● (unknown stage)"
		}
		line := fmt.Sprintf("  ● %s", StageLabel(stages, ev.Entry.Stage))
		if ev.Entry.State.Status != "" {
			line += ": " + ev.Entry.State.Status
		}
		return line
	case EventSucceeded:
		if ev.Run.Result == nil {
			return "  ✓ complete"
		}
		return fmt.Sprintf("  ✓ complete: %d insights, %d sources, average confidence %s",
			len(ev.Run.Result.Insights), len(ev.Run.Result.Sources),
			ev.Run.Result.ThoughtTrace.AverageConfidence)
	case EventFailed:
		msg := ""
		if ev.Run.Error != nil {
			msg = ev.Run.Error.Message
		}
		return fmt.Sprintf("  ✗ failed: %s", msg)
	case EventReset:
		return "  ○ reset"
	default:
		return fmt.Sprintf("  ? %s (unknown event)", ev.Kind)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
