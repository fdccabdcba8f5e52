package orchestrator

import (
	"context"
	"time"
)

// DefaultModel is the model identifier shown in the analysis stage payload.
const DefaultModel = "gemini-2.5-flash"

// StatusPayload is the synthetic state attached to a trace entry.
type StatusPayload struct {
	Status        string   `json:"status,omitempty"`
	Query         string   `json:"query,omitempty"`
	MaxResults    int      `json:"max_results,omitempty"`
	SearchQueries []string `json:"search_queries,omitempty"`
	Model         string   `json:"model,omitempty"`
	Progress      string   `json:"progress,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// TraceEntry records one stage transition, or the failure of a run.
type TraceEntry struct {
	Stage     string        `json:"stage"`
	State     StatusPayload `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
}

// AnimatorInput is what the animator narrates about.
type AnimatorInput struct {
	Query      string
	MaxResults int
	Model      string
}

// Sleeper suspends for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the real-time Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Animator walks a stage sequence on a timed, strictly sequential schedule.
type Animator struct {
	sleep Sleeper
	now   func() time.Time
}

// AnimatorOption configures an Animator.
type AnimatorOption func(*Animator)

// WithSleeper replaces the hold implementation.
func WithSleeper(s Sleeper) AnimatorOption {
	return func(a *Animator) { a.sleep = s }
}

// WithAnimatorClock replaces the clock used for entry timestamps.
func WithAnimatorClock(now func() time.Time) AnimatorOption {
	return func(a *Animator) { a.now = now }
}

// NewAnimator creates an Animator that holds in real time.
func NewAnimator(opts ...AnimatorOption) *Animator {
	a := &Animator{
		sleep: ContextSleep,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run enters each stage in order: it emits a TraceEntry through
// onTransition and then holds for the stage's duration. It returns nil once
// the last hold completes. The animator does no I/O; the only way it stops
// early is ctx being cancelled, observed at the next hold.
func (a *Animator) Run(ctx context.Context, stages []Stage, in AnimatorInput, onTransition func(TraceEntry)) error {
	for _, s := range stages {
		entry := TraceEntry{
			Stage:     s.ID,
			State:     statusFor(s.ID, in),
			Timestamp: a.now(),
		}
		if onTransition != nil {
			onTransition(entry)
		}
		if err := a.sleep(ctx, s.Hold); err != nil {
			return err
		}
	}
	return nil
}

// statusFor synthesizes the stage-specific payload.
func statusFor(stageID string, in AnimatorInput) StatusPayload {
	model := in.Model
	if model == "" {
		model = DefaultModel
	}

	switch stageID {
	case StageInput:
		return StatusPayload{
			Status:     "Processing query parameters",
			Query:      in.Query,
			MaxResults: in.MaxResults,
		}
	case StageResearch:
		return StatusPayload{
			Status:        "Searching the web",
			SearchQueries: []string{in.Query},
			Progress:      "Fetching search results...",
		}
	case StageAnalysis:
		return StatusPayload{
			Status:   "Analyzing with " + model,
			Model:    model,
			Progress: "Generating insights...",
		}
	case StageSynthesis:
		return StatusPayload{
			Status:   "Synthesizing insights",
			Progress: "Formatting results...",
		}
	case StageOutput:
		return StatusPayload{
			Status:   "Preparing final output",
			Progress: "Complete",
		}
	default:
		return StatusPayload{Status: "Running " + stageID}
	}
}
