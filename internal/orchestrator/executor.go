package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/dusk-indust/insightflow/internal/broadcast"
	"github.com/dusk-indust/insightflow/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Executor is the run state machine: idle -> running -> succeeded | failed.
// It is the only writer of the run record.
type Executor struct {
	invoker  Invoker
	gate     Gate
	animator *Animator
	stages   []Stage
	holds    map[string]time.Duration
	model    string
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	events   *broadcast.Hub[Event]

	mu      sync.Mutex
	run     Run
	lastErr error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used for run and trace timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithStageHolds overrides hold durations by stage id. The stage ids,
// labels and order are fixed. A map naming an unknown stage or holding a
// negative duration is ignored and the default holds are kept.
func WithStageHolds(holds map[string]time.Duration) ExecutorOption {
	return func(e *Executor) { e.holds = holds }
}

// WithAnimator replaces the animator.
func WithAnimator(a *Animator) ExecutorOption {
	return func(e *Executor) { e.animator = a }
}

// WithModel sets the model identifier narrated in the analysis stage.
func WithModel(model string) ExecutorOption {
	return func(e *Executor) { e.model = model }
}

// WithIDGenerator replaces the run id generator.
func WithIDGenerator(fn func() string) ExecutorOption {
	return func(e *Executor) { e.newID = fn }
}

// NewExecutor creates an idle Executor. gate may be nil, in which case the
// backend is always considered reachable.
func NewExecutor(invoker Invoker, gate Gate, opts ...ExecutorOption) *Executor {
	e := &Executor{
		invoker: invoker,
		gate:    gate,
		stages:  DefaultStages(),
		model:   DefaultModel,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
		events:  broadcast.NewHub[Event](),
		run:     idleRun(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.animator == nil {
		e.animator = NewAnimator(WithAnimatorClock(e.now))
	}
	e.logger = e.logger.With("component", "executor")
	if len(e.holds) > 0 {
		stages, err := WithHolds(e.stages, e.holds)
		if err != nil {
			e.logger.Warn("ignoring stage holds", "err", err)
		} else {
			e.stages = stages
		}
	}
	return e
}

// Execution is a handle on a started run.
type Execution struct {
	ID string

	done chan struct{}
	run  Run
	err  error
}

// Done is closed once the run has reached a terminal state and the
// terminal event has been published.
func (x *Execution) Done() <-chan struct{} { return x.done }

// Wait blocks until the run is terminal and returns its final snapshot and
// the typed invoker error, nil on success. If ctx ends first Wait returns
// ctx.Err(); the run itself keeps going.
func (x *Execution) Wait(ctx context.Context) (Run, error) {
	select {
	case <-x.done:
		return x.run.clone(), x.err
	case <-ctx.Done():
		return Run{}, ctx.Err()
	}
}

// Start validates the request, probes connectivity and launches the run.
// Empty queries, non-positive result counts and concurrent starts are
// rejected before any I/O; an unreachable backend is rejected before any
// state changes.
func (e *Executor) Start(ctx context.Context, query string, params Params) (*Execution, error) {
	if strings.TrimSpace(query) == "" {
		telemetry.ObserveRejection("empty_query")
		return nil, ErrEmptyQuery
	}
	if params.MaxResults <= 0 {
		telemetry.ObserveRejection("invalid_parameter")
		return nil, &analysis.InvalidParameterError{Name: "max_results", Value: params.MaxResults}
	}
	if e.running() {
		telemetry.ObserveRejection("in_progress")
		return nil, ErrRunInProgress
	}

	if e.gate != nil && !e.gate.Probe(ctx) {
		telemetry.ObserveRejection("backend_unavailable")
		e.logger.Warn("start rejected, backend unreachable")
		return nil, ErrBackendUnavailable
	}

	e.mu.Lock()
	// The probe released the lock; another Start may have won.
	if e.run.Status == StatusRunning {
		e.mu.Unlock()
		telemetry.ObserveRejection("in_progress")
		return nil, ErrRunInProgress
	}
	x := &Execution{ID: e.newID(), done: make(chan struct{})}
	e.run = Run{
		ID:           x.ID,
		Query:        query,
		Params:       params,
		Status:       StatusRunning,
		StageHistory: []string{},
		Trace:        []TraceEntry{},
		StartedAt:    e.now(),
	}
	e.lastErr = nil
	e.events.Publish(Event{Kind: EventStarted, Run: e.run.clone()})
	e.mu.Unlock()

	e.logger.Info("run started", "run", x.ID, "max_results", params.MaxResults)

	go e.execute(context.WithoutCancel(ctx), x, query, params)
	return x, nil
}

// Run starts a run and waits for it to finish.
func (e *Executor) Run(ctx context.Context, query string, params Params) (Run, error) {
	x, err := e.Start(ctx, query, params)
	if err != nil {
		return Run{}, err
	}
	return x.Wait(ctx)
}

// execute runs the animator and the invoker as two retained tasks and joins
// them: invoker first, then animator. A terminal state is never published
// before the animator has settled. When the invoker fails the animator is
// halted at its next hold.
func (e *Executor) execute(ctx context.Context, x *Execution, query string, params Params) {
	animCtx, haltAnimation := context.WithCancel(ctx)
	defer haltAnimation()

	var g errgroup.Group
	animation := spawn(&g, "animator", func() (struct{}, error) {
		in := AnimatorInput{Query: query, MaxResults: params.MaxResults, Model: e.model}
		return struct{}{}, e.animator.Run(animCtx, e.stages, in, func(entry TraceEntry) {
			e.recordTransition(x.ID, entry)
		})
	})
	invocation := spawn(&g, "invoker", func() (*analysis.AnalyzeResponse, error) {
		return e.invoker.Analyze(ctx, query, params.MaxResults)
	})

	resp, err := invocation.await()
	if err == nil && resp == nil {
		err = &analysis.DecodeError{Op: "analyze", Err: errors.New("empty response")}
	}
	if err != nil {
		haltAnimation()
	}

	if _, animErr := animation.await(); animErr != nil && err == nil {
		e.logger.Warn("animation ended early", "run", x.ID, "err", animErr)
	}
	_ = g.Wait()

	e.finish(x, resp, err, e.now())
}

func (e *Executor) recordTransition(runID string, entry TraceEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run.ID != runID || e.run.Status != StatusRunning {
		return
	}
	e.run.ActiveStage = entry.Stage
	e.run.StageHistory = append(e.run.StageHistory, entry.Stage)
	e.run.Trace = append(e.run.Trace, entry)

	telemetry.ObserveStageTransition(entry.Stage)
	e.logger.Debug("stage entered", "run", runID, "stage", entry.Stage)
	e.events.Publish(Event{Kind: EventTransition, Run: e.run.clone(), Entry: &entry})
}

func (e *Executor) finish(x *Execution, resp *analysis.AnalyzeResponse, err error, joinedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.run.ActiveStage = ""
	e.run.FinishedAt = joinedAt
	elapsed := joinedAt.Sub(e.run.StartedAt)

	ev := Event{}
	if err != nil {
		entry := TraceEntry{
			Stage:     ErrorEntryStage,
			State:     StatusPayload{Status: "Execution failed", Error: err.Error()},
			Timestamp: joinedAt,
		}
		e.run.Status = StatusFailed
		e.run.Error = newRunError(err)
		e.run.Trace = append(e.run.Trace, entry)
		ev = Event{Kind: EventFailed, Entry: &entry}
		e.logger.Error("run failed", "run", x.ID, "kind", e.run.Error.Kind, "err", err)
	} else {
		bundle := Reduce(*resp, len(e.stages), joinedAt)
		e.run.Status = StatusSucceeded
		e.run.Result = &bundle
		ev = Event{Kind: EventSucceeded}
		e.logger.Info("run succeeded", "run", x.ID,
			"insights", len(bundle.Insights),
			"avg_confidence", bundle.ThoughtTrace.AverageConfidence,
			"elapsed", elapsed)
	}
	e.lastErr = err
	telemetry.ObserveRun(string(e.run.Status), elapsed)

	x.run = e.run.clone()
	x.err = err
	ev.Run = e.run.clone()
	e.events.Publish(ev)
	close(x.done)
}

// Reset clears a terminal or idle run back to idle. It is rejected while a
// run is in progress; runs cannot be cancelled.
func (e *Executor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run.Status == StatusRunning {
		return ErrRunInProgress
	}
	e.run = idleRun()
	e.lastErr = nil
	e.events.Publish(Event{Kind: EventReset, Run: e.run.clone()})
	return nil
}

// Snapshot returns a deep copy of the current run.
func (e *Executor) Snapshot() Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run.clone()
}

// Err returns the typed error of the last failed run, or nil.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Subscribe returns a channel of run events. Slow subscribers miss events
// rather than block the executor.
func (e *Executor) Subscribe() (<-chan Event, func()) {
	return e.events.Subscribe()
}

// Stages returns a copy of the stage sequence.
func (e *Executor) Stages() []Stage {
	return append([]Stage(nil), e.stages...)
}

// Close releases all subscribers.
func (e *Executor) Close() {
	e.events.Close()
}

func (e *Executor) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run.Status == StatusRunning
}
