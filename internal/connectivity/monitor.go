package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/dusk-indust/insightflow/internal/broadcast"
	"github.com/dusk-indust/insightflow/internal/telemetry"
)

// Defaults applied by NewMonitor.
const (
	DefaultInterval     = 5 * time.Second
	DefaultProbeTimeout = 2 * time.Second
)

// HealthChecker is the subset of analysis.Client the monitor needs.
type HealthChecker interface {
	Health(ctx context.Context) (*analysis.HealthResponse, error)
}

// Monitor probes the analysis service and exposes whether it is reachable.
// Polling has an explicit Start/Stop lifecycle owned by the caller.
type Monitor struct {
	checker      HealthChecker
	probeTimeout time.Duration
	logger       *slog.Logger

	reachable atomic.Bool
	hub       *broadcast.Hub[bool]

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbeTimeout bounds each individual probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// NewMonitor creates a Monitor. The reachable flag starts false until the
// first probe.
func NewMonitor(checker HealthChecker, opts ...Option) *Monitor {
	m := &Monitor{
		checker:      checker,
		probeTimeout: DefaultProbeTimeout,
		logger:       slog.Default(),
		hub:          broadcast.NewHub[bool](),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "connectivity")
	return m
}

// Probe checks the service once and returns whether it is reachable. It
// never fails: any error, panic, or non-healthy status counts as false.
// The result updates the shared flag and is published to subscribers.
func (m *Monitor) Probe(ctx context.Context) bool {
	ok := m.probe(ctx)

	prev := m.reachable.Swap(ok)
	if prev != ok {
		m.logger.Info("backend reachability changed", "reachable", ok)
	}
	telemetry.ObserveProbe(ok)
	m.hub.Publish(ok)
	return ok
}

func (m *Monitor) probe(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic during probe", "panic", r)
			ok = false
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	h, err := m.checker.Health(probeCtx)
	if err != nil {
		m.logger.Debug("probe failed", "error", err)
		return false
	}
	if !h.Healthy() {
		m.logger.Debug("backend not healthy", "status", h.Status)
		return false
	}
	m.logger.Debug("probe ok", "version", h.Version, "environment", h.Environment)
	return true
}

// Reachable returns the result of the most recent probe.
func (m *Monitor) Reachable() bool {
	return m.reachable.Load()
}

// Subscribe returns a channel receiving every probe result until cancel is
// called.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	return m.hub.Subscribe()
}

// Start probes immediately and then once per interval until Stop is called.
// Calling Start on a running monitor does nothing.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	go m.poll(ctx, interval, m.done)
}

func (m *Monitor) poll(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	m.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Stop halts polling and waits for the loop to exit. It is idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.started = false
	m.mu.Unlock()

	cancel()
	<-done
}

// Close stops polling and closes every subscriber channel.
func (m *Monitor) Close() {
	m.Stop()
	m.hub.Close()
}
