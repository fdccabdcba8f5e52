package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// StubService is a stand-in for the remote analysis service. It serves
// GET /health and POST /analyze with canned content so the orchestrator can
// be exercised without the real backend.
type StubService struct {
	version     string
	environment string
	healthy     atomic.Bool
	failStatus  atomic.Int64
	delay       atomic.Int64 // nanoseconds
	now         func() time.Time
	http        *http.Server
}

// NewStubService creates a healthy StubService.
func NewStubService(version, environment string) *StubService {
	s := &StubService{
		version:     version,
		environment: environment,
		now:         time.Now,
	}
	s.healthy.Store(true)
	return s
}

// SetHealthy toggles the status reported by GET /health.
func (s *StubService) SetHealthy(ok bool) { s.healthy.Store(ok) }

// FailWith makes POST /analyze answer with the given HTTP status. Zero
// restores normal behavior. Codes net/http cannot write are rejected and
// leave the current setting unchanged.
func (s *StubService) FailWith(status int) error {
	if status != 0 && (status < 100 || status > 999) {
		return fmt.Errorf("analysis stub: invalid fail status %d: want 0 or 100-999", status)
	}
	s.failStatus.Store(int64(status))
	return nil
}

// SetDelay makes POST /analyze wait d before answering.
func (s *StubService) SetDelay(d time.Duration) { s.delay.Store(int64(d)) }

// Handler returns the HTTP routes of the stub.
func (s *StubService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	return mux
}

// Start begins serving on addr in a background goroutine.
func (s *StubService) Start(_ context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Surface immediate bind failures.
	select {
	case err := <-errCh:
		return fmt.Errorf("analysis stub: listen %s: %w", addr, err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Stop gracefully shuts down the stub.
func (s *StubService) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *StubService) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := HealthyStatus
	if !s.healthy.Load() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      status,
		Version:     s.version,
		Environment: s.environment,
	})
}

func (s *StubService) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := s.now()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "prompt must not be empty"})
		return
	}
	if req.MaxResults < 1 || req.MaxResults > 20 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "max_results must be between 1 and 20"})
		return
	}

	if d := time.Duration(s.delay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}

	if code := int(s.failStatus.Load()); code != 0 {
		writeJSON(w, code, errorBody{Error: "Internal server error", Detail: "Analysis failed: stub configured to fail"})
		return
	}

	resp := CannedResponse(req.Prompt, req.MaxResults)
	resp.ProcessingTime = s.now().Sub(start).Seconds()
	resp.Timestamp = s.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, resp)
}

var cannedInsights = []Insight{
	{Title: "Content Marketing Drives Growth", Detail: "Long-form guides and case studies build authority and compound organic reach.", Category: "Strategy", Confidence: 0.87},
	{Title: "LinkedIn Leads Professional Engagement", Detail: "Organic posts plus targeted ads reach decision makers directly.", Category: "Channels", Confidence: 0.82},
	{Title: "Measure Pipeline, Not Clicks", Detail: "Attribute spend to qualified pipeline to compare channels fairly.", Category: "Analytics", Confidence: 0.78},
	{Title: "Webinars Convert Mid-Funnel", Detail: "Live sessions with Q&A move evaluators toward a demo.", Category: "Content", Confidence: 0.74},
	{Title: "Segment by Buying Committee", Detail: "Tailor messaging to each role involved in the purchase.", Category: "Audience", Confidence: 0.71},
}

// CannedResponse builds a deterministic response for query holding at most
// maxResults insights.
func CannedResponse(query string, maxResults int) AnalyzeResponse {
	n := min(maxResults, len(cannedInsights))
	if n < 0 {
		n = 0
	}
	insights := make([]Insight, n)
	copy(insights, cannedInsights[:n])

	return AnalyzeResponse{
		Insights: insights,
		Sources: []Source{
			{Title: "Search results for: " + query, URL: "https://example.com/search", Snippet: "Aggregated findings for the query."},
			{Title: "Industry benchmark report", URL: "https://example.com/benchmarks", Snippet: "Channel benchmarks across segments."},
		},
		TotalInsights: n,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
