package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dusk-indust/insightflow/internal/telemetry"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// DefaultTimeout bounds every call made by an HTTPClient.
const DefaultTimeout = 60 * time.Second

const (
	opAnalyze = "analyze"
	opHealth  = "health"

	maxDetailLen = 200
)

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the upper bound applied to each call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// NewHTTPClient creates a client for the analysis service rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "analysis-client")
	return c
}

// BaseURL returns the service root this client talks to.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Analyze sends one POST /analyze request. A non-positive maxResults fails
// with *InvalidParameterError without touching the network.
func (c *HTTPClient) Analyze(ctx context.Context, query string, maxResults int) (*AnalyzeResponse, error) {
	if maxResults <= 0 {
		return nil, &InvalidParameterError{Name: "max_results", Value: maxResults}
	}

	start := time.Now()
	var resp AnalyzeResponse
	err := c.call(ctx, opAnalyze, http.MethodPost, "/analyze", AnalyzeRequest{
		Prompt:     query,
		MaxResults: maxResults,
	}, &resp)
	if err == nil {
		err = validateResponse(&resp)
	}

	elapsed := time.Since(start)
	telemetry.ObserveRemoteRequest(resultLabel(err), elapsed)

	if err != nil {
		c.logger.Warn("analyze request failed", "error", err, "elapsed", elapsed)
		return nil, err
	}
	c.logger.Debug("analyze request complete",
		"insights", len(resp.Insights),
		"sources", len(resp.Sources),
		"elapsed", elapsed)
	return &resp, nil
}

// Health fetches GET /health.
func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.call(ctx, opHealth, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// call performs one HTTP round trip and decodes a 2xx JSON body into out.
func (c *HTTPClient) call(ctx context.Context, op, method, path string, body any, out any) error {
	bound := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < bound {
			bound = max(remaining.Round(time.Millisecond), 0)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("analysis: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return classify(ctx, op, bound, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, op, bound, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPStatusError{
			Op:     op,
			Code:   resp.StatusCode,
			Detail: extractDetail(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// classify maps a failed round trip onto TimeoutError or TransportError.
// bound is the tighter of the client timeout and the caller's deadline.
func classify(ctx context.Context, op string, bound time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, After: bound}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Op: op, After: bound}
	}
	return &TransportError{Op: op, Err: err}
}

// validateResponse rejects payloads that parsed but are out of contract.
func validateResponse(resp *AnalyzeResponse) error {
	for i, ins := range resp.Insights {
		if math.IsNaN(ins.Confidence) || ins.Confidence < 0 || ins.Confidence > 1 {
			return &DecodeError{
				Op:  opAnalyze,
				Err: fmt.Errorf("insight %d: confidence %v outside [0,1]", i, ins.Confidence),
			}
		}
	}
	if resp.TotalInsights < 0 {
		return &DecodeError{Op: opAnalyze, Err: fmt.Errorf("negative total_insights %d", resp.TotalInsights)}
	}
	return nil
}

// extractDetail pulls a human-readable message out of an error body,
// preferring the service's {"detail": ...} field.
func extractDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Detail != "" {
			return eb.Detail
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	detail := strings.ToValidUTF8(strings.TrimSpace(string(body)), "\uFFFD")
	if len(detail) > maxDetailLen {
		cut := maxDetailLen
		for cut > 0 && !utf8.RuneStart(detail[cut]) {
			cut--
		}
		detail = detail[:cut] + "..."
	}
	return detail
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return Kind(err)
}
