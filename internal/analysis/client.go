package analysis

import "context"

// Client is the interface for talking to the remote analysis service.
type Client interface {
	// Analyze sends exactly one analysis request for query and returns the
	// parsed response. It never retries.
	Analyze(ctx context.Context, query string, maxResults int) (*AnalyzeResponse, error)

	// Health fetches the service health document.
	Health(ctx context.Context) (*HealthResponse, error)
}
