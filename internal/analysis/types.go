package analysis

// HealthyStatus is the status value the service reports when it can serve
// analysis requests.
const HealthyStatus = "healthy"

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Prompt     string `json:"prompt"`
	MaxResults int    `json:"max_results"`
}

// Insight is one finding produced by the analysis service.
type Insight struct {
	Title      string  `json:"title"`
	Detail     string  `json:"detail"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Source is a web source the service consulted.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// AnalyzeResponse is the parsed body of a successful POST /analyze.
type AnalyzeResponse struct {
	Insights      []Insight `json:"insights"`
	Sources       []Source  `json:"sources"`
	TotalInsights int       `json:"total_insights"`
	// ProcessingTime is the service-side processing time in seconds.
	ProcessingTime float64 `json:"processing_time"`
	// Timestamp is an ISO-8601 string; empty when the service omitted it.
	Timestamp string `json:"timestamp,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Healthy reports whether the response advertises a ready service.
func (h *HealthResponse) Healthy() bool {
	return h != nil && h.Status == HealthyStatus
}

// errorBody is the JSON shape the service uses for failures.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}
