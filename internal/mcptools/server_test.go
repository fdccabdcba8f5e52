package mcptools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInvoker implements orchestrator.Invoker with a configurable function.
type mockInvoker struct {
	analyze func(ctx context.Context, query string, maxResults int) (*analysis.AnalyzeResponse, error)
}

func (m *mockInvoker) Analyze(ctx context.Context, query string, maxResults int) (*analysis.AnalyzeResponse, error) {
	return m.analyze(ctx, query, maxResults)
}

// gateFunc adapts a func to orchestrator.Gate.
type gateFunc func(ctx context.Context) bool

func (f gateFunc) Probe(ctx context.Context) bool { return f(ctx) }

func noHold(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newExecutor(inv orchestrator.Invoker, gate orchestrator.Gate) *orchestrator.Executor {
	return orchestrator.NewExecutor(inv, gate,
		orchestrator.WithAnimator(orchestrator.NewAnimator(orchestrator.WithSleeper(noHold))))
}

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T, svc *InsightService) *mcp.ClientSession {
	t.Helper()

	server := NewInsightMCPServer(svc)
	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() { session.Close() })
	return session
}

func decodeStructured[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.NotNil(t, result.StructuredContent, "expected structured content")
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestMCPListTools(t *testing.T) {
	ex := newExecutor(&mockInvoker{}, nil)
	session := setupServerClient(t, NewInsightService(ex, nil, 5))

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"analyze", "get_run", "reset_run", "check_connectivity"}, names)
}

func TestMCPAnalyze_Success(t *testing.T) {
	var gotMax int
	inv := &mockInvoker{analyze: func(_ context.Context, _ string, maxResults int) (*analysis.AnalyzeResponse, error) {
		gotMax = maxResults
		resp := analysis.CannedResponse("q", 3)
		return &resp, nil
	}}
	ex := newExecutor(inv, gateFunc(func(context.Context) bool { return true }))
	session := setupServerClient(t, NewInsightService(ex, nil, 7))
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze",
		Arguments: AnalyzeInput{Query: "best B2B SaaS channels"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "analyze should succeed")

	out := decodeStructured[AnalyzeOutput](t, result)
	assert.Equal(t, 7, gotMax, "default max results applied")
	assert.Equal(t, "succeeded", out.Run.Status)
	assert.Len(t, out.Run.Trace, 5)
	require.NotNil(t, out.Run.Result)
	assert.Len(t, out.Run.Result.Insights, 3)
	assert.Equal(t, 5, out.Run.Result.Metadata.StagesExecuted)

	// get_run sees the same terminal run.
	result, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "get_run", Arguments: map[string]any{}})
	require.NoError(t, err)
	got := decodeStructured[GetRunOutput](t, result)
	assert.Equal(t, out.Run.ID, got.Run.ID)

	// reset_run clears it.
	result, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "reset_run", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, orchestrator.StatusIdle, ex.Snapshot().Status)
}

func TestMCPAnalyze_RunFailureInOutput(t *testing.T) {
	inv := &mockInvoker{analyze: func(context.Context, string, int) (*analysis.AnalyzeResponse, error) {
		return nil, &analysis.HTTPStatusError{Op: "analyze", Code: 502}
	}}
	session := setupServerClient(t, NewInsightService(newExecutor(inv, nil), nil, 5))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "analyze",
		Arguments: AnalyzeInput{Query: "q", MaxResults: 4},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := decodeStructured[AnalyzeOutput](t, result)
	assert.Equal(t, "failed", out.Run.Status)
	require.NotNil(t, out.Run.Error)
	assert.Equal(t, analysis.KindHTTPStatus, out.Run.Error.Kind)
	assert.Equal(t, 502, out.Run.Error.StatusCode)
	assert.Equal(t, orchestrator.ErrorEntryStage, out.Run.Trace[len(out.Run.Trace)-1].Stage)
}

func TestMCPAnalyze_Rejected(t *testing.T) {
	ex := newExecutor(&mockInvoker{}, gateFunc(func(context.Context) bool { return false }))
	session := setupServerClient(t, NewInsightService(ex, nil, 5))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "analyze",
		Arguments: AnalyzeInput{Query: "q"},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError, "unreachable backend should be a tool error")
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "analysis backend unavailable")
	assert.Equal(t, orchestrator.StatusIdle, ex.Snapshot().Status)
}

func TestInsightService_EmptyQuery(t *testing.T) {
	svc := NewInsightService(newExecutor(&mockInvoker{}, nil), nil, 5)

	_, _, err := svc.Analyze(context.Background(), nil, AnalyzeInput{Query: "   "})
	require.ErrorIs(t, err, orchestrator.ErrEmptyQuery)
}

func TestInsightService_CheckConnectivity(t *testing.T) {
	ex := newExecutor(&mockInvoker{}, nil)

	_, out, err := NewInsightService(ex, gateFunc(func(context.Context) bool { return false }), 5).
		CheckConnectivity(context.Background(), nil, CheckConnectivityInput{})
	require.NoError(t, err)
	assert.False(t, out.Reachable)

	_, out, err = NewInsightService(ex, nil, 5).CheckConnectivity(context.Background(), nil, CheckConnectivityInput{})
	require.NoError(t, err)
	assert.True(t, out.Reachable)
}

func TestInsightService_ResetWhileRunning(t *testing.T) {
	unblock := make(chan struct{})
	inv := &mockInvoker{analyze: func(context.Context, string, int) (*analysis.AnalyzeResponse, error) {
		<-unblock
		return &analysis.AnalyzeResponse{}, nil
	}}
	ex := newExecutor(inv, nil)
	svc := NewInsightService(ex, nil, 5)

	x, err := ex.Start(context.Background(), "q", orchestrator.Params{MaxResults: 5})
	require.NoError(t, err)

	_, _, err = svc.ResetRun(context.Background(), nil, ResetRunInput{})
	require.ErrorIs(t, err, orchestrator.ErrRunInProgress)

	close(unblock)
	_, err = x.Wait(context.Background())
	require.NoError(t, err)

	_, out, err := svc.ResetRun(context.Background(), nil, ResetRunInput{})
	require.NoError(t, err)
	assert.Equal(t, "idle", out.Status)
}
