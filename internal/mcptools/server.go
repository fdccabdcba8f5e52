package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewInsightMCPServer creates an MCP server with the 4 insight tools registered:
// analyze, get_run, reset_run, and check_connectivity.
func NewInsightMCPServer(svc *InsightService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "insightflow",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze",
		Description: "Run the five-stage research pipeline for a query and wait for the result. Returns the insights, sources, and the stage trace, or the error that failed the run.",
	}, svc.Analyze)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_run",
		Description: "Get the current run: status, active stage, stage history, trace, and result or error.",
	}, svc.GetRun)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_run",
		Description: "Clear a finished run and return to idle. Fails while a run is in progress.",
	}, svc.ResetRun)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_connectivity",
		Description: "Probe the analysis backend health endpoint and report whether it is reachable.",
	}, svc.CheckConnectivity)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler exposes server over the streamable HTTP transport.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
