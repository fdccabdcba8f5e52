package main

import (
	"log/slog"
	"os"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/dusk-indust/insightflow/internal/config"
	"github.com/dusk-indust/insightflow/internal/connectivity"
	"github.com/dusk-indust/insightflow/internal/mcptools"
	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *analysis.HTTPClient
	monitor  *connectivity.Monitor
	executor *orchestrator.Executor
}

func newApp(cfg *config.Config) (*app, error) {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if _, err := cfg.Stages(); err != nil {
		return nil, err
	}

	client := analysis.NewHTTPClient(cfg.BaseURL,
		analysis.WithTimeout(cfg.RequestTimeout),
		analysis.WithLogger(logger))

	monitor := connectivity.NewMonitor(client,
		connectivity.WithProbeTimeout(cfg.ProbeTimeout),
		connectivity.WithLogger(logger))

	executor := orchestrator.NewExecutor(client, monitor,
		orchestrator.WithStageHolds(cfg.StageHolds),
		orchestrator.WithModel(cfg.Model),
		orchestrator.WithLogger(logger))

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		monitor:  monitor,
		executor: executor,
	}, nil
}

func (a *app) mcpServer() *mcp.Server {
	return mcptools.NewInsightMCPServer(
		mcptools.NewInsightService(a.executor, a.monitor, a.cfg.DefaultMaxResults))
}

func (a *app) Close() {
	a.monitor.Close()
	a.executor.Close()
}
