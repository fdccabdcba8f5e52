package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/insightflow/internal/mcptools"
	"github.com/dusk-indust/insightflow/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control API (runs, event stream, metrics, MCP over HTTP)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if addr := v.GetString("addr"); addr != "" {
				cfg.ListenAddr = addr
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.executor, a.monitor,
				server.WithBounds(server.Bounds{
					Min:     cfg.MinMaxResults,
					Max:     cfg.MaxMaxResults,
					Default: cfg.DefaultMaxResults,
				}),
				server.WithPollInterval(cfg.PollInterval),
				server.WithMCPHandler(mcptools.HTTPHandler(a.mcpServer())),
				server.WithLogger(a.logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.ListenAddr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	cmd.Flags().Duration("poll-interval", 0, "connectivity poll interval")
	cmd.Flags().String("model", "", "model identifier shown in the analysis stage")
	return cmd
}

func newServeMCPCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs stay on stderr.
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcptools.RunStdio(ctx, a.mcpServer())
		},
	}
	cmd.Flags().String("model", "", "model identifier shown in the analysis stage")
	return cmd
}
