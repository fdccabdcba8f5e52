package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dusk-indust/insightflow/internal/analysis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStubCmd(v *viper.Viper) *cobra.Command {
	var (
		delay      time.Duration
		failStatus int
	)
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a canned analysis backend for demos and local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stub := analysis.NewStubService(version, "stub")
			if err := stub.FailWith(failStatus); err != nil {
				return err
			}
			stub.SetDelay(delay)

			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			addr := cfg.StubAddr
			if a := v.GetString("stub-addr"); a != "" {
				addr = a
			}
			logger := cfg.NewLogger(os.Stderr)

			if err := stub.Start(cmd.Context(), addr); err != nil {
				return err
			}
			logger.Info("stub analysis service listening", "component", "stub", "addr", addr)
			fmt.Fprintf(cmd.OutOrStdout(), "stub listening on %s\n", addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return stub.Stop(shutdownCtx)
		},
	}
	cmd.Flags().String("stub-addr", "", "listen address (default from config, :8000)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "delay before answering /analyze")
	cmd.Flags().IntVar(&failStatus, "fail-status", 0, "answer /analyze with this HTTP status")
	return cmd
}
