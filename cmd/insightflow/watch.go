package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/dusk-indust/insightflow/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(_ *viper.Viper) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the event stream of a running control API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(url, "/")+"/runs/events", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("watch: connect: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return fmt.Errorf("watch: unexpected status %s", resp.Status)
			}

			stages := orchestrator.DefaultStages()
			out := cmd.OutOrStdout()
			for se := range server.ReadEvents(ctx, resp.Body) {
				if se.Err != nil {
					fmt.Fprintf(out, "  ? %v\n", se.Err)
					continue
				}
				fmt.Fprintln(out, orchestrator.FormatEvent(stages, se.Event))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080", "control API base URL")
	return cmd
}
