package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dusk-indust/insightflow/internal/export"
	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/dusk-indust/insightflow/internal/status"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	var (
		maxResults int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run one query through the pipeline and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-results") {
				maxResults = cfg.DefaultMaxResults
			}
			if err := cfg.CheckMaxResults(maxResults); err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			query := strings.Join(args, " ")
			return runQuery(ctx, cmd.OutOrStdout(), a.executor, query, maxResults, asJSON)
		},
	}
	cmd.Flags().IntVar(&maxResults, "max-results", orchestrator.DefaultMaxResults, "number of insights to request")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run export as JSON instead of a summary")
	return cmd
}

// runQuery starts a run, narrates its events to w, and prints the outcome.
func runQuery(ctx context.Context, w io.Writer, orch orchestrator.Orchestrator, query string, maxResults int, asJSON bool) error {
	stages := orch.Stages()
	events, cancel := orch.Subscribe()
	defer cancel()

	x, err := orch.Start(ctx, query, orchestrator.Params{MaxResults: maxResults})
	if err != nil {
		return err
	}

	narrated := make(chan struct{})
	go func() {
		defer close(narrated)
		for ev := range events {
			if !asJSON {
				fmt.Fprintln(w, orchestrator.FormatEvent(stages, ev))
			}
		}
	}()

	run, runErr := x.Wait(ctx)
	if !run.Status.IsTerminal() {
		return runErr
	}
	// Drain the buffered events so the narration ends before the summary.
	cancel()
	<-narrated

	if asJSON {
		return export.WriteJSON(w, export.ExportRun(run, stages, run.FinishedAt))
	}

	fmt.Fprintln(w)
	status.PrintTable(w, status.FromRun(run, stages))
	if run.Result != nil {
		fmt.Fprintln(w)
		for i, in := range run.Result.Insights {
			fmt.Fprintf(w, "%d. %s (%s, %.2f)\n   %s\n", i+1, in.Title, in.Category, in.Confidence, in.Detail)
		}
		for _, src := range run.Result.Sources {
			fmt.Fprintf(w, "   - %s <%s>\n", src.Title, src.URL)
		}
	}
	return runErr
}
