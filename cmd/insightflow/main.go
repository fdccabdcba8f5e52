package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dusk-indust/insightflow/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "insightflow",
		Short:         "Run the animated research pipeline against an analysis service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.String("config-dir", ".", "directory holding insightflow.yml")
	pf.String("base-url", "", "analysis service base URL")
	pf.Duration("request-timeout", 0, "upper bound for one analysis request")
	pf.Duration("probe-timeout", 0, "upper bound for one health probe")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text or json)")

	root.AddCommand(
		newRunCmd(v),
		newServeCmd(v),
		newServeMCPCmd(v),
		newStubCmd(v),
		newWatchCmd(v),
		newDiagramCmd(v),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and layers flags and INSIGHTFLOW_*
// environment variables on top.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString("config-dir"))
	if err != nil {
		return nil, err
	}

	if v.IsSet("base-url") && v.GetString("base-url") != "" {
		cfg.BaseURL = v.GetString("base-url")
	}
	if d := v.GetDuration("request-timeout"); d > 0 {
		cfg.RequestTimeout = d
	}
	if d := v.GetDuration("probe-timeout"); d > 0 {
		cfg.ProbeTimeout = d
	}
	if d := v.GetDuration("poll-interval"); d > 0 {
		cfg.PollInterval = d
	}
	if s := v.GetString("model"); s != "" {
		cfg.Model = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("log-format"); s != "" {
		cfg.Log.Format = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
