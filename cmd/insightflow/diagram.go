package main

import (
	"fmt"

	"github.com/dusk-indust/insightflow/internal/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDiagramCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram",
		Short: "Print a Mermaid diagram of the stage pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			stages, err := cfg.Stages()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), export.Mermaid(stages, nil))
			return nil
		},
	}
}
