package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// insightflowMCPEntry is the MCP server configuration for the insightflow binary.
var insightflowMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "insightflow",
  "args": ["serve-mcp"]
}`)

func newInitCmd() *cobra.Command {
	var (
		projectRoot string
		force       bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Register the insightflow MCP server in a project's .mcp.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(projectRoot)
			if err != nil {
				return fmt.Errorf("resolving project root: %w", err)
			}
			return mergeMCPConfig(cmd.OutOrStdout(), filepath.Join(abs, ".mcp.json"), force)
		},
	}
	cmd.Flags().StringVar(&projectRoot, "project-root", ".", "path to the target project")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing insightflow entry")
	return cmd
}

// mergeMCPConfig creates or merges the insightflow entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["insightflow"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json insightflow entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["insightflow"] = insightflowMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with insightflow MCP server\n", action)
	return nil
}
