package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"github.com/dusk-indust/insightflow/internal/status"
)

// Mermaid produces a Mermaid flowchart of the stage pipeline. When run is
// non-nil each node is styled by its state in that run.
func Mermaid(stages []orchestrator.Stage, run *orchestrator.Run) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i, s := range stages {
		sb.WriteString(fmt.Sprintf("  S%d[\"%s<br/>%s\"]\n", i, s.Label, s.Hold))
	}
	for i := 1; i < len(stages); i++ {
		sb.WriteString(fmt.Sprintf("  S%d --> S%d\n", i-1, i))
	}

	if run == nil {
		return sb.String()
	}

	sb.WriteString("  classDef active fill:#fde68a,stroke:#d97706\n")
	sb.WriteString("  classDef complete fill:#bbf7d0,stroke:#16a34a\n")
	sb.WriteString("  classDef failed fill:#fecaca,stroke:#dc2626\n")

	rs := status.FromRun(*run, stages)
	for _, si := range rs.Stages {
		if si.State == status.StatePending {
			continue
		}
		sb.WriteString(fmt.Sprintf("  class S%d %s\n", si.Index, si.State))
	}
	return sb.String()
}
