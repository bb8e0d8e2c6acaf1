package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetpham/calhacks25/internal/run"
)

// profileNode mirrors the engine's JSON profile tree. Only the fields the
// report cares about are decoded.
type profileNode struct {
	OperatorType        string        `json:"operator_type"`
	OperatorTiming      float64       `json:"operator_timing"`
	OperatorCardinality uint64        `json:"operator_cardinality"`
	OperatorRowsScanned uint64        `json:"operator_rows_scanned"`
	Children            []profileNode `json:"children"`
}

type profileRoot struct {
	Latency            float64       `json:"latency"`
	CPUTime            float64       `json:"cpu_time"`
	RowsReturned       uint64        `json:"rows_returned"`
	CumulativeRowsRead uint64        `json:"cumulative_rows_scanned"`
	Children           []profileNode `json:"children"`
}

// WriteProfiles persists each query's raw JSON profile and a markdown
// digest with the operator breakdown.
func WriteProfiles(dir string, outcomes []*run.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	var md strings.Builder
	md.WriteString("# Query Profiles\n")

	for _, o := range outcomes {
		if o.Profile == "" {
			continue
		}
		rawPath := filepath.Join(dir, fmt.Sprintf("q%d_profile.json", o.QueryID))
		if err := os.WriteFile(rawPath, []byte(o.Profile), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rawPath, err)
		}

		var root profileRoot
		if err := json.Unmarshal([]byte(o.Profile), &root); err != nil {
			// Raw profile is still on disk; skip the digest for this query.
			continue
		}

		fmt.Fprintf(&md, "\n## q%d\n\n", o.QueryID)
		fmt.Fprintf(&md, "- latency: %.6fs\n", root.Latency)
		fmt.Fprintf(&md, "- cpu time: %.6fs\n", root.CPUTime)
		fmt.Fprintf(&md, "- rows returned: %d\n", root.RowsReturned)
		fmt.Fprintf(&md, "- rows scanned: %d\n", root.CumulativeRowsRead)

		ops := flattenOperators(root.Children)
		if len(ops) > 0 {
			md.WriteString("\n| Operator | Time (s) | Cardinality | Rows Scanned |\n")
			md.WriteString("|----------|----------|-------------|--------------|\n")
			for _, op := range ops {
				fmt.Fprintf(&md, "| %s | %.6f | %d | %d |\n",
					op.OperatorType, op.OperatorTiming, op.OperatorCardinality, op.OperatorRowsScanned)
			}
		}
	}

	mdPath := filepath.Join(dir, "profiling_report.md")
	if err := os.WriteFile(mdPath, []byte(md.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	return nil
}

func flattenOperators(nodes []profileNode) []profileNode {
	var out []profileNode
	for _, n := range nodes {
		if n.OperatorType != "" {
			out = append(out, n)
		}
		out = append(out, flattenOperators(n.Children)...)
	}
	return out
}
