// Package report renders and persists benchmark output: per-query result
// CSVs, the timing summary, comparison verdicts, and profiling reports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/jetpham/calhacks25/internal/check"
	"github.com/jetpham/calhacks25/internal/run"
)

// WriteResultCSVs writes each successful outcome to <dir>/q<N>.csv. Files
// are independent, so the writes run concurrently.
func WriteResultCSVs(dir string, outcomes []*run.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var g errgroup.Group
	for _, o := range outcomes {
		if o.Err != nil || o.Rows == nil {
			continue
		}
		g.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("q%d.csv", o.QueryID))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			w := csv.NewWriter(f)
			if err := w.Write(o.Rows.Columns); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			for _, row := range o.Rows.Rows {
				if err := w.Write(row); err != nil {
					_ = f.Close()
					return fmt.Errorf("write %s: %w", path, err)
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				_ = f.Close()
				return fmt.Errorf("flush %s: %w", path, err)
			}
			return f.Close()
		})
	}
	return g.Wait()
}

// RenderSummary prints the per-query timing table and the grand total.
func RenderSummary(w io.Writer, summary *run.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Query", "Source", "Runs", "Min (s)", "Avg (s)", "Max (s)"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, stat := range summary.Stats {
		table.Append([]string{
			fmt.Sprintf("q%d", stat.QueryID),
			stat.Source,
			fmt.Sprintf("%d", len(stat.Durations)),
			formatSeconds(stat.Min()),
			formatSeconds(stat.Average()),
			formatSeconds(stat.Max()),
		})
	}
	table.Render()
	fmt.Fprintf(w, "\nTotal: %s across %d queries (session %s)\n",
		formatSeconds(summary.Total), len(summary.Stats), summary.SessionID)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

// summaryJSON is the machine-readable form of the session summary.
type summaryJSON struct {
	SessionID string         `json:"session_id"`
	TotalSec  float64        `json:"total_seconds"`
	Queries   []queryStatRow `json:"queries"`
}

type queryStatRow struct {
	QueryID int       `json:"query_id"`
	Source  string    `json:"source"`
	Runs    int       `json:"runs"`
	MinSec  float64   `json:"min_seconds"`
	AvgSec  float64   `json:"avg_seconds"`
	MaxSec  float64   `json:"max_seconds"`
	RunsSec []float64 `json:"run_seconds"`
}

// WriteSummaryJSON persists the summary for downstream tooling.
func WriteSummaryJSON(path string, summary *run.Summary) error {
	out := summaryJSON{SessionID: summary.SessionID, TotalSec: summary.Total.Seconds()}
	for _, stat := range summary.Stats {
		row := queryStatRow{
			QueryID: stat.QueryID,
			Source:  stat.Source,
			Runs:    len(stat.Durations),
			MinSec:  stat.Min().Seconds(),
			AvgSec:  stat.Average().Seconds(),
			MaxSec:  stat.Max().Seconds(),
		}
		for _, d := range stat.Durations {
			row.RunsSec = append(row.RunsSec, d.Seconds())
		}
		out.Queries = append(out.Queries, row)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// RenderCheckReports prints one verdict line per query and returns the
// number of failures.
func RenderCheckReports(w io.Writer, reports []*check.Report) int {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	failures := 0
	for _, r := range reports {
		if r.OK() {
			fmt.Fprintf(w, "%s q%d\n", pass("PASS"), r.QueryID)
			continue
		}
		failures++
		fmt.Fprintf(w, "%s q%d: %s\n", fail("FAIL"), r.QueryID, r)
		for i, m := range r.Mismatches {
			if i == 10 {
				fmt.Fprintf(w, "  ... %d more\n", len(r.Mismatches)-i)
				break
			}
			fmt.Fprintf(w, "  row %d col %s: expected %q, got %q\n", m.Row, m.Column, m.Expected, m.Actual)
		}
	}
	fmt.Fprintf(w, "\n%d/%d queries passed\n", len(reports)-failures, len(reports))
	return failures
}
