package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/threshold"
)

// Status describes how far a scenario got.
type Status string

const (
	StatusReported     Status = "reported"
	StatusDryRun       Status = "dry-run"
	StatusReportFailed Status = "report-failed"
	StatusSetupFailed  Status = "setup-failed"
	StatusWarmupFailed Status = "warmup-failed"
	StatusThresholds   Status = "thresholds-failed"
	StatusError        Status = "error"
)

// Result is the outcome of one scenario run.
type Result struct {
	Scenario    string        `json:"scenario"`
	Action      string        `json:"action"`
	Category    string        `json:"category"`
	Warmups     int           `json:"warmups"`
	Repetitions int           `json:"repetitions"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Stats       metrics.Stats `json:"stats"`

	Thresholds []threshold.Result `json:"thresholds,omitempty"`
}

// Failed reports whether the scenario should fail the invocation.
func (r Result) Failed() bool {
	return r.Status != StatusReported && r.Status != StatusDryRun
}

// Report is the summary of a whole invocation.
type Report struct {
	BuildID     string   `json:"build_id"`
	Environment string   `json:"environment"`
	Index       string   `json:"index,omitempty"`
	Results     []Result `json:"results"`
}

// Failed returns the number of failed scenarios.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, rep Report) {
	fmt.Fprintln(w, "\n--- Benchmark Results ---")
	fmt.Fprintf(w, "Build:             %s\n", rep.BuildID)
	fmt.Fprintf(w, "Environment:       %s\n", rep.Environment)
	if rep.Index != "" {
		fmt.Fprintf(w, "Index:             %s\n", rep.Index)
	}

	for _, res := range rep.Results {
		stats := res.Stats
		fmt.Fprintf(w, "\n%s [%s] %s\n", res.Action, res.Category, strings.ToUpper(string(res.Status)))
		if res.Error != "" {
			fmt.Fprintf(w, "  Error:           %s\n", res.Error)
		}
		if stats.Total == 0 {
			continue
		}
		fmt.Fprintf(w, "  Repetitions:     %d (warmups %d)\n", stats.Total, res.Warmups)
		fmt.Fprintf(w, "  Successful:      %d\n", stats.Successes)
		fmt.Fprintf(w, "  Failed:          %d\n", stats.Failures)
		fmt.Fprintf(w, "  Duration:        %s\n", stats.Duration)
		fmt.Fprintf(w, "  Requests/sec:    %.2f\n", stats.RequestsPerSec)
		fmt.Fprintf(w, "  Latency:         min=%s mean=%s max=%s\n", stats.MinLatency, stats.MeanLatency, stats.MaxLatency)
		if len(res.Thresholds) > 0 {
			fmt.Fprintln(w, "  Thresholds:")
			for _, th := range res.Thresholds {
				fmt.Fprintf(w, "    %s\n", th.Message)
			}
		}
	}

	if failed := rep.Failed(); failed > 0 {
		fmt.Fprintf(w, "\n%d of %d scenarios failed\n", failed, len(rep.Results))
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
