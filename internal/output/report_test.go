package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/threshold"
)

func sampleReport() Report {
	return Report{
		BuildID:     "01HXYZ",
		Environment: "nightly",
		Index:       "metrics-intake-2024-05",
		Results: []Result{
			{
				Scenario:    "ping",
				Action:      "ping",
				Category:    "core",
				Warmups:     10,
				Repetitions: 100,
				Status:      StatusReported,
				Stats: metrics.Stats{
					Total:          100,
					Successes:      95,
					Failures:       5,
					MeanLatency:    2 * time.Millisecond,
					Duration:       2 * time.Second,
					RequestsPerSec: 50.0,
				},
			},
			{
				Scenario: "get",
				Action:   "get",
				Category: "core",
				Status:   StatusSetupFailed,
				Error:    "setup failed for \"get\": connection refused",
			},
		},
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())

	output := buf.String()
	for _, want := range []string{
		"Benchmark Results",
		"01HXYZ",
		"metrics-intake-2024-05",
		"ping [core] REPORTED",
		"Successful:      95",
		"Failed:          5",
		"mean=2ms",
		"get [core] SETUP-FAILED",
		"connection refused",
		"1 of 2 scenarios failed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrintReportAllPassed(t *testing.T) {
	rep := sampleReport()
	rep.Results = rep.Results[:1]
	var buf bytes.Buffer
	PrintReport(&buf, rep)
	if strings.Contains(buf.String(), "scenarios failed") {
		t.Errorf("unexpected failure line:\n%s", buf.String())
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintJSONReport failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[1].Status != StatusSetupFailed {
		t.Errorf("unexpected results: %+v", decoded.Results)
	}
	if !strings.Contains(buf.String(), `"requests_per_sec": 50`) {
		t.Errorf("expected stats in JSON output:\n%s", buf.String())
	}
}

func TestResultFailed(t *testing.T) {
	tests := map[Status]bool{
		StatusReported:     false,
		StatusDryRun:       false,
		StatusReportFailed: true,
		StatusSetupFailed:  true,
		StatusWarmupFailed: true,
		StatusThresholds:   true,
		StatusError:        true,
	}
	for status, want := range tests {
		if got := (Result{Status: status}).Failed(); got != want {
			t.Errorf("Result{%s}.Failed() = %v, want %v", status, got, want)
		}
	}
}

func TestPrintReportThresholds(t *testing.T) {
	rep := sampleReport()
	rep.Results[0].Status = StatusThresholds
	rep.Results[0].Thresholds = []threshold.Result{
		{Threshold: "duration:avg < 1", Actual: 2, Pass: false, Message: "✗ duration:avg < 1: 2.00 < 1.00"},
	}

	var buf bytes.Buffer
	PrintReport(&buf, rep)
	out := buf.String()
	if !strings.Contains(out, "ping [core] THRESHOLDS-FAILED") {
		t.Errorf("expected threshold status in output:\n%s", out)
	}
	if !strings.Contains(out, "✗ duration:avg < 1: 2.00 < 1.00") {
		t.Errorf("expected threshold message in output:\n%s", out)
	}
	if !strings.Contains(out, "2 of 2 scenarios failed") {
		t.Errorf("expected failure count in output:\n%s", out)
	}
}
