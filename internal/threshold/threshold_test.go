package threshold

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/crankbench/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "mean latency",
			input: "duration:avg < 5",
			want:  Threshold{Metric: "duration", Aggregate: "avg", Operator: "<", Value: 5, Raw: "duration:avg < 5"},
		},
		{
			name:  "failure rate",
			input: "failed:rate <= 0.01",
			want:  Threshold{Metric: "failed", Aggregate: "rate", Operator: "<=", Value: 0.01, Raw: "failed:rate <= 0.01"},
		},
		{
			name:  "throughput without spaces",
			input: "  repetitions:rate>100 ",
			want:  Threshold{Metric: "repetitions", Aggregate: "rate", Operator: ">", Value: 100, Raw: "repetitions:rate>100"},
		},
		{name: "empty", input: "", wantError: true},
		{name: "bad format", input: "duration < 5", wantError: true},
		{name: "unknown metric", input: "latency:avg < 5", wantError: true},
		{name: "percentile not supported", input: "duration:p99 < 5", wantError: true},
		{name: "aggregate for wrong metric", input: "failed:max < 5", wantError: true},
		{name: "bad operator", input: "duration:avg != 5", wantError: true},
		{name: "bad value", input: "duration:avg < 1.2.3", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultipleCollectsErrors(t *testing.T) {
	_, err := ParseMultiple([]string{"duration:avg < 5", "bogus", "failed:nope < 1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Errorf("error should list every bad threshold: %v", err)
	}

	got, err := ParseMultiple(nil)
	if err != nil || got != nil {
		t.Errorf("ParseMultiple(nil) = %v, %v", got, err)
	}
}

func TestEvaluate(t *testing.T) {
	stats := metrics.Stats{
		Total:          200,
		Successes:      198,
		Failures:       2,
		MinLatencyMs:   0.5,
		MeanLatencyMs:  2.5,
		MaxLatencyMs:   40,
		RequestsPerSec: 350,
		Duration:       time.Second,
	}

	tests := []struct {
		expr   string
		actual float64
		pass   bool
	}{
		{"duration:avg < 5", 2.5, true},
		{"duration:mean < 2", 2.5, false},
		{"duration:min >= 0.5", 0.5, true},
		{"duration:max < 40", 40, false},
		{"failed:rate < 0.02", 0.01, true},
		{"failed:count == 0", 2, false},
		{"repetitions:rate > 300", 350, true},
		{"repetitions:count == 200", 200, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			th, err := Parse(tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			res := Evaluate([]Threshold{th}, stats)
			if len(res) != 1 {
				t.Fatalf("expected 1 result, got %d", len(res))
			}
			if res[0].Actual != tt.actual || res[0].Pass != tt.pass {
				t.Errorf("got actual=%v pass=%v, want %v %v", res[0].Actual, res[0].Pass, tt.actual, tt.pass)
			}
			if res[0].Threshold != tt.expr {
				t.Errorf("threshold = %q", res[0].Threshold)
			}
		})
	}
}

func TestEvaluateNoSamples(t *testing.T) {
	th, _ := Parse("failed:rate == 0")
	res := Evaluate([]Threshold{th}, metrics.Stats{})
	if !res[0].Pass {
		t.Errorf("empty run should have zero failure rate: %+v", res[0])
	}
}

func TestAllPassed(t *testing.T) {
	if !AllPassed(nil) {
		t.Error("no results should pass")
	}
	if AllPassed([]Result{{Pass: true}, {Pass: false}}) {
		t.Error("expected failure")
	}
	if Evaluate(nil, metrics.Stats{}) != nil {
		t.Error("no thresholds should yield nil results")
	}
}
