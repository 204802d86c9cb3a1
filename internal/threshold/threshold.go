package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/crankbench/internal/metrics"
)

const (
	MetricDuration    = "duration"
	MetricFailed      = "failed"
	MetricRepetitions = "repetitions"
)

// Threshold is an assertion over the summary of one scenario.
type Threshold struct {
	Metric    string  // duration, failed or repetitions
	Aggregate string  // avg, min, max, rate or count
	Operator  string  // <, <=, >, >=, ==
	Value     float64 // compared against the actual value
	Raw       string
}

// Result is the outcome of evaluating a threshold.
type Result struct {
	Threshold string  `json:"threshold"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
	Message   string  `json:"message"`
}

var pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var aggregates = map[string][]string{
	MetricDuration:    {"avg", "mean", "min", "max"},
	MetricFailed:      {"rate", "count"},
	MetricRepetitions: {"rate", "count"},
}

// Parse parses a threshold such as:
//
//	duration:avg < 5        mean latency in milliseconds
//	duration:max < 250      max latency in milliseconds
//	failed:rate < 0.01      share of failed repetitions
//	failed:count == 0       number of failed repetitions
//	repetitions:rate > 100  repetitions per second
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'duration:avg < 5')", s)
	}
	metric, aggregate, operator, raw := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", raw, err)
	}

	allowed, ok := aggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: duration, failed, repetitions)", metric)
	}
	if !contains(allowed, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(allowed, ", "))
	}
	if !contains([]string{"<", "<=", ">", ">=", "=="}, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses every threshold and reports all malformed ones.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

// Evaluate checks every threshold against stats.
func Evaluate(thresholds []Threshold, stats metrics.Stats) []Result {
	if len(thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		actual := value(t, stats)
		pass := compare(actual, t.Operator, t.Value)
		status := "✓"
		if !pass {
			status = "✗"
		}
		results = append(results, Result{
			Threshold: t.Raw,
			Actual:    actual,
			Pass:      pass,
			Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
		})
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func value(t Threshold, stats metrics.Stats) float64 {
	switch t.Metric {
	case MetricDuration:
		switch t.Aggregate {
		case "min":
			return stats.MinLatencyMs
		case "max":
			return stats.MaxLatencyMs
		default:
			return stats.MeanLatencyMs
		}
	case MetricFailed:
		if t.Aggregate == "count" {
			return float64(stats.Failures)
		}
		if stats.Total == 0 {
			return 0
		}
		return float64(stats.Failures) / float64(stats.Total)
	default:
		if t.Aggregate == "count" {
			return float64(stats.Total)
		}
		return stats.RequestsPerSec
	}
}

func compare(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
