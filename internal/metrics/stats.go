package metrics

import (
	"time"

	"github.com/torosent/crankbench/internal/runner"
)

// Stats represents the aggregate of one run's samples.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`
}

// SuccessRate returns the share of successful repetitions in [0, 1].
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Total)
}

// Summarize aggregates samples. Duration spans from the first sample's start
// to the end of the last one.
func Summarize(samples []runner.Sample) Stats {
	var stats Stats
	if len(samples) == 0 {
		return stats
	}

	var sum time.Duration
	for i, s := range samples {
		if s.Failed() {
			stats.Failures++
		} else {
			stats.Successes++
		}
		sum += s.Duration
		if i == 0 || s.Duration < stats.MinLatency {
			stats.MinLatency = s.Duration
		}
		if s.Duration > stats.MaxLatency {
			stats.MaxLatency = s.Duration
		}
	}
	stats.Total = int64(len(samples))
	stats.MeanLatency = time.Duration(int64(sum) / stats.Total)

	first, last := samples[0], samples[len(samples)-1]
	stats.Duration = last.Start.Add(last.Duration).Sub(first.Start)
	if stats.Duration < sum {
		// wall clock steps between samples; fall back to measured time
		stats.Duration = sum
	}
	if stats.Duration > 0 {
		stats.RequestsPerSec = float64(stats.Total) / stats.Duration.Seconds()
	}

	stats.MinLatencyMs = toMs(stats.MinLatency)
	stats.MaxLatencyMs = toMs(stats.MaxLatency)
	stats.MeanLatencyMs = toMs(stats.MeanLatency)
	stats.DurationMs = toMs(stats.Duration)
	return stats
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
