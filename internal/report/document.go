package report

import (
	"time"

	"github.com/torosent/crankbench/internal/runner"
)

// BenchmarkTag marks every document produced by the tool.
const BenchmarkTag = "bench"

// Document is the telemetry record stored for one measured repetition.
type Document struct {
	Timestamp string    `json:"@timestamp"`
	Labels    Labels    `json:"labels"`
	Tags      []string  `json:"tags"`
	Event     Event     `json:"event"`
	Benchmark Benchmark `json:"benchmark"`
}

type Labels struct {
	Client      string `json:"client"`
	Environment string `json:"environment"`
}

type Event struct {
	Action   string `json:"action"`
	Duration int64  `json:"duration"` // nanoseconds
	Outcome  string `json:"outcome"`
}

type Benchmark struct {
	BuildID     string                 `json:"build_id"`
	Environment string                 `json:"environment"`
	Category    string                 `json:"category"`
	Repetitions int                    `json:"repetitions"`
	Runner      RunnerInfo             `json:"runner"`
	Target      map[string]interface{} `json:"target"`
}

type RunnerInfo struct {
	Service Service `json:"service"`
	Runtime Runtime `json:"runtime"`
	OS      OS      `json:"os"`
}

type Service struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Runtime struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type OS struct {
	Family string `json:"family"`
}

// NewDocument builds the document for one sample.
func NewDocument(client string, meta runner.Metadata, s runner.Sample) Document {
	duration := s.Duration
	if duration < 0 {
		duration = 0
	}
	target := meta.Target
	if target == nil {
		target = map[string]interface{}{}
	}
	return Document{
		Timestamp: s.Start.UTC().Format(time.RFC3339Nano),
		Labels: Labels{
			Client:      client,
			Environment: meta.Environment,
		},
		Tags: []string{BenchmarkTag, client},
		Event: Event{
			Action:   meta.Action,
			Duration: duration.Nanoseconds(),
			Outcome:  string(s.Outcome),
		},
		Benchmark: Benchmark{
			BuildID:     meta.BuildID,
			Environment: meta.Environment,
			Category:    meta.Category,
			Repetitions: meta.Repetitions,
			Runner: RunnerInfo{
				Service: Service{
					Type:    meta.Runner.ServiceType,
					Name:    meta.Runner.ServiceName,
					Version: meta.Runner.ServiceVersion,
				},
				Runtime: Runtime{
					Name:    meta.Runner.RuntimeName,
					Version: meta.Runner.RuntimeVersion,
				},
				OS: OS{Family: meta.Runner.OSFamily},
			},
			Target: target,
		},
	}
}
