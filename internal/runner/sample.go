package runner

import "time"

// Outcome classifies a single measured repetition.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Sample records one measured repetition.
type Sample struct {
	Start    time.Time     // UTC wall clock, taken before the stopwatch starts
	Duration time.Duration // elapsed monotonic time, never negative
	Outcome  Outcome
}

// Failed reports whether the repetition was classified as a failure.
func (s Sample) Failed() bool {
	return s.Outcome == OutcomeFailure
}
