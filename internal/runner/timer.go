package runner

import "time"

// Clock supplies time readings to a Timer.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now, which carries a monotonic reading.
func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock.
var SystemClock Clock = systemClock{}

// Timer produces stopwatches whose elapsed time is immune to wall-clock
// adjustment as long as the clock readings carry a monotonic component.
type Timer struct {
	clock Clock
}

// NewTimer returns a Timer reading from clock, or the system clock when nil.
func NewTimer(clock Clock) Timer {
	if clock == nil {
		clock = SystemClock
	}
	return Timer{clock: clock}
}

// Now returns the current reading of the underlying clock.
func (t Timer) Now() time.Time {
	if t.clock == nil {
		return SystemClock.Now()
	}
	return t.clock.Now()
}

// Start begins a new stopwatch.
func (t Timer) Start() Stopwatch {
	return Stopwatch{timer: t, started: t.Now()}
}

// Stopwatch measures time elapsed since Timer.Start.
type Stopwatch struct {
	timer   Timer
	started time.Time
}

// Elapsed returns the time since the stopwatch started, truncated to whole
// nanoseconds and clamped at zero.
func (s Stopwatch) Elapsed() time.Duration {
	d := s.timer.Now().Sub(s.started)
	if d < 0 {
		return 0
	}
	return d
}
