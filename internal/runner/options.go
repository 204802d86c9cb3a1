package runner

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/crankbench/internal/variables"
)

// Reporter persists the samples of a completed run.
// Implementations return an error when the samples could not be stored.
type Reporter interface {
	Report(ctx context.Context, meta Metadata, samples []Sample) error
}

// Descriptor identifies the process producing the samples.
type Descriptor struct {
	ServiceType    string
	ServiceName    string
	ServiceVersion string
	RuntimeName    string
	RuntimeVersion string
	OSFamily       string
}

// Identity is metadata attached verbatim to every reported sample.
type Identity struct {
	BuildID     string
	Category    string
	Environment string
	Target      map[string]interface{} // opaque, passed through to the reporter
	Runner      Descriptor
}

// Metadata describes one run for the reporter.
type Metadata struct {
	Action      string
	Warmups     int
	Repetitions int
	Identity
}

// Options configure the Runner.
type Options struct {
	Identity Identity
	Reporter Reporter        // nil disables reporting
	Clock    Clock           // optional injection for tests
	Tracer   trace.Tracer    // phase spans; no-op when nil
	Logger   *zerolog.Logger // defaults to the global zerolog logger
	Vars     variables.Store // shared between setup and measure; a new store when nil
}

func (o *Options) normalize() {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Vars == nil {
		o.Vars = variables.NewStore()
	}
}
