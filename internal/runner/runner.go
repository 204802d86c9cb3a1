package runner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/crankbench/internal/tracing"
	"github.com/torosent/crankbench/internal/variables"
)

// Runner executes one benchmark scenario: setup once, warm up, measure, report.
// A Runner is not safe for concurrent use.
type Runner struct {
	opt    Options
	timer  Timer
	tracer trace.Tracer
	logger zerolog.Logger

	action      string
	warmups     int
	repetitions int
	setup       Operation
	measure     Operation

	samples   []Sample
	reportErr error
}

func New(opt Options) *Runner {
	opt.normalize()
	logger := log.Logger
	if opt.Logger != nil {
		logger = *opt.Logger
	}
	tracer := opt.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("crankbench")
	}
	return &Runner{
		opt:    opt,
		timer:  NewTimer(opt.Clock),
		tracer: tracer,
		logger: logger,
	}
}

// Setup registers the operation executed once before timing begins.
func (r *Runner) Setup(op Operation) *Runner {
	r.setup = op
	return r
}

// Measure registers the timed operation and its warmup and repetition counts.
// Negative counts are treated as zero.
func (r *Runner) Measure(action string, warmups, repetitions int, op Operation) *Runner {
	if warmups < 0 {
		warmups = 0
	}
	if repetitions < 0 {
		repetitions = 0
	}
	r.action = action
	r.warmups = warmups
	r.repetitions = repetitions
	r.measure = op
	return r
}

func (r *Runner) Action() string { return r.action }

func (r *Runner) Repetitions() int { return r.repetitions }

// Vars returns the store shared by the setup and measure operations.
func (r *Runner) Vars() variables.Store { return r.opt.Vars }

// Metadata returns the reporting metadata for the configured run.
func (r *Runner) Metadata() Metadata {
	return Metadata{
		Action:      r.action,
		Warmups:     r.warmups,
		Repetitions: r.repetitions,
		Identity:    r.opt.Identity,
	}
}

// Samples returns a copy of the samples collected by the last Run.
func (r *Runner) Samples() []Sample {
	return append([]Sample(nil), r.samples...)
}

// ReportErr returns the reporting error of the last Run, if any.
func (r *Runner) ReportErr() error { return r.reportErr }

// Run executes setup, warmup and measurement, then reports the samples.
// A setup or warmup fault is returned as *SetupError or *WarmupError and
// nothing is reported. Faults in measured repetitions are recorded as failed
// samples. The boolean result reports whether reporting succeeded.
func (r *Runner) Run(ctx context.Context) (bool, error) {
	r.samples = make([]Sample, 0, r.repetitions)
	r.reportErr = nil
	r.opt.Vars.Clear()

	if r.measure == nil {
		return false, ErrMeasureNotConfigured
	}

	ctx = NewContext(variables.NewContext(ctx, r.opt.Vars), r)
	ctx, span := r.tracer.Start(ctx, "benchmark "+r.action,
		trace.WithAttributes(
			attribute.String("benchmark.action", r.action),
			attribute.Int("benchmark.warmups", r.warmups),
			attribute.Int("benchmark.repetitions", r.repetitions),
		),
	)

	if err := r.runSetup(ctx); err != nil {
		tracing.EndSpan(span, err)
		return false, err
	}
	if err := r.runWarmup(ctx); err != nil {
		tracing.EndSpan(span, err)
		return false, err
	}
	r.runMeasure(ctx)

	ok := r.report(ctx)
	tracing.EndSpan(span, r.reportErr, attribute.Int("benchmark.samples", len(r.samples)))
	return ok, nil
}

func (r *Runner) runSetup(ctx context.Context) error {
	if r.setup == nil {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "setup")
	r.logger.Debug().Str("action", r.action).Msg("running setup")
	_, err := invoke(ctx, r.setup, 0, r)
	tracing.EndSpan(span, err)
	if err != nil {
		return &SetupError{Action: r.action, Err: err}
	}
	return nil
}

func (r *Runner) runWarmup(ctx context.Context) error {
	if r.warmups == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "warmup")
	r.logger.Debug().Str("action", r.action).Int("warmups", r.warmups).Msg("running warmup")
	for i := 0; i < r.warmups; i++ {
		if _, err := invoke(ctx, r.measure, i, r); err != nil {
			werr := &WarmupError{Action: r.action, Index: i, Err: err}
			tracing.EndSpan(span, werr)
			return werr
		}
	}
	tracing.EndSpan(span, nil)
	return nil
}

func (r *Runner) runMeasure(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "measure")
	r.logger.Debug().Str("action", r.action).Int("repetitions", r.repetitions).Msg("measuring")
	for i := 0; i < r.repetitions; i++ {
		r.measureOnce(ctx, i)
	}
	failures := 0
	for _, s := range r.samples {
		if s.Failed() {
			failures++
		}
	}
	tracing.EndSpan(span, nil, attribute.Int("benchmark.failures", failures))
}

// measureOnce times a single repetition. The sample is appended on every
// path, including a panicking operation.
func (r *Runner) measureOnce(ctx context.Context, index int) {
	sample := Sample{Start: r.timer.Now().UTC(), Outcome: OutcomeFailure}
	sw := r.timer.Start()
	defer func() {
		sample.Duration = sw.Elapsed()
		r.samples = append(r.samples, sample)
	}()

	ok, err := invoke(ctx, r.measure, index, r)
	switch {
	case err != nil:
		r.logger.Debug().Err(err).Str("action", r.action).Int("repetition", index).Msg("repetition failed")
	case ok:
		sample.Outcome = OutcomeSuccess
	}
}

func (r *Runner) report(ctx context.Context) bool {
	if r.opt.Reporter == nil {
		r.logger.Debug().Str("action", r.action).Msg("reporting disabled")
		return true
	}
	ctx, span := r.tracer.Start(ctx, "report")
	err := r.submit(ctx)
	tracing.EndSpan(span, err)
	if err != nil {
		r.reportErr = err
		r.logger.Error().
			Err(err).
			Str("action", r.action).
			Int("samples", len(r.samples)).
			Msg("failed to report benchmark results")
		return false
	}
	return true
}

func (r *Runner) submit(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("reporter: %w", &PanicError{Value: v})
		}
	}()
	return r.opt.Reporter.Report(ctx, r.Metadata(), r.Samples())
}

type contextKey struct{}

// NewContext returns a context carrying the runner, for operations that do
// not receive the runner handle as an argument.
func NewContext(ctx context.Context, r *Runner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, r)
}

// FromContext returns the runner executing the current operation, or nil.
func FromContext(ctx context.Context) *Runner {
	if ctx == nil {
		return nil
	}
	r, _ := ctx.Value(contextKey{}).(*Runner)
	return r
}
