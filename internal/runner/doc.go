// Package runner provides the benchmark execution engine for crankbench.
//
// A [Runner] executes one scenario in three phases:
//   - Setup: the optional setup operation runs exactly once
//   - Warmup: the measure operation runs untimed, its results discarded
//   - Measure: the measure operation runs once per repetition, each timed
//     with a monotonic [Stopwatch] and recorded as a [Sample]
//
// After measurement the samples are handed to a [Reporter].
//
// # Basic Usage
//
//	r := runner.New(runner.Options{Identity: id, Reporter: rep})
//	r.Setup(runner.Action(createIndex)).
//		Measure("get", 10, 1000, runner.IndexedFunc(getDocument))
//	ok, err := r.Run(ctx)
//
// # Operations
//
// An [Operation] reports an explicit failure by returning false. Returning
// an error or panicking is a fault. Use [Func] for closures that need no
// arguments, [IndexedFunc] for closures that take the repetition index and
// the runner, and [Action] for closures that only return an error.
//
// # Error Handling
//
// A fault during setup or warmup aborts the run with [*SetupError] or
// [*WarmupError]; nothing is reported. A fault during a measured repetition
// only marks that sample as [OutcomeFailure]. Reporting failures are logged
// and surface as a false result from [Runner.Run]; [Runner.ReportErr]
// returns the underlying error.
package runner
