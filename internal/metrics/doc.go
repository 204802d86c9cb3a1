// Package metrics aggregates the samples of a benchmark run for display.
//
// [Summarize] reduces a run to counts and min/mean/max latencies:
//
//	stats := metrics.Summarize(r.Samples())
//	fmt.Printf("%d/%d succeeded, mean %s\n", stats.Successes, stats.Total, stats.MeanLatency)
//
// The stored telemetry documents remain the source for any further analysis.
package metrics
