package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all run flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// flagBindings maps flag names to configuration keys.
var flagBindings = map[string]string{
	"target-url":          "target.url",
	"target-api-key":      "target.api_key",
	"target-username":     "target.username",
	"target-password":     "target.password",
	"target-timeout":      "target.timeout",
	"target-retries":      "target.retries",
	"report-url":          "report.url",
	"report-api-key":      "report.api_key",
	"report-username":     "report.username",
	"report-password":     "report.password",
	"report-timeout":      "report.timeout",
	"report-retries":      "report.retries",
	"report-rate":         "report.rate",
	"batch-size":          "report.batch_size",
	"index-prefix":        "report.index_prefix",
	"build-id":            "build_id",
	"environment":         "environment",
	"category":            "category",
	"warmups":             "warmups",
	"repetitions":         "repetitions",
	"dry-run":             "dry_run",
	"json-output":         "json_output",
	"lock-file":           "lock_file",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"plan":                "plan",
	"threshold":           "thresholds",
	"tracing-endpoint":    "tracing.endpoint",
	"tracing-protocol":    "tracing.protocol",
	"tracing-sample-rate": "tracing.sample_rate",
	"tracing-insecure":    "tracing.insecure",
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target cluster flags
	flags.String("target-url", "", "URL of the cluster being benchmarked")
	flags.String("target-api-key", "", "API key for the target cluster")
	flags.String("target-username", "", "Basic auth username for the target cluster")
	flags.String("target-password", "", "Basic auth password for the target cluster")
	flags.Duration("target-timeout", 30*time.Second, "Per-request timeout against the target")
	flags.Int("target-retries", 0, "Transport retries against the target (skews timings when > 0)")

	// Reporting store flags
	flags.String("report-url", "", "URL of the cluster receiving benchmark results")
	flags.String("report-api-key", "", "API key for the reporting cluster")
	flags.String("report-username", "", "Basic auth username for the reporting cluster")
	flags.String("report-password", "", "Basic auth password for the reporting cluster")
	flags.Duration("report-timeout", 30*time.Second, "Per-request timeout against the reporting cluster")
	flags.Int("report-retries", 3, "Transport retries for bulk requests")
	flags.Int("report-rate", 0, "Bulk requests per second limit (0 means unlimited)")
	flags.Int("batch-size", DefaultBatchSize, "Documents per bulk request")
	flags.String("index-prefix", DefaultIndexPrefix, "Prefix of the monthly results index")

	// Run flags
	flags.String("build-id", "", "Build identifier attached to results (random ULID when empty)")
	flags.String("environment", "", "Environment label attached to results")
	flags.String("category", "", "Category override for all scenarios")
	flags.IntP("warmups", "w", 10, "Untimed warmup invocations per scenario")
	flags.IntP("repetitions", "n", 1000, "Measured repetitions per scenario")
	flags.String("plan", "", "Path to a YAML scenario plan")
	flags.Bool("dry-run", false, "Run scenarios without reporting results")
	flags.StringSlice("threshold", nil, "Assertion on each scenario summary, e.g. 'duration:avg < 5' (repeatable)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted summaries")
	flags.String("lock-file", "", "Lock file preventing concurrent benchmark runs on this host")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format: 'console' or 'json'")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for benchmark traces")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Float64("tracing-sample-rate", 1.0, "Trace sampling ratio between 0.0 and 1.0")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
}
