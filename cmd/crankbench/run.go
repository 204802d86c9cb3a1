package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/esclient"
	"github.com/torosent/crankbench/internal/logging"
	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/output"
	"github.com/torosent/crankbench/internal/report"
	"github.com/torosent/crankbench/internal/runner"
	"github.com/torosent/crankbench/internal/scenario"
	"github.com/torosent/crankbench/internal/threshold"
	"github.com/torosent/crankbench/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run benchmark scenarios and report the results",
		Long: "Run the named scenarios, or every built-in scenario when none is given. " +
			"A --plan file replaces the scenario arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().Load(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Client.Version == "" {
				cfg.Client.Version = version
			}
			if cfg.Plan == nil && len(args) == 0 {
				args = scenario.Names()
			}
			cfg.Scenarios = config.ResolveScenarios(cfg, args)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runBenchmarks(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}

func runBenchmarks(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, err := logging.Setup(cfg.Log, stderr)
	if err != nil {
		return err
	}

	scenarios := make([]scenario.Scenario, len(cfg.Scenarios))
	checks := make([][]threshold.Threshold, len(cfg.Scenarios))
	for i, entry := range cfg.Scenarios {
		sc, err := scenario.Lookup(entry.Name)
		if err != nil {
			return err
		}
		scenarios[i] = sc
		if checks[i], err = threshold.ParseMultiple(entry.Thresholds); err != nil {
			return fmt.Errorf("scenario %s: %w", entry.Name, err)
		}
	}

	if cfg.LockFile != "" {
		lock := flock.New(cfg.LockFile)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock %s: %w", cfg.LockFile, err)
		}
		if !locked {
			return fmt.Errorf("another benchmark holds %s", cfg.LockFile)
		}
		defer func() { _ = lock.Unlock() }()
	}

	provider, err := tracing.Init(ctx, cfg.Tracing,
		attribute.String("benchmark.build_id", cfg.BuildID),
		attribute.String("benchmark.environment", cfg.Environment),
		attribute.String("service.version", cfg.Client.Version),
	)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()
	tracer := provider.Tracer()

	target, err := newClusterClient("target", cfg.Target, provider, &logger)
	if err != nil {
		return fmt.Errorf("target client: %w", err)
	}
	info, err := target.Info(ctx)
	if err != nil {
		return fmt.Errorf("target cluster %s: %w", target.URL(), err)
	}
	if cfg.TargetService.Version == "" {
		cfg.TargetService.Version = info.Version
	}
	if cfg.TargetService.GitCommit == "" {
		cfg.TargetService.GitCommit = info.BuildHash
	}
	logger.Info().
		Str("cluster", info.ClusterName).
		Str("version", info.Version).
		Str("build_id", cfg.BuildID).
		Msg("connected to target")

	var rep *report.Reporter
	if !cfg.DryRun {
		store, err := newClusterClient("report", cfg.Report.ClusterConfig, provider, &logger)
		if err != nil {
			return fmt.Errorf("report client: %w", err)
		}
		rep, err = report.New(report.Options{
			Transport:   store,
			Client:      cfg.Client.Name,
			IndexPrefix: cfg.Report.IndexPrefix,
			BatchSize:   cfg.Report.BatchSize,
			Tracer:      tracer,
			Logger:      &logger,
		})
		if err != nil {
			return err
		}
	}

	summary := output.Report{BuildID: cfg.BuildID, Environment: cfg.Environment}
	if rep != nil {
		summary.Index = rep.Index()
	}
	for i, entry := range cfg.Scenarios {
		if ctx.Err() != nil {
			logger.Warn().Msg("interrupted, skipping remaining scenarios")
			break
		}
		res := runScenario(ctx, cfg, scenarios[i], entry, checks[i], target, rep, tracer, logger)
		summary.Results = append(summary.Results, res)
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, summary)
	}

	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(summary.Results))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func runScenario(
	ctx context.Context,
	cfg *config.Config,
	sc scenario.Scenario,
	entry config.ScenarioEntry,
	checks []threshold.Threshold,
	target *esclient.Client,
	rep *report.Reporter,
	tracer trace.Tracer,
	logger zerolog.Logger,
) output.Result {
	category := entry.Category
	if category == "" {
		category = sc.Category
	}
	res := output.Result{
		Scenario:    sc.Name,
		Action:      entry.Action,
		Category:    category,
		Warmups:     entry.Warmups,
		Repetitions: entry.Repetitions,
	}
	logger = logger.With().Str("scenario", sc.Name).Str("action", entry.Action).Logger()

	opts := runner.Options{
		Identity: runner.Identity{
			BuildID:     cfg.BuildID,
			Category:    category,
			Environment: cfg.Environment,
			Target:      cfg.TargetDescriptor(),
			Runner:      runnerDescriptor(cfg),
		},
		Tracer: tracer,
		Logger: &logger,
	}
	if rep != nil {
		opts.Reporter = rep
	}

	r := runner.New(opts)
	if err := sc.Configure(r, target, entry); err != nil {
		res.Status = output.StatusError
		res.Error = err.Error()
		return res
	}

	logger.Info().Int("warmups", entry.Warmups).Int("repetitions", entry.Repetitions).Msg("running scenario")
	ok, err := r.Run(ctx)
	res.Stats = metrics.Summarize(r.Samples())

	var setupErr *runner.SetupError
	var warmupErr *runner.WarmupError
	switch {
	case errors.As(err, &setupErr):
		res.Status = output.StatusSetupFailed
	case errors.As(err, &warmupErr):
		res.Status = output.StatusWarmupFailed
	case err != nil:
		res.Status = output.StatusError
	case !ok:
		res.Status = output.StatusReportFailed
		if reportErr := r.ReportErr(); reportErr != nil {
			res.Error = reportErr.Error()
		}
	case rep == nil:
		res.Status = output.StatusDryRun
	default:
		res.Status = output.StatusReported
	}
	if err == nil && len(checks) > 0 {
		res.Thresholds = threshold.Evaluate(checks, res.Stats)
		if !res.Failed() && !threshold.AllPassed(res.Thresholds) {
			res.Status = output.StatusThresholds
		}
	}
	if err != nil {
		res.Error = err.Error()
		logger.Error().Err(err).Msg("scenario did not complete")
	} else {
		logger.Info().
			Int64("successes", res.Stats.Successes).
			Int64("failures", res.Stats.Failures).
			Dur("mean", res.Stats.MeanLatency).
			Str("status", string(res.Status)).
			Msg("scenario finished")
	}
	return res
}

func newClusterClient(name string, c config.ClusterConfig, provider *tracing.Provider, logger *zerolog.Logger) (*esclient.Client, error) {
	return esclient.New(esclient.Options{
		URL:       c.URL,
		APIKey:    c.APIKey,
		Username:  c.Username,
		Password:  c.Password,
		Timeout:   c.Timeout,
		Retries:   c.Retries,
		Rate:      c.Rate,
		Cluster:   name,
		Tracer:    provider.Tracer(),
		Propagate: provider.ShouldPropagate(),
		Logger:    logger,
	})
}

func runnerDescriptor(cfg *config.Config) runner.Descriptor {
	return runner.Descriptor{
		ServiceType:    "client",
		ServiceName:    cfg.Client.Name,
		ServiceVersion: cfg.Client.Version,
		RuntimeName:    "go",
		RuntimeVersion: config.RuntimeVersion(),
		OSFamily:       runtime.GOOS,
	}
}
