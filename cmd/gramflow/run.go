package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gramflow/gramflow/internal/classify"
	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/scheduler"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Run the scheduled crawl and analysis pipeline",
		Long: `Run starts the standing pipeline: a dispatch loop that processes
pending crawl jobs on a fixed tick under the daily quota, and an
analysis loop that classifies crawled accounts into the interest
taxonomy.

Targets given as arguments are enrolled at startup. Enrollment creates
profile, followers, and following jobs unless the target was already
enrolled within the last 7 days.

The pipeline runs until interrupted. Job failures are recorded on the
job and logged; they never stop the pipeline.

Examples:
  # Run the pipeline with two freshly enrolled targets
  gramflow run acct1 acct2

  # Run with a custom pipeline file and a bounded listing size
  gramflow run -c pipeline.yaml --max-count 500 acct1`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().Duration("interval", config.DefaultDispatchInterval,
		"Dispatch tick interval")
	cmd.Flags().Int("quota", config.DefaultDailyQuota,
		"Maximum jobs processed per calendar day")
	cmd.Flags().Int("batch", config.DefaultDispatchBatchSize,
		"Maximum jobs per dispatch tick")
	cmd.Flags().Duration("analysis-interval", config.DefaultAnalysisInterval,
		"Classification sweep interval")

	return cmd
}

// addCrawlFlags registers the flags shared by the crawling commands.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Pipeline file path (default: .gramflow.yaml in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().Int("max-count", 0,
		"Maximum entries fetched per follow listing (0 = unbounded)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
}

// buildCrawlConfig creates a Config from the shared crawl flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.PipelineFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.MaxCount, err = cmd.Flags().GetInt("max-count")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	cfg.DispatchInterval, err = cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}
	cfg.DailyQuota, err = cmd.Flags().GetInt("quota")
	if err != nil {
		return err
	}
	cfg.DispatchBatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	cfg.AnalysisInterval, err = cmd.Flags().GetDuration("analysis-interval")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := loadPipeline(cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := buildCrawler(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	sched := buildScheduler(cfg, store, c, logger)

	// Classification is optional in run mode: without model credentials
	// the crawl side still operates.
	classifier, err := buildInterestClassifier(cfg, store, logger)
	if err != nil {
		logger.Warn("interest classification disabled", "reason", err)
		classifier = nil
	}

	for _, target := range args {
		if _, err := sched.Enroll(ctx, target); err != nil {
			return err
		}
	}

	logger.Info("pipeline started",
		"dispatch_interval", cfg.DispatchInterval,
		"daily_quota", cfg.DailyQuota,
		"targets_enrolled", len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatchLoop(gctx, sched, cfg.DispatchInterval, logger)
	})
	if classifier != nil {
		g.Go(func() error {
			return analysisLoop(gctx, classifier, cfg.AnalysisInterval, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("pipeline stopped")
	return nil
}

// dispatchLoop runs a dispatch round immediately and then on every
// tick. Round errors are logged; only context cancellation stops the
// loop.
func dispatchLoop(ctx context.Context, sched *scheduler.Scheduler, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := sched.DispatchBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("dispatch round failed", "error", err)
		} else if n > 0 {
			logger.Info("dispatch round done", "jobs", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// analysisLoop sweeps unclassified accounts on every tick.
func analysisLoop(ctx context.Context, classifier *classify.InterestClassifier, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := classifier.ProcessPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("analysis sweep failed", "error", err)
		} else if n > 0 {
			logger.Info("analysis sweep done", "accounts", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
