package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gramflow/gramflow/internal/config"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify crawled accounts into the interest taxonomy",
		Long: `Analyze sweeps accounts whose following listing has been crawled but
whose followed accounts carry no interest scores yet, classifying their
following sets in batches through the language model.

By default the sweep repeats on a fixed interval until interrupted.
Use --once for a single pass.

Requires OPENAI_API_KEY in the environment or a .env file.

Examples:
  # Run the standing analysis loop
  gramflow analyze

  # Single sweep, then exit
  gramflow analyze --once`,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Pipeline file path (default: .gramflow.yaml in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().Bool("once", false, "Run a single sweep and exit")
	cmd.Flags().Duration("interval", config.DefaultAnalysisInterval,
		"Sweep interval")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.PipelineFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	once, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	cfg.AnalysisInterval, err = cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

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

	classifier, err := buildInterestClassifier(cfg, store, logger)
	if err != nil {
		return err
	}

	if once {
		n, err := classifier.ProcessPending(ctx)
		if err != nil {
			return err
		}
		logger.Info("analysis sweep done", "accounts", n)
		return nil
	}

	logger.Info("analysis loop started", "interval", cfg.AnalysisInterval)
	if err := analysisLoop(ctx, classifier, cfg.AnalysisInterval, logger); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
