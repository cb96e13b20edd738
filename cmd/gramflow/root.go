package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/log"
)

// NewRootCmd creates the root command for Gramflow.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gramflow",
		Short: "Follow-graph crawler and interest classifier",
		Long: `Gramflow crawls a social network's public follow graph for enrolled
target accounts, persists the resulting graph, derives mutual
connections, and classifies followed accounts into a fixed interest
taxonomy using batched language model calls.

Crawling is quota-governed and deliberately slow: a daily job quota,
batched dispatch on a fixed tick, and randomized delays keep the
request pattern predictable and auditable.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Credentials come from the environment; a .env file in
			// the working directory supplies them in development.
			_ = godotenv.Load()
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the sanitizing structured logger.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// loadPipeline resolves the pipeline file into cfg.Pipeline. An
// explicitly specified path must exist; otherwise a missing file falls
// back to the built-in default taxonomy.
func loadPipeline(cfg *config.Config) error {
	explicit := cfg.PipelineFilePath != ""
	path := config.FindPipelineFile(cfg.PipelineFilePath)

	if path != "" {
		pipeline, err := config.LoadPipelineFile(path)
		if err != nil {
			return fmt.Errorf("failed to load pipeline file %s: %w", path, err)
		}
		cfg.Pipeline = pipeline
		return nil
	}
	if explicit {
		return fmt.Errorf("pipeline file not found: %s", cfg.PipelineFilePath)
	}

	cfg.Pipeline = config.DefaultPipeline()
	return nil
}

// openStore opens the database and seeds the interest taxonomy from the
// pipeline file.
func openStore(ctx context.Context, cfg *config.Config) (*database.Store, error) {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.SeedTaxonomy(ctx, taxonomyEntries(cfg.Pipeline)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed taxonomy: %w", err)
	}
	return store, nil
}

// taxonomyEntries flattens the pipeline taxonomy into seed order:
// each top-level category immediately followed by its subcategories.
func taxonomyEntries(pipeline *config.File) []database.TaxonomyEntry {
	var entries []database.TaxonomyEntry
	for _, cat := range pipeline.Taxonomy {
		entries = append(entries, database.TaxonomyEntry{
			Name:        cat.Name,
			Description: cat.Description,
		})
		for _, sub := range cat.Subcategories {
			entries = append(entries, database.TaxonomyEntry{
				Name:        sub.Name,
				ParentName:  cat.Name,
				Description: sub.Description,
			})
		}
	}
	return entries
}
