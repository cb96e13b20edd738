package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report --username <handle>",
		Short: "Render a Markdown summary of a crawled account",
		Long: `Report renders a Markdown summary of one account from the local
database: its profile snapshot, derived mutual connections, and the
interest breakdown of the accounts it follows.

Examples:
  # Print the report to stdout
  gramflow report --username acct1

  # Write it to a file
  gramflow report --username acct1 -o acct1.md`,
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("username", "u", "", "Account handle to report on (required)")
	_ = cmd.MarkFlagRequired("username")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	username, err := cmd.Flags().GetString("username")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// The database must already exist; reporting never creates one.
	store, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := report.Summarize(context.Background(), store, username)
	if err != nil {
		return err
	}

	dest := os.Stdout
	if output != "" {
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(output) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	if _, err := report.NewMarkdownWriter(dest).Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
