package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gramflow/gramflow/internal/config"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "gramflow" {
			t.Errorf("expected use 'gramflow', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has expected subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"run", "scrape", "analyze", "report", "version"} {
			if !names[want] {
				t.Errorf("missing %s subcommand", want)
			}
		}
	})
}

func TestScrapeRequiresUsername(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"scrape"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for scrape without --username, got nil")
	}
}

func TestReportRequiresUsername(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"report"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for report without --username, got nil")
	}
}

func TestLoadPipeline(t *testing.T) {
	t.Parallel()

	t.Run("falls back to built-in taxonomy", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.PipelineFilePath = ""
		// Search covers cwd and home; force a miss by pointing at a
		// nonexistent explicit path in the other subtest instead.
		if err := loadPipeline(cfg); err != nil {
			t.Fatalf("load pipeline failed: %v", err)
		}
		if cfg.Pipeline == nil || len(cfg.Pipeline.Taxonomy) == 0 {
			t.Error("expected non-empty pipeline taxonomy")
		}
	})

	t.Run("explicit missing path errors", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.PipelineFilePath = filepath.Join(t.TempDir(), "missing.yaml")
		if err := loadPipeline(cfg); err == nil {
			t.Error("expected error for missing explicit pipeline file, got nil")
		}
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "pipeline.yaml")
		content := "taxonomy:\n  - name: Fashion\n  - name: Technology\nproxies:\n  - socks5://127.0.0.1:1080\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write pipeline file: %v", err)
		}

		cfg := config.NewConfig()
		cfg.PipelineFilePath = path
		if err := loadPipeline(cfg); err != nil {
			t.Fatalf("load pipeline failed: %v", err)
		}
		if len(cfg.Pipeline.Taxonomy) != 2 {
			t.Errorf("got %d categories, want 2", len(cfg.Pipeline.Taxonomy))
		}
		if len(cfg.Pipeline.Proxies) != 1 {
			t.Errorf("got %d proxies, want 1", len(cfg.Pipeline.Proxies))
		}
	})
}

func TestTaxonomyEntries(t *testing.T) {
	t.Parallel()

	entries := taxonomyEntries(&config.File{
		Taxonomy: []config.Category{
			{Name: "Fashion", Subcategories: []config.Category{
				{Name: "Streetwear"},
			}},
			{Name: "Technology"},
		},
	})

	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Name != "Fashion" || entries[0].ParentName != "" {
		t.Errorf("entry 0 = %+v, want top-level Fashion", entries[0])
	}
	if entries[1].Name != "Streetwear" || entries[1].ParentName != "Fashion" {
		t.Errorf("entry 1 = %+v, want Streetwear under Fashion", entries[1])
	}
	if entries[2].Name != "Technology" {
		t.Errorf("entry 2 = %+v, want Technology", entries[2])
	}
}
