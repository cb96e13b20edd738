package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfigDefaults verifies the documented defaults.
func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.DailyQuota != DefaultDailyQuota {
		t.Errorf("DailyQuota = %d, want %d", cfg.DailyQuota, DefaultDailyQuota)
	}
	if cfg.DispatchInterval != DefaultDispatchInterval {
		t.Errorf("DispatchInterval = %v, want %v", cfg.DispatchInterval, DefaultDispatchInterval)
	}
	if cfg.DispatchBatchSize != DefaultDispatchBatchSize {
		t.Errorf("DispatchBatchSize = %d, want %d", cfg.DispatchBatchSize, DefaultDispatchBatchSize)
	}
	if cfg.ClassifyBatchSize != DefaultClassifyBatchSize {
		t.Errorf("ClassifyBatchSize = %d, want %d", cfg.ClassifyBatchSize, DefaultClassifyBatchSize)
	}
	if cfg.DedupWindow != 7*24*time.Hour {
		t.Errorf("DedupWindow = %v, want 7 days", cfg.DedupWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestConfigValidate exercises each validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero quota", func(c *Config) { c.DailyQuota = 0 }, ErrInvalidQuota},
		{"negative quota", func(c *Config) { c.DailyQuota = -1 }, ErrInvalidQuota},
		{"zero dispatch interval", func(c *Config) { c.DispatchInterval = 0 }, ErrInvalidDispatchInterval},
		{"zero batch size", func(c *Config) { c.DispatchBatchSize = 0 }, ErrInvalidBatchSize},
		{"inverted jitter", func(c *Config) { c.JitterMin = 10 * time.Second; c.JitterMax = time.Second }, ErrInvalidJitter},
		{"negative jitter", func(c *Config) { c.JitterMin = -time.Second }, ErrInvalidJitter},
		{"zero dedup window", func(c *Config) { c.DedupWindow = 0 }, ErrInvalidDedupWindow},
		{"negative crawl delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative max count", func(c *Config) { c.MaxCount = -5 }, ErrInvalidMaxCount},
		{"zero classify batch", func(c *Config) { c.ClassifyBatchSize = 0 }, ErrInvalidClassifyBatch},
		{"zero pending limit", func(c *Config) { c.PendingLimit = 0 }, ErrInvalidPendingLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPipelineValidate covers taxonomy validation rules.
func TestPipelineValidate(t *testing.T) {
	t.Parallel()

	t.Run("default taxonomy validates", func(t *testing.T) {
		t.Parallel()

		if err := DefaultPipeline().Validate(); err != nil {
			t.Errorf("default pipeline should validate, got %v", err)
		}
	})

	t.Run("empty taxonomy rejected", func(t *testing.T) {
		t.Parallel()

		f := &File{}
		if err := f.Validate(); !errors.Is(err, ErrNoTaxonomy) {
			t.Errorf("Validate() = %v, want ErrNoTaxonomy", err)
		}
	})

	t.Run("duplicate top-level name rejected", func(t *testing.T) {
		t.Parallel()

		f := &File{Taxonomy: []Category{{Name: "Music"}, {Name: "Music"}}}
		if err := f.Validate(); !errors.Is(err, ErrDuplicateCategory) {
			t.Errorf("Validate() = %v, want ErrDuplicateCategory", err)
		}
	})

	t.Run("duplicate across levels rejected", func(t *testing.T) {
		t.Parallel()

		f := &File{Taxonomy: []Category{
			{Name: "Music", Subcategories: []Category{{Name: "Sports"}}},
			{Name: "Sports"},
		}}
		if err := f.Validate(); !errors.Is(err, ErrDuplicateCategory) {
			t.Errorf("Validate() = %v, want ErrDuplicateCategory", err)
		}
	})

	t.Run("case-sensitive names are distinct", func(t *testing.T) {
		t.Parallel()

		f := &File{Taxonomy: []Category{{Name: "music"}, {Name: "Music"}}}
		if err := f.Validate(); err != nil {
			t.Errorf("differently cased names should be allowed, got %v", err)
		}
	})
}

// TestCategoryNames verifies flattening order: each top-level category
// followed by its subcategories.
func TestCategoryNames(t *testing.T) {
	t.Parallel()

	f := &File{Taxonomy: []Category{
		{Name: "A", Subcategories: []Category{{Name: "A1"}, {Name: "A2"}}},
		{Name: "B"},
	}}

	got := f.CategoryNames()
	want := []string{"A", "A1", "A2", "B"}
	if len(got) != len(want) {
		t.Fatalf("CategoryNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestLoadPipelineFile covers YAML loading and search behavior.
func TestLoadPipelineFile(t *testing.T) {
	t.Parallel()

	t.Run("loads valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultPipelineFile)
		content := `taxonomy:
  - name: Technology
    description: Tech content
    subcategories:
      - name: Programming
        description: Software development
  - name: Music
proxies:
  - socks5://127.0.0.1:1080
  - http://127.0.0.1:8080
api_base_url: https://api.example.test
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadPipelineFile(path)
		if err != nil {
			t.Fatalf("LoadPipelineFile() error = %v", err)
		}
		if len(f.Taxonomy) != 2 {
			t.Errorf("got %d top-level categories, want 2", len(f.Taxonomy))
		}
		if len(f.Proxies) != 2 {
			t.Errorf("got %d proxies, want 2", len(f.Proxies))
		}
		if f.APIBaseURL != "https://api.example.test" {
			t.Errorf("APIBaseURL = %q", f.APIBaseURL)
		}
		names := f.CategoryNames()
		if len(names) != 3 || names[1] != "Programming" {
			t.Errorf("CategoryNames() = %v", names)
		}
	})

	t.Run("missing file returns ErrPipelineNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadPipelineFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrPipelineNotFound) {
			t.Errorf("LoadPipelineFile() = %v, want ErrPipelineNotFound", err)
		}
	})

	t.Run("invalid taxonomy rejected at load", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultPipelineFile)
		content := "taxonomy:\n  - name: X\n  - name: X\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := LoadPipelineFile(path)
		if !errors.Is(err, ErrDuplicateCategory) {
			t.Errorf("LoadPipelineFile() = %v, want ErrDuplicateCategory", err)
		}
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultPipelineFile)
		if err := os.WriteFile(path, []byte("taxonomy: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadPipelineFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}

// TestFindPipelineFile verifies explicit path handling.
func TestFindPipelineFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("taxonomy: []\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindPipelineFile(path); got != path {
			t.Errorf("FindPipelineFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindPipelineFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("FindPipelineFile() = %q, want empty", got)
		}
	})
}
