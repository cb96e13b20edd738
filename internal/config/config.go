package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the reference deployment:
// a conservative, auditable request rate with a hard daily cap.
const (
	// DefaultDailyQuota is the maximum number of crawl jobs processed
	// per calendar day. The counter resets on date change, never on
	// elapsed time, so restarts cannot grant extra quota.
	DefaultDailyQuota = 200

	// DefaultDispatchInterval is how often the scheduler looks for
	// pending jobs. 30 minutes keeps the aggregate request pattern
	// slow and predictable.
	DefaultDispatchInterval = 30 * time.Minute

	// DefaultDispatchBatchSize caps how many jobs one dispatch tick
	// may process, independent of remaining quota.
	DefaultDispatchBatchSize = 10

	// DefaultJitterMin and DefaultJitterMax bound the randomized
	// delay inserted between jobs within a batch. Uniform jitter
	// avoids bursty request patterns.
	DefaultJitterMin = 5 * time.Second
	DefaultJitterMax = 15 * time.Second

	// DefaultDedupWindow is how recently a target may have been
	// enrolled before a new enrollment becomes a no-op.
	DefaultDedupWindow = 7 * 24 * time.Hour

	// DefaultCrawlDelay is the minimum spacing between listing item
	// fetches. Three seconds matches the politeness floor of the
	// reference deployment; random jitter is layered on top.
	DefaultCrawlDelay = 3 * time.Second

	// DefaultCrawlJitter is the maximum random delay added to
	// DefaultCrawlDelay per item.
	DefaultCrawlJitter = 5 * time.Second

	// DefaultTimeout is the per-request timeout for network calls.
	DefaultTimeout = 30 * time.Second

	// DefaultProxyFloor is the pool size below which the proxy pool
	// eagerly reloads from its source.
	DefaultProxyFloor = 3

	// DefaultClassifyBatchSize is the number of accounts submitted in
	// one classification request. Twenty balances one request's token
	// budget against latency.
	DefaultClassifyBatchSize = 20

	// DefaultClassifyBatchDelay bounds the classification request
	// rate between batches.
	DefaultClassifyBatchDelay = 1 * time.Second

	// DefaultClassifyAccountDelay is the pause between accounts in a
	// ProcessPending pass.
	DefaultClassifyAccountDelay = 5 * time.Second

	// DefaultPendingLimit is how many unclassified accounts one
	// ProcessPending pass handles.
	DefaultPendingLimit = 5

	// DefaultAnalysisInterval is how often the standalone analysis
	// driver checks for unclassified accounts.
	DefaultAnalysisInterval = 5 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "gramflow"
)

// Config holds all configuration options for Gramflow.
// It is populated from CLI flags and the pipeline file and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., SchedulerConfig, ClassifyConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// DBDir is the directory holding the SQLite database file.
	// Defaults to the XDG data directory.
	DBDir string

	// PipelineFilePath is the path to the pipeline file. If empty,
	// the tool searches for .gramflow.yaml in the current directory
	// and then in the user's home directory.
	PipelineFilePath string

	// Pipeline holds the taxonomy, proxy list, and API settings
	// loaded from the pipeline file.
	Pipeline *File

	// DailyQuota is the maximum jobs processed per calendar day.
	DailyQuota int

	// DispatchInterval is the scheduler tick period.
	DispatchInterval time.Duration

	// DispatchBatchSize caps jobs per dispatch tick.
	DispatchBatchSize int

	// JitterMin and JitterMax bound the inter-job delay.
	JitterMin time.Duration
	JitterMax time.Duration

	// DedupWindow suppresses re-enrollment of recently scheduled targets.
	DedupWindow time.Duration

	// CrawlDelay is the minimum spacing between listing item fetches.
	CrawlDelay time.Duration

	// CrawlJitter is the maximum random delay added per item.
	CrawlJitter time.Duration

	// Timeout is the per-request network timeout.
	Timeout time.Duration

	// MaxCount bounds followers/following fetches when positive.
	// Used for bounded and test runs; zero means unbounded.
	MaxCount int

	// ClassifyBatchSize is the classification batch size.
	ClassifyBatchSize int

	// ClassifyBatchDelay is the delay between classification batches.
	ClassifyBatchDelay time.Duration

	// ClassifyAccountDelay is the delay between accounts during
	// ProcessPending.
	ClassifyAccountDelay time.Duration

	// PendingLimit is the per-pass account limit for ProcessPending.
	PendingLimit int

	// AnalysisInterval is the standalone analysis driver period.
	AnalysisInterval time.Duration

	// Verbose enables slog.LevelDebug output.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (quotas, delays). This
// also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		DBDir:                XDGDataDir(),
		DailyQuota:           DefaultDailyQuota,
		DispatchInterval:     DefaultDispatchInterval,
		DispatchBatchSize:    DefaultDispatchBatchSize,
		JitterMin:            DefaultJitterMin,
		JitterMax:            DefaultJitterMax,
		DedupWindow:          DefaultDedupWindow,
		CrawlDelay:           DefaultCrawlDelay,
		CrawlJitter:          DefaultCrawlJitter,
		Timeout:              DefaultTimeout,
		ClassifyBatchSize:    DefaultClassifyBatchSize,
		ClassifyBatchDelay:   DefaultClassifyBatchDelay,
		ClassifyAccountDelay: DefaultClassifyAccountDelay,
		PendingLimit:         DefaultPendingLimit,
		AnalysisInterval:     DefaultAnalysisInterval,
	}
}

// XDGDataDir returns the XDG data directory for Gramflow.
// On Linux: ~/.local/share/gramflow
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for Gramflow.
// On Linux: ~/.config/gramflow
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.DailyQuota <= 0 {
		return ErrInvalidQuota
	}
	if c.DispatchInterval <= 0 {
		return ErrInvalidDispatchInterval
	}
	if c.DispatchBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		return ErrInvalidJitter
	}
	if c.DedupWindow <= 0 {
		return ErrInvalidDedupWindow
	}
	if c.CrawlDelay < 0 || c.CrawlJitter < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxCount < 0 {
		return ErrInvalidMaxCount
	}
	if c.ClassifyBatchSize <= 0 {
		return ErrInvalidClassifyBatch
	}
	if c.PendingLimit <= 0 {
		return ErrInvalidPendingLimit
	}
	return nil
}
