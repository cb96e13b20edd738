package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the pipeline file
// loader and provide specific information about what is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each call site. This allows callers to
// use errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrInvalidQuota is returned when the daily quota is not positive.
	// A quota of zero would permanently block dispatch.
	ErrInvalidQuota = errors.New("invalid daily quota: must be positive")

	// ErrInvalidDispatchInterval is returned when the scheduler tick
	// period is not positive.
	ErrInvalidDispatchInterval = errors.New("invalid dispatch interval: must be positive")

	// ErrInvalidBatchSize is returned when the dispatch batch size is
	// not positive. A batch of zero would mean no job ever runs.
	ErrInvalidBatchSize = errors.New("invalid dispatch batch size: must be positive")

	// ErrInvalidJitter is returned when the inter-job jitter bounds are
	// negative or inverted.
	ErrInvalidJitter = errors.New("invalid jitter bounds: min must be >= 0 and max >= min")

	// ErrInvalidDedupWindow is returned when the enrollment dedup
	// window is not positive.
	ErrInvalidDedupWindow = errors.New("invalid dedup window: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay or jitter
	// is negative. Use 0 for no delay between item fetches.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxCount is returned when the listing bound is negative.
	// Use 0 for an unbounded fetch.
	ErrInvalidMaxCount = errors.New("invalid max count: must be non-negative")

	// ErrInvalidClassifyBatch is returned when the classification batch
	// size is not positive.
	ErrInvalidClassifyBatch = errors.New("invalid classification batch size: must be positive")

	// ErrInvalidPendingLimit is returned when the ProcessPending
	// account limit is not positive.
	ErrInvalidPendingLimit = errors.New("invalid pending limit: must be positive")

	// ErrNoTaxonomy is returned when the pipeline file defines no
	// interest categories. The classifier cannot run against an empty
	// taxonomy.
	ErrNoTaxonomy = errors.New("pipeline file defines no interest categories")

	// ErrDuplicateCategory is returned when the pipeline file defines
	// the same category name twice. Names are matched case-sensitively.
	ErrDuplicateCategory = errors.New("duplicate interest category name")

	// ErrUnknownParentCategory is returned when a subcategory names a
	// parent that is not defined as a top-level category.
	ErrUnknownParentCategory = errors.New("subcategory references unknown parent category")
)
