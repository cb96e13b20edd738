package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/model"
)

// InterestClassifier classifies the accounts a target follows and
// stores the resulting category scores.
type InterestClassifier struct {
	store      *database.Store
	classifier Classifier
	logger     *slog.Logger

	batchSize    int
	batchDelay   time.Duration
	accountDelay time.Duration
	pendingLimit int

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an InterestClassifier.
type Option func(*InterestClassifier)

// WithBatchSize sets how many subjects one model request carries.
func WithBatchSize(n int) Option {
	return func(c *InterestClassifier) { c.batchSize = n }
}

// WithDelays sets the pause between batches of one account and between
// accounts in a pending sweep.
func WithDelays(batch, account time.Duration) Option {
	return func(c *InterestClassifier) {
		c.batchDelay = batch
		c.accountDelay = account
	}
}

// WithPendingLimit caps how many accounts one pending sweep handles.
func WithPendingLimit(n int) Option {
	return func(c *InterestClassifier) { c.pendingLimit = n }
}

// WithSleep overrides the delay sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *InterestClassifier) { c.sleep = sleep }
}

// NewInterestClassifier creates an InterestClassifier with the default
// batch size, delays, and pending limit.
func NewInterestClassifier(store *database.Store, classifier Classifier, logger *slog.Logger, opts ...Option) *InterestClassifier {
	c := &InterestClassifier{
		store:        store,
		classifier:   classifier,
		logger:       logger,
		batchSize:    config.DefaultClassifyBatchSize,
		batchDelay:   config.DefaultClassifyBatchDelay,
		accountDelay: config.DefaultClassifyAccountDelay,
		pendingLimit: config.DefaultPendingLimit,
		sleep:        sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyAccount classifies everything the account follows. Subjects
// are batched; a batch whose model reply is malformed is skipped with a
// warning, and individual results naming unknown categories or unknown
// usernames are discarded. Scores overwrite earlier ones for the same
// (account, category) pair.
func (c *InterestClassifier) ClassifyAccount(ctx context.Context, account *model.Account) error {
	categoryIDs, taxonomy, err := c.loadTaxonomy(ctx)
	if err != nil {
		return err
	}

	following, err := c.store.FollowingAccounts(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("load following accounts: %w", err)
	}
	if len(following) == 0 {
		c.logger.Warn("no subjects to classify", "target", account.Username)
		return nil
	}

	subjectID := make(map[string]string, len(following))
	subjects := make([]Subject, 0, len(following))
	for _, f := range following {
		subjectID[f.Username] = f.ID
		subjects = append(subjects, Subject{
			Username: f.Username,
			FullName: f.FullName,
			Bio:      f.Bio,
		})
	}

	c.logger.Info("classifying account",
		"target", account.Username,
		"subjects", len(subjects),
		"batches", (len(subjects)+c.batchSize-1)/c.batchSize)

	stored := 0
	for start := 0; start < len(subjects); start += c.batchSize {
		if start > 0 {
			if err := c.sleep(ctx, c.batchDelay); err != nil {
				return err
			}
		}

		end := start + c.batchSize
		if end > len(subjects) {
			end = len(subjects)
		}

		resp, err := c.classifier.Classify(ctx, Request{
			Taxonomy: taxonomy,
			Subjects: subjects[start:end],
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("skipping batch", "target", account.Username, "error", err)
			continue
		}

		n, err := c.storeResults(ctx, resp.Results, subjectID, categoryIDs)
		if err != nil {
			return err
		}
		stored += n
	}

	c.logger.Info("classification done",
		"target", account.Username,
		"scores", stored)
	return nil
}

// ProcessPending classifies accounts with a completed following crawl
// and no interest scores yet, up to the pending limit. Returns how many
// accounts were processed. A per-account failure is logged and the
// sweep continues.
func (c *InterestClassifier) ProcessPending(ctx context.Context) (int, error) {
	accounts, err := c.store.AccountsPendingClassification(ctx, c.pendingLimit)
	if err != nil {
		return 0, fmt.Errorf("load pending accounts: %w", err)
	}
	if len(accounts) == 0 {
		return 0, nil
	}

	processed := 0
	for i := range accounts {
		if i > 0 {
			if err := c.sleep(ctx, c.accountDelay); err != nil {
				return processed, err
			}
		}

		if err := c.ClassifyAccount(ctx, &accounts[i]); err != nil {
			if ctx.Err() != nil {
				return processed, err
			}
			c.logger.Warn("failed to classify account",
				"target", accounts[i].Username,
				"error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (c *InterestClassifier) loadTaxonomy(ctx context.Context) (map[string]int64, []string, error) {
	categories, err := c.store.Categories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load taxonomy: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil, ErrEmptyTaxonomy
	}

	ids := make(map[string]int64, len(categories))
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		ids[cat.Name] = cat.ID
		names = append(names, cat.Name)
	}
	return ids, names, nil
}

func (c *InterestClassifier) storeResults(ctx context.Context, results []Result, subjectID map[string]string, categoryIDs map[string]int64) (int, error) {
	stored := 0
	for _, r := range results {
		accountID, ok := subjectID[r.Username]
		if !ok {
			c.logger.Warn("discarding result for unknown subject", "username", r.Username)
			continue
		}

		// Category names are matched exactly; a near-miss from the
		// model is treated as unknown.
		categoryID, ok := categoryIDs[r.Category]
		if !ok {
			c.logger.Warn("discarding result with unknown category",
				"username", r.Username,
				"category", r.Category)
			continue
		}

		if err := c.store.UpsertInterestScore(ctx, accountID, categoryID, r.Confidence); err != nil {
			return stored, fmt.Errorf("store interest score: %w", err)
		}
		stored++
	}
	return stored, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
