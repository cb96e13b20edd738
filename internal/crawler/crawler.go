package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/model"
)

// checkpointInterval is how many processed items pass between progress
// writes. A crash loses at most this many uncommitted positions; the
// items themselves are committed individually.
const checkpointInterval = 10

// Crawler executes crawl jobs against a Client and persists the results.
type Crawler struct {
	store   *database.Store
	client  Client
	limiter *rate.Limiter
	jitter  time.Duration
	maxCount int
	logger  *slog.Logger

	// sleep is swapped out in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithRateLimit sets the minimum delay between item retrievals and the
// upper bound of the random jitter added on top of it. A zero delay
// disables rate limiting.
func WithRateLimit(delay, jitter time.Duration) Option {
	return func(c *Crawler) {
		if delay > 0 {
			c.limiter = rate.NewLimiter(rate.Every(delay), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
		c.jitter = jitter
	}
}

// WithMaxCount bounds how many items a listing job processes. Zero
// means unbounded.
func WithMaxCount(n int) Option {
	return func(c *Crawler) {
		c.maxCount = n
	}
}

// New creates a Crawler persisting through store and fetching through
// client.
func New(store *database.Store, client Client, logger *slog.Logger, opts ...Option) *Crawler {
	c := &Crawler{
		store:   store,
		client:  client,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchProfile retrieves the target's profile and stores the full
// snapshot, overwriting any existing attributes.
func (c *Crawler) FetchProfile(ctx context.Context, username string) (*model.Profile, error) {
	profile, err := c.client.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := c.store.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	c.logger.Info("fetched profile",
		"username", profile.Username,
		"followers", profile.FollowerCount,
		"following", profile.FollowingCount)
	return profile, nil
}

// FetchFollowers crawls the target's follower listing under a fresh job.
func (c *Crawler) FetchFollowers(ctx context.Context, username string) error {
	return c.runNewJob(ctx, username, model.JobTypeFollowers)
}

// FetchFollowing crawls the target's following listing under a fresh job.
func (c *Crawler) FetchFollowing(ctx context.Context, username string) error {
	return c.runNewJob(ctx, username, model.JobTypeFollowing)
}

func (c *Crawler) runNewJob(ctx context.Context, username string, jobType model.JobType) error {
	jobID, err := c.store.CreateJob(ctx, username, jobType)
	if err != nil {
		return err
	}

	job, err := c.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	return c.Run(ctx, job)
}

// Run executes a crawl job from its pending state through to a terminal
// state. On failure the job is marked failed with the error message and
// the error is returned.
func (c *Crawler) Run(ctx context.Context, job *model.CrawlJob) error {
	if err := c.store.StartJob(ctx, job.ID); err != nil {
		return fmt.Errorf("start job %d: %w", job.ID, err)
	}

	c.logger.Info("job started",
		"job_id", job.ID,
		"target", job.TargetUsername,
		"type", job.Type)

	var err error
	switch job.Type {
	case model.JobTypeProfile:
		err = c.runProfileJob(ctx, job)
	case model.JobTypeFollowers:
		err = c.runFollowJob(ctx, job, model.DirectionFollower)
	case model.JobTypeFollowing:
		err = c.runFollowJob(ctx, job, model.DirectionFollowing)
	default:
		err = fmt.Errorf("unknown job type %q", job.Type)
	}

	if err != nil {
		if failErr := c.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			c.logger.Error("failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		c.logger.Warn("job failed",
			"job_id", job.ID,
			"target", job.TargetUsername,
			"error", err)
		return fmt.Errorf("job %d (%s %s): %w", job.ID, job.Type, job.TargetUsername, err)
	}
	return nil
}

func (c *Crawler) runProfileJob(ctx context.Context, job *model.CrawlJob) error {
	if _, err := c.FetchProfile(ctx, job.TargetUsername); err != nil {
		return err
	}
	return c.store.CompleteJob(ctx, job.ID, 1)
}

func (c *Crawler) runFollowJob(ctx context.Context, job *model.CrawlJob, dir model.EdgeDirection) error {
	// Resolve the target's stable ID first. The profile snapshot is
	// refreshed as a side effect.
	profile, err := c.FetchProfile(ctx, job.TargetUsername)
	if err != nil {
		return err
	}

	var listing Listing
	switch dir {
	case model.DirectionFollower:
		listing, err = c.client.ListFollowers(ctx, job.TargetUsername)
	case model.DirectionFollowing:
		listing, err = c.client.ListFollowing(ctx, job.TargetUsername)
	}
	if err != nil {
		return err
	}

	count := 0
	for {
		if c.maxCount > 0 && count >= c.maxCount {
			c.logger.Info("listing bounded by max count", "job_id", job.ID, "count", count)
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if c.jitter > 0 {
			if err := c.sleep(ctx, time.Duration(rand.Int63n(int64(c.jitter)))); err != nil {
				return err
			}
		}

		ref, err := listing.Next(ctx)
		if errors.Is(err, ErrEndOfList) {
			break
		}
		if err != nil {
			return err
		}

		if err := c.store.UpsertAccountRef(ctx, ref); err != nil {
			return err
		}
		if err := c.store.InsertFollowEdge(ctx, profile.ID, ref.ID, dir); err != nil {
			return err
		}

		count++
		if count%checkpointInterval == 0 {
			if err := c.store.UpdateJobProgress(ctx, job.ID, count, listing.Cursor()); err != nil {
				return err
			}
		}
	}

	if err := c.store.CompleteJob(ctx, job.ID, count); err != nil {
		return err
	}

	c.logger.Info("job completed",
		"job_id", job.ID,
		"target", job.TargetUsername,
		"type", job.Type,
		"items", count)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
