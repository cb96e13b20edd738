package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/model"
)

// dayFormat is the granularity of the daily quota window. The counter
// resets when the formatted date changes, not on a rolling 24h basis.
const dayFormat = "2006-01-02"

// enrollmentJobs is the job triple created per enrolled target.
var enrollmentJobs = []model.JobType{
	model.JobTypeProfile,
	model.JobTypeFollowers,
	model.JobTypeFollowing,
}

// CrawlRunner executes a single crawl job to a terminal state.
type CrawlRunner interface {
	Run(ctx context.Context, job *model.CrawlJob) error
}

// MutualComputer derives mutual edges for an account.
type MutualComputer interface {
	Compute(ctx context.Context, accountID string) (int, error)
}

// Scheduler enrolls targets and dispatches their jobs under a daily
// quota. It is not safe for concurrent use; the pipeline runs one
// scheduler loop.
type Scheduler struct {
	store    *database.Store
	runner   CrawlRunner
	computer MutualComputer
	logger   *slog.Logger

	quota       int
	batchSize   int
	jitterMin   time.Duration
	jitterMax   time.Duration
	dedupWindow time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// daily quota state
	day        string
	dispatched int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithQuota sets the daily dispatch quota.
func WithQuota(n int) Option {
	return func(s *Scheduler) { s.quota = n }
}

// WithBatchSize caps how many jobs one dispatch round processes.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) { s.batchSize = n }
}

// WithJitter sets the random delay range slept before each job.
func WithJitter(min, max time.Duration) Option {
	return func(s *Scheduler) {
		s.jitterMin = min
		s.jitterMax = max
	}
}

// WithDedupWindow sets how far back a started job blocks re-enrollment.
func WithDedupWindow(d time.Duration) Option {
	return func(s *Scheduler) { s.dedupWindow = d }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSleep overrides the jitter sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// New creates a Scheduler with the default quota, batch size, jitter
// range, and dedup window.
func New(store *database.Store, runner CrawlRunner, computer MutualComputer, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		runner:      runner,
		computer:    computer,
		logger:      logger,
		quota:       config.DefaultDailyQuota,
		batchSize:   config.DefaultDispatchBatchSize,
		jitterMin:   config.DefaultJitterMin,
		jitterMax:   config.DefaultJitterMax,
		dedupWindow: config.DefaultDedupWindow,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.day = s.now().Format(dayFormat)
	return s
}

// Enroll queues the profile, followers, and following jobs for a
// target. Enrollment is a no-op if the target already has a queued or
// running job, or one started within the dedup window. Returns true if
// jobs were created.
func (s *Scheduler) Enroll(ctx context.Context, username string) (bool, error) {
	cutoff := s.now().Add(-s.dedupWindow)
	recent, err := s.store.HasRecentJob(ctx, username, cutoff)
	if err != nil {
		return false, fmt.Errorf("check recent jobs: %w", err)
	}
	if recent {
		s.logger.Info("target already enrolled, skipping", "target", username)
		return false, nil
	}

	for _, jobType := range enrollmentJobs {
		if _, err := s.store.CreateJob(ctx, username, jobType); err != nil {
			return false, fmt.Errorf("create %s job: %w", jobType, err)
		}
	}

	s.logger.Info("enrolled target", "target", username)
	return true, nil
}

// DispatchBatch runs one round of pending jobs, bounded by both the
// batch size and the remaining daily quota. Only successful jobs count
// against the quota; a failure is recorded on the job, logged, and the
// batch continues. Returns the number of jobs dispatched.
func (s *Scheduler) DispatchBatch(ctx context.Context) (int, error) {
	s.rollDay()

	remaining := s.quota - s.dispatched
	if remaining <= 0 {
		s.logger.Info("daily quota exhausted", "quota", s.quota)
		return 0, nil
	}

	limit := s.batchSize
	if remaining < limit {
		limit = remaining
	}

	jobs, err := s.store.PendingJobs(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	s.logger.Info("dispatching batch",
		"jobs", len(jobs),
		"quota_remaining", remaining)

	dispatched := 0
	for i := range jobs {
		job := &jobs[i]

		if err := s.sleep(ctx, s.jitterDelay()); err != nil {
			return dispatched, err
		}

		dispatched++

		if err := s.runner.Run(ctx, job); err != nil {
			// The runner records the failure on the job; the
			// batch moves on without spending quota.
			s.logger.Warn("job dispatch failed",
				"job_id", job.ID,
				"target", job.TargetUsername,
				"error", err)
			continue
		}

		s.dispatched++

		if err := s.maybeComputeMutuals(ctx, job); err != nil {
			s.logger.Warn("mutual derivation failed",
				"target", job.TargetUsername,
				"error", err)
		}
	}

	return dispatched, nil
}

// maybeComputeMutuals triggers mutual derivation when the completed job
// is the second of the target's follow-listing pair.
func (s *Scheduler) maybeComputeMutuals(ctx context.Context, job *model.CrawlJob) error {
	if job.Type.Sibling() == "" {
		return nil
	}

	done, err := s.store.CompletedFollowJobs(ctx, job.TargetUsername)
	if err != nil {
		return err
	}
	if done < 2 {
		return nil
	}

	account, err := s.store.GetAccountByUsername(ctx, job.TargetUsername)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %q not found after crawl", job.TargetUsername)
	}

	_, err = s.computer.Compute(ctx, account.ID)
	return err
}

// rollDay resets the dispatch counter when the calendar day changes.
func (s *Scheduler) rollDay() {
	today := s.now().Format(dayFormat)
	if today != s.day {
		s.logger.Info("daily quota reset", "day", today, "dispatched_yesterday", s.dispatched)
		s.day = today
		s.dispatched = 0
	}
}

// jitterDelay returns a uniform random delay in [jitterMin, jitterMax).
func (s *Scheduler) jitterDelay() time.Duration {
	if s.jitterMax <= s.jitterMin {
		return s.jitterMin
	}
	return s.jitterMin + time.Duration(rand.Int63n(int64(s.jitterMax-s.jitterMin)))
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
