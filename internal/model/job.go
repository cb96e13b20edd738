package model

import "time"

// JobType identifies what a crawl job retrieves.
type JobType string

const (
	// JobTypeProfile fetches a single profile snapshot.
	JobTypeProfile JobType = "profile"

	// JobTypeFollowers iterates the target's follower listing.
	JobTypeFollowers JobType = "followers"

	// JobTypeFollowing iterates the target's following listing.
	JobTypeFollowing JobType = "following"
)

// Valid reports whether t is one of the known job types.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeProfile, JobTypeFollowers, JobTypeFollowing:
		return true
	}
	return false
}

// Sibling returns the paired follow-listing job type: followers for
// following and vice versa. Profile jobs have no sibling and return "".
// The scheduler uses this to decide when both edge sets of a target are
// complete and mutual derivation can run.
func (t JobType) Sibling() JobType {
	switch t {
	case JobTypeFollowers:
		return JobTypeFollowing
	case JobTypeFollowing:
		return JobTypeFollowers
	}
	return ""
}

// JobStatus is the crawl job state machine:
//
//	pending → in_progress → {completed, failed}
//
// Both completed and failed are terminal. A failed job is never retried
// automatically; the operator must re-enroll the target. A process
// interrupted mid-job leaves it in_progress, which also requires manual
// re-enrollment.
type JobStatus string

const (
	// StatusPending is the initial state of a newly enrolled job.
	StatusPending JobStatus = "pending"

	// StatusInProgress marks a job the crawler has started.
	StatusInProgress JobStatus = "in_progress"

	// StatusCompleted marks a job whose listing was fully consumed
	// (or bounded by maxCount).
	StatusCompleted JobStatus = "completed"

	// StatusFailed marks a job aborted by a crawl error. The error
	// message is recorded on the job.
	StatusFailed JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the state machine allows moving from
// s to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// CrawlJob is a durable unit of crawl work. It is created by the
// scheduler when a target is enrolled and mutated by the crawler as the
// job progresses. ProcessedItems is checkpointed periodically so a crash
// loses at most the in-flight item.
type CrawlJob struct {
	// ID is the job's database identifier, assigned on insert.
	// Dispatch order follows ID order (FIFO by creation).
	ID int64

	// TargetUsername is the handle of the enrolled target.
	TargetUsername string

	// Type is the kind of retrieval this job performs.
	Type JobType

	// Status is the job's position in the state machine.
	Status JobStatus

	// StartedAt is set when the job enters in_progress.
	StartedAt time.Time

	// CompletedAt is set when the job enters a terminal state.
	CompletedAt time.Time

	// Cursor is the opaque pagination position last checkpointed.
	// It is persisted for forward compatibility with incremental
	// resume but nothing currently reads it back.
	Cursor string

	// TotalItems is the number of items the job processed in total.
	// Set on completion, equal to ProcessedItems.
	TotalItems int

	// ProcessedItems is the running count of items processed,
	// checkpointed every few items.
	ProcessedItems int

	// ErrorMessage holds the failure reason for failed jobs.
	ErrorMessage string
}
