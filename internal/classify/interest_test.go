package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *database.Store {
	t.Helper()

	s, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.SeedTaxonomy(context.Background(), []database.TaxonomyEntry{
		{Name: "Fashion"},
		{Name: "Technology"},
		{Name: "Sports"},
	}); err != nil {
		t.Fatalf("failed to seed taxonomy: %v", err)
	}
	return s
}

// seedTarget stores a target account following n subjects and marks its
// following crawl completed.
func seedTarget(t *testing.T, store *database.Store, id, username string, n int) *model.Account {
	t.Helper()
	ctx := context.Background()

	if err := store.UpsertProfile(ctx, &model.Profile{ID: id, Username: username}); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}
	for i := 0; i < n; i++ {
		ref := &model.AccountRef{
			ID:       fmt.Sprintf("%s-f%d", id, i+1),
			Username: fmt.Sprintf("%s_follows%d", username, i+1),
		}
		if err := store.UpsertAccountRef(ctx, ref); err != nil {
			t.Fatalf("failed to seed subject: %v", err)
		}
		if err := store.InsertFollowEdge(ctx, id, ref.ID, model.DirectionFollowing); err != nil {
			t.Fatalf("failed to insert edge: %v", err)
		}
	}

	jobID, err := store.CreateJob(ctx, username, model.JobTypeFollowing)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if err := store.StartJob(ctx, jobID); err != nil {
		t.Fatalf("failed to start job: %v", err)
	}
	if err := store.CompleteJob(ctx, jobID, n); err != nil {
		t.Fatalf("failed to complete job: %v", err)
	}

	account, err := store.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("failed to get target: %v", err)
	}
	return account
}

// fakeClassifier answers every subject with a fixed category, and can
// fail specific batches or inject extra results.
type fakeClassifier struct {
	category    string
	confidence  float64
	batches     []Request
	failBatches map[int]bool
	extra       []Result
}

func (f *fakeClassifier) Classify(_ context.Context, req Request) (*Response, error) {
	batch := len(f.batches)
	f.batches = append(f.batches, req)

	if f.failBatches[batch] {
		return nil, ErrMalformedResponse
	}

	var resp Response
	for _, s := range req.Subjects {
		resp.Results = append(resp.Results, Result{
			Username:   s.Username,
			Category:   f.category,
			Confidence: f.confidence,
		})
	}
	resp.Results = append(resp.Results, f.extra...)
	return &resp, nil
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestClassifier(t *testing.T, store *database.Store, fake *fakeClassifier, opts ...Option) *InterestClassifier {
	t.Helper()

	opts = append([]Option{WithSleep(noSleep)}, opts...)
	return NewInterestClassifier(store, fake, discardLogger(), opts...)
}

func TestClassifyAccountBatching(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	target := seedTarget(t, store, "1001", "alice", 45)
	fake := &fakeClassifier{category: "Fashion", confidence: 0.8}

	c := newTestClassifier(t, store, fake, WithBatchSize(20))
	if err := c.ClassifyAccount(context.Background(), target); err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if len(fake.batches) != 3 {
		t.Fatalf("got %d batches, want 3 for 45 subjects at batch size 20", len(fake.batches))
	}
	if n := len(fake.batches[0].Subjects); n != 20 {
		t.Errorf("first batch size = %d, want 20", n)
	}
	if n := len(fake.batches[2].Subjects); n != 5 {
		t.Errorf("last batch size = %d, want 5", n)
	}

	// The taxonomy travels with every request.
	if len(fake.batches[0].Taxonomy) != 3 {
		t.Errorf("taxonomy size = %d, want 3", len(fake.batches[0].Taxonomy))
	}

	// Every subject got a score.
	scores, err := store.InterestScores(context.Background(), "1001-f1")
	if err != nil {
		t.Fatalf("failed to list scores: %v", err)
	}
	if len(scores) != 1 || scores[0].Confidence != 0.8 {
		t.Errorf("scores = %+v, want one Fashion score at 0.8", scores)
	}
}

func TestClassifyAccountNoSubjects(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	target := seedTarget(t, store, "1001", "alice", 0)
	fake := &fakeClassifier{category: "Fashion", confidence: 0.8}

	c := newTestClassifier(t, store, fake)
	if err := c.ClassifyAccount(context.Background(), target); err != nil {
		t.Fatalf("classify with no subjects failed: %v", err)
	}
	if len(fake.batches) != 0 {
		t.Errorf("classifier called %d times with no subjects, want 0", len(fake.batches))
	}
}

func TestClassifyAccountSkipsMalformedBatch(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	target := seedTarget(t, store, "1001", "alice", 30)
	fake := &fakeClassifier{
		category:    "Technology",
		confidence:  0.7,
		failBatches: map[int]bool{0: true},
	}

	c := newTestClassifier(t, store, fake, WithBatchSize(20))
	if err := c.ClassifyAccount(context.Background(), target); err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	// Batch 1 (20 subjects) was skipped; batch 2 (10 subjects) stored.
	ctx := context.Background()
	if scores, _ := store.InterestScores(ctx, "1001-f1"); len(scores) != 0 {
		t.Errorf("subject from failed batch has %d scores, want 0", len(scores))
	}
	if scores, _ := store.InterestScores(ctx, "1001-f21"); len(scores) != 1 {
		t.Errorf("subject from good batch has %d scores, want 1", len(scores))
	}
}

func TestClassifyAccountDiscardsBadResults(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	target := seedTarget(t, store, "1001", "alice", 2)
	fake := &fakeClassifier{
		category:   "fashion", // wrong case: not in the taxonomy
		confidence: 0.9,
		extra: []Result{
			{Username: "not_a_subject", Category: "Fashion", Confidence: 0.9},
		},
	}

	c := newTestClassifier(t, store, fake)
	if err := c.ClassifyAccount(context.Background(), target); err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	for _, id := range []string{"1001-f1", "1001-f2"} {
		scores, err := store.InterestScores(context.Background(), id)
		if err != nil {
			t.Fatalf("failed to list scores: %v", err)
		}
		if len(scores) != 0 {
			t.Errorf("subject %s has %d scores from discarded results, want 0", id, len(scores))
		}
	}
}

func TestClassifyAccountOverwritesScores(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	target := seedTarget(t, store, "1001", "alice", 1)
	ctx := context.Background()

	first := &fakeClassifier{category: "Sports", confidence: 0.5}
	if err := newTestClassifier(t, store, first).ClassifyAccount(ctx, target); err != nil {
		t.Fatalf("first classify failed: %v", err)
	}

	second := &fakeClassifier{category: "Sports", confidence: 0.95}
	if err := newTestClassifier(t, store, second).ClassifyAccount(ctx, target); err != nil {
		t.Fatalf("second classify failed: %v", err)
	}

	scores, err := store.InterestScores(ctx, "1001-f1")
	if err != nil {
		t.Fatalf("failed to list scores: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1 (overwritten, not appended)", len(scores))
	}
	if scores[0].Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95 (last write wins)", scores[0].Confidence)
	}
}

func TestClassifyEmptyTaxonomy(t *testing.T) {
	t.Parallel()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.UpsertProfile(ctx, &model.Profile{ID: "1001", Username: "alice"}); err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}
	account, _ := store.GetAccount(ctx, "1001")

	c := newTestClassifier(t, store, &fakeClassifier{category: "Fashion"})
	if err := c.ClassifyAccount(ctx, account); err != ErrEmptyTaxonomy {
		t.Errorf("got %v, want ErrEmptyTaxonomy", err)
	}
}

func TestProcessPending(t *testing.T) {
	t.Parallel()

	store := setupTestStore(t)
	for i := 0; i < 7; i++ {
		seedTarget(t, store, fmt.Sprintf("t%d", i+1), fmt.Sprintf("target%d", i+1), 1)
	}

	fake := &fakeClassifier{category: "Fashion", confidence: 0.8}
	c := newTestClassifier(t, store, fake, WithPendingLimit(5))
	ctx := context.Background()

	n, err := c.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("process pending failed: %v", err)
	}
	if n != 5 {
		t.Errorf("processed %d accounts, want 5 (limit)", n)
	}

	// Classified subjects drop out of the backlog; the next sweep
	// picks up what remains.
	n, err = c.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if n != 2 {
		t.Errorf("processed %d accounts in second sweep, want 2", n)
	}

	n, err = c.ProcessPending(ctx)
	if err != nil {
		t.Fatalf("third sweep failed: %v", err)
	}
	if n != 0 {
		t.Errorf("processed %d accounts with empty backlog, want 0", n)
	}
}
