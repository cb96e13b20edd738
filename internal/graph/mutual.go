package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gramflow/gramflow/internal/database"
)

// Computer derives mutual edges for crawled accounts.
type Computer struct {
	store  *database.Store
	logger *slog.Logger
}

// NewComputer creates a Computer reading and writing through store.
func NewComputer(store *database.Store, logger *slog.Logger) *Computer {
	return &Computer{
		store:  store,
		logger: logger,
	}
}

// Compute intersects the account's follower and following sets and
// records each member as a mutual edge. Existing mutual edges are left
// in place, so recomputation after new crawls only adds. Returns the
// number of newly inserted edges.
func (c *Computer) Compute(ctx context.Context, accountID string) (int, error) {
	followers, err := c.store.FollowerIDs(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load followers: %w", err)
	}
	following, err := c.store.FollowingIDs(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load following: %w", err)
	}

	// Either side empty means no intersection; skip the set build.
	if len(followers) == 0 || len(following) == 0 {
		return 0, nil
	}

	followerSet := make(map[string]struct{}, len(followers))
	for _, id := range followers {
		followerSet[id] = struct{}{}
	}

	inserted := 0
	for _, id := range following {
		if _, ok := followerSet[id]; !ok {
			continue
		}

		added, err := c.store.InsertMutualEdge(ctx, accountID, id)
		if err != nil {
			return inserted, fmt.Errorf("insert mutual edge: %w", err)
		}
		if added {
			inserted++
		}
	}

	c.logger.Info("computed mutuals",
		"account_id", accountID,
		"followers", len(followers),
		"following", len(following),
		"new_mutuals", inserted)
	return inserted, nil
}
