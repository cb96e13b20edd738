package crawler

import (
	"context"

	"github.com/gramflow/gramflow/internal/model"
)

// Listing iterates a paginated follower or following listing. Entries
// are yielded one at a time; pages are fetched lazily as the iterator
// advances.
type Listing interface {
	// Next returns the next account in the listing, or ErrEndOfList
	// when the listing is exhausted.
	Next(ctx context.Context) (*model.AccountRef, error)

	// Cursor returns the opaque pagination position of the most
	// recently fetched page, suitable for checkpointing.
	Cursor() string
}

// Client retrieves accounts and listings from the network. The crawler
// depends on this interface so tests can substitute a fixture-backed
// implementation.
type Client interface {
	// FetchProfile retrieves a full profile snapshot by username.
	FetchProfile(ctx context.Context, username string) (*model.Profile, error)

	// ListFollowers opens the target's follower listing.
	ListFollowers(ctx context.Context, username string) (Listing, error)

	// ListFollowing opens the target's following listing.
	ListFollowing(ctx context.Context, username string) (Listing, error)
}
