package model

import "time"

// Account is a social network account as persisted in the graph store.
// Accounts are created on first sighting, either as a crawl subject or as
// an endpoint of a follow edge, and are never deleted. The externally
// assigned account ID is the stable identity; the username may change
// between sightings.
type Account struct {
	// ID is the externally assigned, stable account identifier.
	ID string `json:"user_id"`

	// Username is the account's current handle. Mutable across sightings.
	Username string `json:"username"`

	// FullName is the display name shown on the profile.
	FullName string `json:"full_name"`

	// Bio is the profile's biography text.
	Bio string `json:"bio"`

	// ProfilePicURL references the profile image. The image itself is
	// never fetched; we store the URL as an opaque attribute.
	ProfilePicURL string `json:"profile_pic_url"`

	// FollowerCount is the follower count reported by the profile.
	FollowerCount int `json:"follower_count"`

	// FollowingCount is the following count reported by the profile.
	FollowingCount int `json:"following_count"`

	// IsPrivate reports whether the account is private.
	IsPrivate bool `json:"is_private"`

	// LastUpdated is when this record was last written.
	LastUpdated time.Time `json:"last_updated"`
}

// Profile is a full profile snapshot as retrieved from the network.
// Upserting a Profile overwrites every attribute of the stored Account.
type Profile struct {
	ID             string `json:"user_id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio"`
	ProfilePicURL  string `json:"profile_pic_url"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	IsPrivate      bool   `json:"is_private"`
}

// AccountRef is the minimal account descriptor yielded by a follower or
// following listing. Upserting an AccountRef is insert-if-absent: it never
// overwrites richer data from a previous full profile fetch.
type AccountRef struct {
	ID            string `json:"user_id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	IsPrivate     bool   `json:"is_private"`
}

// EdgeDirection distinguishes the two follow-edge tables.
type EdgeDirection string

const (
	// DirectionFollower marks an edge "other follows account".
	DirectionFollower EdgeDirection = "follower"

	// DirectionFollowing marks an edge "account follows other".
	DirectionFollowing EdgeDirection = "following"
)

// MutualEdge records that an account both follows and is followed by
// another account. Mutual edges are derived from follow edges and only
// ever grow; the source graph is append-only.
type MutualEdge struct {
	AccountID string    `json:"user_id"`
	MutualID  string    `json:"mutual_id"`
	CreatedAt time.Time `json:"created_at"`
}
