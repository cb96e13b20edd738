// Package crawler retrieves profiles and follow listings from the
// network and persists them through the store. A Crawler executes crawl
// jobs: it resolves the target's profile, iterates the paginated listing
// under a rate limit with jitter, and checkpoints progress so a crash
// loses at most the in-flight page.
package crawler
