// Package model defines the core data structures used throughout Gramflow.
//
// This package contains the following main types:
//   - Account: A social network account, created on first sighting
//   - Profile: A full profile snapshot retrieved from the network
//   - AccountRef: A minimal account descriptor from a follower/following listing
//   - CrawlJob: A unit of crawl work with its status state machine
//   - InterestCategory / InterestScore: The fixed taxonomy and per-account scores
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, scheduler, classify, report) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON and storable in the
// SQLite schema owned by the database package.
package model
