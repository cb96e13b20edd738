// Package report renders account summaries from the graph store. A
// summary covers the account's profile, its mutual connections, and the
// interest scores of the accounts it follows.
package report
