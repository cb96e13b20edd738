// Package scheduler owns the crawl work queue. It enrolls targets as
// job triples, dispatches pending jobs in FIFO batches under a daily
// quota, and triggers mutual derivation once both follow listings of a
// target are complete.
package scheduler
