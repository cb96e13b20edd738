// Package database provides SQLite-based storage for Gramflow.
//
// This package implements the Store, which owns two logically
// independent namespaces on one database file:
//   - The graph namespace: accounts, follow edges, derived mutual
//     edges, the interest taxonomy, and classification scores
//   - The job namespace: the durable crawl job queue
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// server database because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. The single-threaded pipeline never needs concurrent writers
//  4. WAL mode provides good concurrent read performance
//
// Every state-changing method commits before returning, so a crash
// mid-batch loses at most the in-flight item.
package database
