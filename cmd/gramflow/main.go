// Package main provides the entry point for the Gramflow CLI.
//
// Gramflow is a rate-limited, resumable follow-graph ingestion pipeline.
// It crawls profiles and follow listings for enrolled targets, derives
// mutual connections, and classifies followed accounts into an interest
// taxonomy.
//
// Usage:
//
//	gramflow run [targets...]
//	gramflow scrape --username <handle>
//	gramflow analyze
//	gramflow report --username <handle>
//
// See --help for all available options.
package main

// main is the entry point for Gramflow.
func main() {
	Execute()
}
