// Package graph derives mutual connections from the stored follow
// edges. A mutual is an account that both follows and is followed by
// the subject; derivation is idempotent and only ever adds edges.
package graph
