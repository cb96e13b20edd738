// Package classify maps accounts to interest categories using an LLM.
// The subjects of classification are the accounts a target follows;
// they are sent to the model in batches together with the taxonomy, and
// the returned category scores are stored with last-write-wins
// semantics.
package classify
