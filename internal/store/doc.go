// Package store provides SQLite-backed persistence: the article slice the
// orchestrator reads and writes, the one-per-article fact-check records, and
// durable job checkpoints. The record commit is a single transaction over
// both the record and the article's denormalized cache fields, made
// idempotent by treating unique-constraint conflicts as successful no-ops.
package store
