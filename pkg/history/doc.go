// Package history provides the append-only dispatch ledger.
//
// Every successful dispatch writes exactly one Entry recording what was sent,
// to whom, and over which channels. Entries are immutable once appended; the
// one exception is SyncReadAt, which stamps read times copied best-effort
// from the in-app feed.
package history
