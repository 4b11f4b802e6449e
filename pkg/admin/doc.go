// Package admin exposes the operator HTTP surface: queue inspection and
// intervention (list, counts, manual retry, manual cancel), history queries
// and per-type stats, and retention cleanup across the queue, the ledger
// and the in-app feed.
package admin
