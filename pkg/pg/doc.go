// Package pg provides PostgreSQL connectivity for the notification pipeline:
// a pgxpool connection factory with startup retries, goose-based schema
// migrations, and error classification helpers shared by the Postgres-backed
// storages in pkg/template, pkg/notification, pkg/mailqueue, and pkg/history.
package pg
