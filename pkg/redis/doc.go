// Package redis provides Redis connectivity with startup retries. The
// notification feed uses it for the unread-count cache; everything else in the
// pipeline is Postgres-backed.
package redis
