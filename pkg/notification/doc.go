// Package notification provides the in-app notification feed.
//
// A Notification is the user-visible record written by the dispatch
// orchestrator; it is independent of the email delivery job that may be
// queued for the same event. The only mutation after creation is the
// monotonic unread -> read transition, available as single, bulk, and
// mark-all operations.
//
// The Manager wraps a Storage implementation with an optional Redis-backed
// unread-count cache. Cache failures are logged and ignored - the feed is
// always served from storage truth.
package notification
