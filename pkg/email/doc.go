// Package email provides the outbound email transport consumed by the
// delivery queue worker.
//
// The Sender interface hides the concrete provider: production uses Postmark's
// transactional API, local development uses DevSender which writes each email
// to disk. The transport performs no retries of its own - failed sends are
// recorded on the queue job and retried by the retry worker.
package email
