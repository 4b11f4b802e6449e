package mailqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicbook/notify/pkg/email"
	"github.com/clinicbook/notify/pkg/logger"
)

// RetryWorker re-attempts failed jobs that still have attempts left. It runs
// on a slower cadence than the queue worker so transient transport outages
// get time to clear between attempts.
type RetryWorker struct {
	storage      Storage
	sender       email.Sender
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	logger       *slog.Logger
}

// NewRetryWorker creates a retry worker with a 10m poll interval by default.
func NewRetryWorker(storage Storage, sender email.Sender, opts ...WorkerOption) *RetryWorker {
	options := &workerOptions{
		pollInterval: 10 * time.Minute,
		batchSize:    50,
		maxAttempts:  3,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &RetryWorker{
		storage:      storage,
		sender:       sender,
		pollInterval: options.pollInterval,
		batchSize:    options.batchSize,
		maxAttempts:  options.maxAttempts,
		logger:       options.logger,
	}
}

// Run processes retry batches until ctx is cancelled.
func (w *RetryWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "mail queue retry worker started",
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("max_attempts", w.maxAttempts))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessBatch(ctx)

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "mail queue retry worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch re-queues and re-delivers one batch of retryable jobs.
func (w *RetryWorker) ProcessBatch(ctx context.Context) {
	jobs, err := w.storage.GetRetryable(ctx, w.maxAttempts, w.batchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to fetch retryable jobs", logger.Error(err))
		return
	}

	for i := range jobs {
		job := &jobs[i]

		// failed -> pending first, so the delivery outcome lands on a
		// pending job like any other attempt.
		if err := w.storage.Retry(ctx, job.ID); err != nil {
			w.logger.ErrorContext(ctx, "failed to re-queue job for retry",
				logger.JobID(job.ID), logger.Error(err))
			continue
		}

		w.logger.InfoContext(ctx, "retrying failed job",
			logger.JobID(job.ID), slog.Int("retry_count", job.RetryCount))

		deliver(ctx, w.storage, w.sender, job, w.maxAttempts, w.logger)
	}
}
