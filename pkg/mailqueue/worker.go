package mailqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicbook/notify/pkg/email"
	"github.com/clinicbook/notify/pkg/logger"
)

// CancelReasonMaxRetries is the reason recorded when a job exhausts its
// delivery attempts.
const CancelReasonMaxRetries = "Max retry attempts reached"

// Worker drains due pending jobs on a fixed interval and hands them to the
// email transport. A single logical worker owns the pending lane; status
// transitions are still conditional in storage so a stale instance cannot
// corrupt job state.
type Worker struct {
	storage      Storage
	sender       email.Sender
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	logger       *slog.Logger
}

// WorkerOption configures a Worker or RetryWorker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	logger       *slog.Logger
}

// WithPollInterval overrides the wake-up interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBatchSize overrides how many jobs one pass processes.
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithMaxAttempts overrides the delivery attempt ceiling.
func WithMaxAttempts(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewWorker creates a queue worker with a 60s poll interval by default.
func NewWorker(storage Storage, sender email.Sender, opts ...WorkerOption) *Worker {
	options := &workerOptions{
		pollInterval: time.Minute,
		batchSize:    50,
		maxAttempts:  3,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		storage:      storage,
		sender:       sender,
		pollInterval: options.pollInterval,
		batchSize:    options.batchSize,
		maxAttempts:  options.maxAttempts,
		logger:       options.logger,
	}
}

// Run processes batches until ctx is cancelled. The in-flight batch is
// finished before returning.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "mail queue worker started",
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("batch_size", w.batchSize))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessBatch(ctx)

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "mail queue worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch delivers one batch of due jobs. Per-job failures are isolated;
// a storage-level failure is logged and left for the next wake-up.
func (w *Worker) ProcessBatch(ctx context.Context) {
	jobs, err := w.storage.GetPending(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to fetch pending jobs", logger.Error(err))
		return
	}

	for i := range jobs {
		deliver(ctx, w.storage, w.sender, &jobs[i], w.maxAttempts, w.logger)
	}
}

// deliver attempts one send and records the outcome. A failure that pushes
// the retry count to the ceiling cancels the job instead of leaving it
// failed.
func deliver(ctx context.Context, storage Storage, sender email.Sender, job *Job, maxAttempts int, log *slog.Logger) {
	// Templates without a dedicated email body fall back to the in-app text.
	body := job.EmailBody
	if body == "" {
		body = job.Body
	}
	sendErr := sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   job.Email,
		Subject:  job.Subject,
		BodyHTML: body,
		Tag:      job.Type,
	})
	if sendErr == nil {
		if err := storage.MarkSent(ctx, job.ID, time.Now()); err != nil {
			log.ErrorContext(ctx, "failed to mark job sent",
				logger.JobID(job.ID), logger.Error(err))
		}
		log.InfoContext(ctx, "email delivered",
			logger.JobID(job.ID), logger.NotificationType(job.Type))
		return
	}

	count, err := storage.MarkFailed(ctx, job.ID, sendErr.Error())
	if err != nil {
		log.ErrorContext(ctx, "failed to mark job failed",
			logger.JobID(job.ID), logger.Error(err))
		return
	}

	log.WarnContext(ctx, "email delivery failed",
		logger.JobID(job.ID), logger.NotificationType(job.Type),
		slog.Int("retry_count", count), logger.Error(sendErr))

	if count >= maxAttempts {
		if err := storage.Cancel(ctx, job.ID, CancelReasonMaxRetries); err != nil {
			log.ErrorContext(ctx, "failed to cancel exhausted job",
				logger.JobID(job.ID), logger.Error(err))
			return
		}
		log.WarnContext(ctx, "job cancelled after exhausting retries",
			logger.JobID(job.ID), slog.Int("attempts", count))
	}
}
