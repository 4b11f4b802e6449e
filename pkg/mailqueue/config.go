package mailqueue

import "time"

// Config holds the tuning knobs for the queue and retry workers.
type Config struct {
	// PollInterval is how often the queue worker drains due pending jobs.
	PollInterval time.Duration `env:"MAILQUEUE_POLL_INTERVAL" envDefault:"60s"`

	// RetryInterval is how often the retry worker re-queues failed jobs.
	RetryInterval time.Duration `env:"MAILQUEUE_RETRY_INTERVAL" envDefault:"600s"`

	// BatchSize caps how many jobs a single worker pass processes.
	BatchSize int `env:"MAILQUEUE_BATCH_SIZE" envDefault:"50"`

	// MaxAttempts is the delivery attempt ceiling. A job whose retry count
	// reaches this value is cancelled instead of retried again.
	MaxAttempts int `env:"MAILQUEUE_MAX_ATTEMPTS" envDefault:"3"`
}
