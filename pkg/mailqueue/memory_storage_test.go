package mailqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/template"
)

func enqueue(t *testing.T, storage mailqueue.Storage, priority template.Priority, scheduledAt time.Time) *mailqueue.Job {
	t.Helper()
	job := &mailqueue.Job{
		UserID:      uuid.New(),
		Email:       "patient@example.com",
		Subject:     "subject",
		Body:        "<p>body</p>",
		Priority:    priority,
		Type:        "NEW_APPOINTMENT",
		ScheduledAt: scheduledAt,
	}
	require.NoError(t, storage.Enqueue(context.Background(), job))
	return job
}

func TestMemoryStorage_GetPending(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("orders by priority rank then scheduled time", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()

		normalOld := enqueue(t, storage, template.PriorityNormal, now.Add(-3*time.Hour))
		lowOlder := enqueue(t, storage, template.PriorityLow, now.Add(-4*time.Hour))
		urgent := enqueue(t, storage, template.PriorityUrgent, now.Add(-time.Minute))
		high := enqueue(t, storage, template.PriorityHigh, now.Add(-2*time.Hour))

		jobs, err := storage.GetPending(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 4)

		assert.Equal(t, urgent.ID, jobs[0].ID)
		assert.Equal(t, high.ID, jobs[1].ID)
		// normal and low share a rank; the older scheduled time wins.
		assert.Equal(t, lowOlder.ID, jobs[2].ID)
		assert.Equal(t, normalOld.ID, jobs[3].ID)
	})

	t.Run("excludes future scheduled jobs", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()

		due := enqueue(t, storage, template.PriorityNormal, now.Add(-time.Minute))
		enqueue(t, storage, template.PriorityUrgent, now.Add(time.Hour))

		jobs, err := storage.GetPending(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, due.ID, jobs[0].ID)
	})

	t.Run("respects batch limit", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		for i := 0; i < 5; i++ {
			enqueue(t, storage, template.PriorityNormal, now.Add(-time.Minute))
		}

		jobs, err := storage.GetPending(ctx, now, 3)
		require.NoError(t, err)
		assert.Len(t, jobs, 3)
	})

	t.Run("excludes non-pending jobs", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now.Add(-time.Minute))
		require.NoError(t, storage.MarkSent(ctx, job.ID, now))

		jobs, err := storage.GetPending(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestMemoryStorage_Transitions(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("pending to sent", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)

		require.NoError(t, storage.MarkSent(ctx, job.ID, now))

		got, err := storage.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusSent, got.Status)
		require.NotNil(t, got.SentAt)
	})

	t.Run("pending to failed increments retry count", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)

		count, err := storage.MarkFailed(ctx, job.ID, "smtp timeout")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := storage.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusFailed, got.Status)
		assert.Equal(t, "smtp timeout", got.ErrorMessage)
	})

	t.Run("failed back to pending via retry", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)
		_, err := storage.MarkFailed(ctx, job.ID, "smtp timeout")
		require.NoError(t, err)

		require.NoError(t, storage.Retry(ctx, job.ID))

		got, err := storage.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusPending, got.Status)
		assert.Equal(t, 1, got.RetryCount, "retry count survives the reset")
		assert.Empty(t, got.ErrorMessage)
	})

	t.Run("cancel records reason", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)

		require.NoError(t, storage.Cancel(ctx, job.ID, "Cancelled by operator"))

		got, err := storage.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusCancelled, got.Status)
		assert.Equal(t, "Cancelled by operator", got.ErrorMessage)
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)
		require.NoError(t, storage.MarkSent(ctx, job.ID, now))

		assert.ErrorIs(t, storage.MarkSent(ctx, job.ID, now), mailqueue.ErrInvalidTransition)
		_, err := storage.MarkFailed(ctx, job.ID, "x")
		assert.ErrorIs(t, err, mailqueue.ErrInvalidTransition)
		assert.ErrorIs(t, storage.Retry(ctx, job.ID), mailqueue.ErrInvalidTransition)
		assert.ErrorIs(t, storage.Cancel(ctx, job.ID, "x"), mailqueue.ErrInvalidTransition)
	})

	t.Run("retry requires failed status", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		job := enqueue(t, storage, template.PriorityNormal, now)

		assert.ErrorIs(t, storage.Retry(ctx, job.ID), mailqueue.ErrInvalidTransition)
	})

	t.Run("unknown job", func(t *testing.T) {
		storage := mailqueue.NewMemoryStorage()
		assert.ErrorIs(t, storage.MarkSent(ctx, uuid.New(), now), mailqueue.ErrJobNotFound)
	})
}

func TestMemoryStorage_GetRetryable(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	storage := mailqueue.NewMemoryStorage()

	exhausted := enqueue(t, storage, template.PriorityNormal, now)
	for i := 0; i < 3; i++ {
		_, err := storage.MarkFailed(ctx, exhausted.ID, "boom")
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, storage.Retry(ctx, exhausted.ID))
		}
	}

	failedOnce := enqueue(t, storage, template.PriorityNormal, now)
	_, err := storage.MarkFailed(ctx, failedOnce.ID, "boom")
	require.NoError(t, err)

	jobs, err := storage.GetRetryable(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, failedOnce.ID, jobs[0].ID)
}

func TestMemoryStorage_CountByStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	storage := mailqueue.NewMemoryStorage()

	enqueue(t, storage, template.PriorityNormal, now)
	sent := enqueue(t, storage, template.PriorityNormal, now)
	require.NoError(t, storage.MarkSent(ctx, sent.ID, now))
	failed := enqueue(t, storage, template.PriorityNormal, now)
	_, err := storage.MarkFailed(ctx, failed.ID, "boom")
	require.NoError(t, err)

	counts, err := storage.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[mailqueue.StatusPending])
	assert.Equal(t, 1, counts[mailqueue.StatusSent])
	assert.Equal(t, 1, counts[mailqueue.StatusFailed])
}

func TestMemoryStorage_DeleteTerminalOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	storage := mailqueue.NewMemoryStorage()

	oldSent := &mailqueue.Job{
		UserID:    uuid.New(),
		Email:     "a@example.com",
		CreatedAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, storage.Enqueue(ctx, oldSent))
	require.NoError(t, storage.MarkSent(ctx, oldSent.ID, now))

	oldPending := &mailqueue.Job{
		UserID:    uuid.New(),
		Email:     "b@example.com",
		CreatedAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, storage.Enqueue(ctx, oldPending))

	removed, err := storage.DeleteTerminalOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = storage.Get(ctx, oldPending.ID)
	assert.NoError(t, err, "pending jobs survive retention regardless of age")
}
