package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/notify/pkg/admin"
	"github.com/clinicbook/notify/pkg/history"
	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/notification"
)

type fixture struct {
	queue         *mailqueue.MemoryStorage
	ledger        *history.MemoryStorage
	notifications *notification.MemoryStorage
	server        *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		queue:         mailqueue.NewMemoryStorage(),
		ledger:        history.NewMemoryStorage(),
		notifications: notification.NewMemoryStorage(),
	}
	handler := admin.NewHandler(f.queue, f.ledger, f.notifications)
	f.server = httptest.NewServer(handler.Router())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) enqueueJob(t *testing.T) *mailqueue.Job {
	t.Helper()
	job := &mailqueue.Job{
		UserID:  uuid.New(),
		Email:   "patient@example.com",
		Subject: "subject",
		Type:    "NEW_APPOINTMENT",
	}
	require.NoError(t, f.queue.Enqueue(context.Background(), job))
	return job
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandler_QueueEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("lists jobs filtered by status", func(t *testing.T) {
		f := newFixture(t)
		f.enqueueJob(t)
		sent := f.enqueueJob(t)
		require.NoError(t, f.queue.MarkSent(ctx, sent.ID, time.Now()))

		resp, err := http.Get(f.server.URL + "/queue/jobs?status=pending")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["jobs"], 1)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		f := newFixture(t)

		resp, err := http.Get(f.server.URL + "/queue/jobs?status=bogus")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("reports per-status counts", func(t *testing.T) {
		f := newFixture(t)
		f.enqueueJob(t)
		failed := f.enqueueJob(t)
		_, err := f.queue.MarkFailed(ctx, failed.ID, "boom")
		require.NoError(t, err)

		resp, err := http.Get(f.server.URL + "/queue/stats")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		counts := body["counts"].(map[string]any)
		assert.EqualValues(t, 1, counts["pending"])
		assert.EqualValues(t, 1, counts["failed"])
	})

	t.Run("manual retry resets a failed job", func(t *testing.T) {
		f := newFixture(t)
		job := f.enqueueJob(t)
		_, err := f.queue.MarkFailed(ctx, job.ID, "boom")
		require.NoError(t, err)

		resp, err := http.Post(f.server.URL+"/queue/jobs/"+job.ID.String()+"/retry", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got, err := f.queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusPending, got.Status)
	})

	t.Run("retrying a pending job conflicts", func(t *testing.T) {
		f := newFixture(t)
		job := f.enqueueJob(t)

		resp, err := http.Post(f.server.URL+"/queue/jobs/"+job.ID.String()+"/retry", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("retrying an unknown job is 404", func(t *testing.T) {
		f := newFixture(t)

		resp, err := http.Post(f.server.URL+"/queue/jobs/"+uuid.NewString()+"/retry", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("manual cancel records the reason", func(t *testing.T) {
		f := newFixture(t)
		job := f.enqueueJob(t)

		resp, err := http.Post(
			f.server.URL+"/queue/jobs/"+job.ID.String()+"/cancel",
			"application/json",
			strings.NewReader(`{"reason":"duplicate booking"}`),
		)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got, err := f.queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusCancelled, got.Status)
		assert.Equal(t, "duplicate booking", got.ErrorMessage)
	})
}

func TestHandler_HistoryEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("lists entries with filters", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		require.NoError(t, f.ledger.Append(ctx, &history.Entry{
			UserID: userID, Type: "WELCOME", Method: history.MethodInApp,
		}))
		require.NoError(t, f.ledger.Append(ctx, &history.Entry{
			UserID: uuid.New(), Type: "WELCOME", Method: history.MethodInApp,
		}))

		resp, err := http.Get(f.server.URL + "/history/?user_id=" + userID.String())
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Len(t, body["entries"], 1)
	})

	t.Run("stats count by type within a range", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.ledger.Append(ctx, &history.Entry{
			UserID: uuid.New(), Type: "WELCOME", Method: history.MethodInApp,
		}))

		from := time.Now().Add(-time.Hour).Format(time.RFC3339)
		resp, err := http.Get(f.server.URL + "/history/stats?from=" + from)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		counts := body["counts"].(map[string]any)
		assert.EqualValues(t, 1, counts["WELCOME"])
	})

	t.Run("rejects malformed time bounds", func(t *testing.T) {
		f := newFixture(t)

		resp, err := http.Get(f.server.URL + "/history/stats?from=yesterday")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandler_Cleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	old := time.Now().AddDate(0, 0, -120)

	sentJob := &mailqueue.Job{UserID: uuid.New(), Email: "a@example.com", CreatedAt: old}
	require.NoError(t, f.queue.Enqueue(ctx, sentJob))
	require.NoError(t, f.queue.MarkSent(ctx, sentJob.ID, old))

	require.NoError(t, f.ledger.Append(ctx, &history.Entry{
		UserID: uuid.New(), Type: "WELCOME", Method: history.MethodInApp, SentAt: old,
	}))
	require.NoError(t, f.notifications.Create(ctx, &notification.Notification{
		UserID: uuid.New(), Type: "WELCOME", CreatedAt: old,
	}))

	resp, err := http.Post(f.server.URL+"/cleanup?older_than_days=90", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["queue_jobs"])
	assert.EqualValues(t, 1, body["history"])
	assert.EqualValues(t, 1, body["notifications"])
}
