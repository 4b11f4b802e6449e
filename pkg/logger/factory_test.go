package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/notify/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Run("json format by default", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))

		log.Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))

		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})

	t.Run("development preset enables debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(
			logger.WithDevelopment("notifier"),
			logger.WithOutput(&buf),
		)

		log.Debug("verbose detail")
		assert.Contains(t, buf.String(), "verbose detail")
		assert.Contains(t, buf.String(), "service=notifier")
	})

	t.Run("static attrs appear on every record", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("component", "worker")),
		)

		log.Info("first")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "worker", record["component"])
	})
}

func TestDomainAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	userID := uuid.New()
	jobID := uuid.New()
	log.LogAttrs(context.Background(), slog.LevelInfo, "dispatched",
		logger.UserID(userID),
		logger.JobID(jobID),
		logger.NotificationType("NEW_APPOINTMENT"),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, userID.String(), record["user_id"])
	assert.Equal(t, jobID.String(), record["job_id"])
	assert.Equal(t, "NEW_APPOINTMENT", record["notification_type"])
}
