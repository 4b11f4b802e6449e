// Package logger provides a slog.Logger factory with environment presets and
// typed attribute helpers shared across the notification pipeline.
//
// The factory returns a standard *slog.Logger so packages depend only on the
// standard library interface:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Environment, "notifier"),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers keep log field names consistent between the dispatcher,
// the queue workers, and the admin surface:
//
//	log.Error("delivery failed", logger.JobID(job.ID), logger.Error(err))
package logger
