package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/notify/internal/platform"
	"github.com/clinicbook/notify/pkg/admin"
	"github.com/clinicbook/notify/pkg/config"
	"github.com/clinicbook/notify/pkg/dispatch"
	"github.com/clinicbook/notify/pkg/email"
	"github.com/clinicbook/notify/pkg/history"
	"github.com/clinicbook/notify/pkg/httpserver"
	"github.com/clinicbook/notify/pkg/logger"
	"github.com/clinicbook/notify/pkg/mailqueue"
	"github.com/clinicbook/notify/pkg/notification"
	"github.com/clinicbook/notify/pkg/pg"
	redisconn "github.com/clinicbook/notify/pkg/redis"
	"github.com/clinicbook/notify/pkg/reminder"
	"github.com/clinicbook/notify/pkg/template"
)

type appConfig struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	EmailDevDir    string        `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	ReminderTick   time.Duration `env:"REMINDER_TICK_INTERVAL" envDefault:"300s"`
	UnreadCacheTTL time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"1m"`
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "notifier"),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("notifier exited", logger.Error(err))
		os.Exit(1)
	}
	log.Info("notifier shut down")
}

func run(ctx context.Context, appCfg appConfig, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redisconn.Config
	config.MustLoad(&redisCfg)

	redisClient, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", logger.Error(err))
		}
	}()

	templates := template.NewPgStorage(pool)
	if err := template.Seed(ctx, templates); err != nil {
		return err
	}

	queue := mailqueue.NewPgStorage(pool)
	ledger := history.NewPgStorage(pool)

	notifications := notification.NewManager(
		notification.NewPgStorage(pool),
		notification.WithManagerLogger(log),
		notification.WithUnreadCache(
			notification.NewRedisUnreadCache(redisClient, appCfg.UnreadCacheTTL),
		),
		notification.WithReadSync(ledger),
	)

	sender := buildSender(appCfg, log)

	dispatcher := dispatch.NewDispatcher(
		templates,
		platform.NewUserDirectory(pool),
		notifications,
		queue,
		ledger,
		dispatch.WithLogger(log),
	)

	var queueCfg mailqueue.Config
	config.MustLoad(&queueCfg)

	worker := mailqueue.NewWorker(queue, sender,
		mailqueue.WithPollInterval(queueCfg.PollInterval),
		mailqueue.WithBatchSize(queueCfg.BatchSize),
		mailqueue.WithMaxAttempts(queueCfg.MaxAttempts),
		mailqueue.WithWorkerLogger(log),
	)
	retryWorker := mailqueue.NewRetryWorker(queue, sender,
		mailqueue.WithPollInterval(queueCfg.RetryInterval),
		mailqueue.WithBatchSize(queueCfg.BatchSize),
		mailqueue.WithMaxAttempts(queueCfg.MaxAttempts),
		mailqueue.WithWorkerLogger(log),
	)
	scheduler := reminder.NewScheduler(
		platform.NewAppointmentStore(pool),
		dispatcher,
		reminder.WithTickInterval(appCfg.ReminderTick),
		reminder.WithSchedulerLogger(log),
	)

	adminHandler := admin.NewHandler(queue, ledger, notifications.Storage(),
		admin.WithLogger(log),
	)

	router := chi.NewRouter()
	router.Get("/health", httpserver.HealthCheckHandler(log))
	router.Get("/ready", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool),
		redisconn.Healthcheck(redisClient),
	))
	router.Mount("/admin", adminHandler.Router())

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)
	server := httpserver.New(srvCfg, httpserver.WithLogger(log))

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		_ = worker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = retryWorker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = scheduler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := server.Run(ctx, router); err != nil {
			log.Error("admin server failed", logger.Error(err))
		}
	}()

	wg.Wait()
	return ctx.Err()
}

// buildSender prefers Postmark when tokens are configured and falls back to
// the on-disk dev sender otherwise.
func buildSender(appCfg appConfig, log *slog.Logger) email.Sender {
	var emailCfg email.Config
	config.MustLoad(&emailCfg)

	if emailCfg.PostmarkServerToken != "" && emailCfg.PostmarkAccountToken != "" {
		log.Info("using postmark email transport")
		return email.MustNewPostmarkClient(emailCfg)
	}

	log.Info("using dev email transport", slog.String("dir", appCfg.EmailDevDir))
	return email.NewDevSender(appCfg.EmailDevDir)
}
