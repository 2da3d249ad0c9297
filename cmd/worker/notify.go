package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/config"
	"github.com/planhaus/portal-backend/internal/bootstrap"
	"github.com/planhaus/portal-backend/internal/logging"
	"github.com/planhaus/portal-backend/internal/notify"
	"github.com/planhaus/portal-backend/internal/projects/repository"
	"github.com/planhaus/portal-backend/internal/storage/postgres"
	"github.com/planhaus/portal-backend/internal/users"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send status-change emails from the notify queue",
	Long:  `Consumes project status events, emails the project owner and requeues failed deliveries on a schedule.`,
	Args:  cobra.NoArgs,
	RunE:  runNotify,
}

var (
	requeueMaxAttempts int
	requeueCmd         = &cobra.Command{
		Use:   "requeue",
		Short: "Move failed notifications back onto the queue once",
		Args:  cobra.NoArgs,
		RunE:  runRequeue,
	}
)

func init() {
	requeueCmd.Flags().IntVar(&requeueMaxAttempts, "max-attempts", 0, "drop letters that failed this many times (default NOTIFY_MAX_ATTEMPTS)")
}

type workerDeps struct {
	cfg        *config.Config
	log        *zap.Logger
	dispatcher *notify.Dispatcher

	sqlDB *sql.DB
	pool  *pgxpool.Pool
	rdb   *redis.Client
}

func (w *workerDeps) Close() {
	if w.rdb != nil {
		_ = w.rdb.Close()
	}
	if w.sqlDB != nil {
		_ = w.sqlDB.Close()
	}
	if w.pool != nil {
		w.pool.Close()
	}
	_ = w.log.Sync()
}

func buildDeps(ctx context.Context) (*workerDeps, error) {
	cfg, err := config.LoadWorker()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	w := &workerDeps{cfg: cfg, log: log}
	fail := func(err error) (*workerDeps, error) {
		w.Close()
		return nil, err
	}

	if w.sqlDB, err = postgres.NewConnection(ctx, &cfg.Database); err != nil {
		return fail(err)
	}
	if w.pool, err = bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)}); err != nil {
		return fail(err)
	}
	if w.rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		return fail(err)
	}

	templates, err := notify.LoadTemplates(cfg.Notify.TemplatesPath)
	if err != nil {
		return fail(err)
	}

	mailer := notify.NewHTTPMailer(notify.MailerConfig{
		BaseURL:       cfg.Notify.APIBaseURL,
		APIKey:        cfg.Notify.APIKey,
		From:          cfg.Notify.From,
		RatePerSecond: cfg.Notify.RatePerSecond,
		Burst:         cfg.Notify.Burst,
	})
	w.dispatcher = notify.NewDispatcher(w.rdb,
		repository.NewPostgresStore(w.sqlDB),
		users.NewRepo(w.pool),
		mailer,
		templates,
		notify.DispatcherConfig{PortalURL: cfg.Notify.PortalURL},
		log,
	)
	return w, nil
}

func runNotify(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	sched, err := notify.NewScheduler(deps.dispatcher, deps.cfg.Notify.RequeueSchedule, deps.cfg.Notify.MaxAttempts)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	deps.log.Info("requeue scheduled", zap.String("schedule", deps.cfg.Notify.RequeueSchedule))
	return deps.dispatcher.Run(ctx)
}

func runRequeue(cmd *cobra.Command, _ []string) error {
	deps, err := buildDeps(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	maxAttempts := requeueMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = deps.cfg.Notify.MaxAttempts
	}

	moved, dropped, err := deps.dispatcher.Requeue(cmd.Context(), maxAttempts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "requeued %d, dropped %d\n", moved, dropped)
	return nil
}
