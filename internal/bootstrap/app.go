package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/planhaus/portal-backend/config"
	"github.com/planhaus/portal-backend/internal/auth"
	authmw "github.com/planhaus/portal-backend/internal/auth/middleware"
	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/payments"
	"github.com/planhaus/portal-backend/internal/projects/repository"
	"github.com/planhaus/portal-backend/internal/projects/service"
	"github.com/planhaus/portal-backend/internal/storage/objectstore"
	"github.com/planhaus/portal-backend/internal/storage/postgres"
	"github.com/planhaus/portal-backend/internal/users"
)

const (
	demoEndpoint  = "localhost:9000"
	demoAccessKey = "minioadmin"
	demoSecretKey = "minioadmin"
)

// App holds the wired API dependencies and the connections to close on exit.
type App struct {
	Router RouterDeps

	sqlDB *sql.DB
	pool  *pgxpool.Pool
	rdb   *redis.Client
}

func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg.App.IsDemo() {
		return NewDemoApp(cfg, log)
	}
	return NewProductionApp(ctx, cfg, log)
}

// NewDemoApp runs entirely in memory with header auth and offline URL
// signing against a local MinIO endpoint.
func NewDemoApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	sc := storageConfig(cfg.Storage)
	sc.Driver = "minio"
	if sc.Endpoint == "" {
		sc.Endpoint = demoEndpoint
	}
	if sc.AccessKey == "" {
		sc.AccessKey = demoAccessKey
	}
	if sc.SecretKey == "" {
		sc.SecretKey = demoSecretKey
	}
	presigner, err := objectstore.NewMinioPresigner(sc)
	if err != nil {
		return nil, err
	}

	store := repository.NewMemoryStore()
	broker := events.NewMemoryBroker()
	projects := service.NewProjectService(store, broker)
	activity := service.NewActivityService(projects, store, repository.NewMemoryActivityStore(), presigner, cfg.Storage.URLTTL)

	log.Warn("demo mode: in-memory stores and header authentication")

	return &App{
		Router: RouterDeps{
			ServiceName: cfg.App.ServiceName,
			Version:     cfg.App.Version,
			Mode:        cfg.App.Mode,
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      log,
			Events:      broker,
			Auth:        authmw.DevAuthMiddleware(),
			Projects:    projects,
			Activity:    activity,
			Payments:    payments.NewService(cfg.Payments.WebhookSecret, cfg.Payments.Tolerance, payments.NewMemoryClaims(), projects),
		},
	}, nil
}

func NewProductionApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	var err error
	app.pool, err = OpenDB(ctx, DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		return fail(err)
	}
	app.sqlDB, err = postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return fail(err)
	}
	app.rdb, err = OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}

	fb, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		return fail(err)
	}
	presigner, err := objectstore.New(ctx, storageConfig(cfg.Storage))
	if err != nil {
		return fail(fmt.Errorf("object storage: %w", err))
	}

	userRepo := users.NewRepo(app.pool)
	store := repository.NewPostgresStore(app.sqlDB)
	publisher := events.NewRedisPublisher(app.rdb)
	projects := service.NewProjectService(store, publisher)
	activity := service.NewActivityService(projects, store, repository.NewPostgresActivityStore(app.sqlDB), presigner, cfg.Storage.URLTTL)

	app.Router = RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		Mode:        cfg.App.Mode,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
		DB:          app.pool,
		Redis:       app.rdb,
		Events:      publisher,
		Auth:        authmw.FirebaseAuthMiddleware(fb, userRepo),
		Profiles:    userRepo,
		Projects:    projects,
		Activity:    activity,
		Payments:    payments.NewService(cfg.Payments.WebhookSecret, cfg.Payments.Tolerance, payments.NewRedisClaims(app.rdb), projects),
	}
	return app, nil
}

func storageConfig(sc config.StorageConfig) objectstore.Config {
	return objectstore.Config{
		Driver:    sc.Driver,
		Bucket:    sc.Bucket,
		Region:    sc.Region,
		Endpoint:  sc.Endpoint,
		AccessKey: sc.AccessKey,
		SecretKey: sc.SecretKey,
		UseSSL:    sc.UseSSL,
	}
}
