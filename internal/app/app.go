package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/db"
	"github.com/simpliearn/simpliearn-backend/internal/http"
	"github.com/simpliearn/simpliearn-backend/internal/observability"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	dbs          *db.DatabaseService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// OpenDB connects and migrates the schema.
func OpenDB(log *logger.Logger, cfg Config) (*db.DatabaseService, error) {
	dbs, err := db.NewDatabaseService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return dbs, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "simpliearn-" + cfg.Role,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbs, err := OpenDB(log, cfg)
	if err != nil {
		return nil, err
	}
	theDB := dbs.DB()

	reposet := wireRepos(theDB, log)

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbs.Close()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset)
	if err != nil {
		clientset.Close()
		_ = dbs.Close()
		return nil, err
	}

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		Metrics:      metrics,
		dbs:          dbs,
		otelShutdown: otelShutdown,
	}
	if cfg.RunsAPI() {
		a.Router = wireRouter(log, wireHandlers(log, serviceset), metrics)
	}
	return a, nil
}

// Start launches background work: the job worker pool (worker role) and metric collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Bus)
		a.Metrics.StartJobQueueCollector(ctx, a.Log, a.Repos.Jobs)
	}

	// Start generic job worker
	if a.Cfg.RunsWorker() && a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
}

// Run serves HTTP until ctx is cancelled. A worker-only app blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Router == nil {
		<-ctx.Done()
		return nil
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Port, "role", a.Cfg.Role)
	return (&http.Server{Engine: a.Router}).Run(ctx, a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
		if a.Services.JobWorker != nil && a.Cfg.RunsWorker() {
			a.Services.JobWorker.Wait()
		}
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbs != nil {
		_ = a.dbs.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
