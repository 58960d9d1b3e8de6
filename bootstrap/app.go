// Package bootstrap assembles the Vigil components into a running
// application: configuration, logging, storage, rule engine, notification
// dispatch, and the HTTP API, with coordinated shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"vigil/api"
	"vigil/config"
	"vigil/core"
	"vigil/detect"
	"vigil/notify"
	"vigil/service"
	"vigil/storage"

	"go.uber.org/zap"
)

// App represents the Vigil application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Store        storage.AlertStore
	Engine       *service.EngineService
	Alerts       *service.AlertService
	Bus          *service.AlertBus
	DispatchPool *core.WorkerPool
	APIServer    *api.Server

	cancel   context.CancelFunc
	serverCh chan error
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{serverCh: make(chan error, 1)}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Vigil alert engine starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	store, err := InitStore(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.Store = store

	rules, err := config.LoadRules(cfg.Engine.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	sugar.Infow("Rules loaded", "file", cfg.Engine.RulesFile, "count", len(rules))

	senders := []notify.Sender{
		notify.NewEmailSender(cfg.SMTP, sugar),
		notify.NewWebhookSender(cfg.Webhook, sugar),
	}
	dispatcher := notify.NewDispatcher(senders, sugar)

	poolCtx, cancel := context.WithCancel(ctx)
	app.cancel = cancel
	app.DispatchPool = core.NewWorkerPool(poolCtx,
		cfg.Engine.DispatchWorkers, cfg.Engine.DispatchQueue, "dispatch", sugar)

	app.Bus = service.NewAlertBus(sugar)
	app.Engine = service.NewEngineService(detect.NewRuleEngine(rules), store,
		dispatcher, app.Bus, app.DispatchPool, sugar)
	app.Alerts = service.NewAlertService(store, sugar)

	app.APIServer = api.NewServer(api.ServerOptions{
		Engine:            app.Engine,
		Alerts:            app.Alerts,
		Bus:               app.Bus,
		Tester:            notify.NewTester(senders, sugar),
		Address:           cfg.Address(),
		RequestsPerSecond: cfg.API.RateLimit.RequestsPerSecond,
		Burst:             cfg.API.RateLimit.Burst,
		Logger:            sugar,
	})

	return app, nil
}

// InitStore creates the alert store the configuration selects.
func InitStore(cfg *config.Config, sugar *zap.SugaredLogger) (storage.AlertStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
			}
		}
		return storage.NewSQLiteAlertStore(cfg.Storage.SQLitePath, sugar)
	default:
		sugar.Info("Using in-memory alert store; alerts do not survive restarts")
		return storage.NewMemoryAlertStore(), nil
	}
}

// Start launches the worker pool and the API server.
func (a *App) Start() error {
	if err := a.DispatchPool.Start(); err != nil {
		return fmt.Errorf("failed to start dispatch pool: %w", err)
	}

	go func() {
		a.serverCh <- a.APIServer.Start()
	}()

	a.Sugar.Infow("Vigil started", "address", a.Config.Address(),
		"storage", a.Config.Storage.Backend)
	return nil
}

// WaitForShutdown blocks until a shutdown signal is received or the API
// server fails.
func (a *App) WaitForShutdown() error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		a.Sugar.Infow("Shutdown signal received", "signal", sig.String())
		return nil
	case err := <-a.serverCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	}
}

// Shutdown stops the components in reverse start order: the API first so no
// new events arrive, then the dispatch pool so queued notifications drain,
// then the store.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := a.APIServer.Shutdown(ctx); err != nil {
		a.Sugar.Errorw("API server shutdown error", "error", err)
	}

	a.DispatchPool.Stop()
	a.cancel()

	if err := a.Store.Close(); err != nil {
		a.Sugar.Errorw("Store close error", "error", err)
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
