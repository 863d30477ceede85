package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/secure-forum-backend/internal/config"
	"github.com/sandeepkv93/secure-forum-backend/internal/health"
	"github.com/sandeepkv93/secure-forum-backend/internal/jobs"
)

// App owns the HTTP server. Stores, jobs and telemetry are released by the cleanup returned
// from the injector.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Server    *http.Server
	DB        *gorm.DB
	Redis     redis.UniversalClient
	Readiness *health.CheckRunner
	Jobs      *jobs.Scheduler

	ShutdownTimeout          time.Duration
	ShutdownHTTPDrainTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.CheckRunner,
	scheduler *jobs.Scheduler,
) *App {
	return &App{
		Config:                   cfg,
		Logger:                   logger,
		Server:                   server,
		DB:                       db,
		Redis:                    redisClient,
		Readiness:                readiness,
		Jobs:                     scheduler,
		ShutdownTimeout:          cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout: cfg.ShutdownHTTPDrainTimeout,
	}
}

// Run serves until ctx is cancelled or the listener fails, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		shutdownErr := a.Shutdown(context.Background())
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return shutdownErr
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}
	return a.Shutdown(context.Background())
}

// Shutdown stops accepting connections and waits for in-flight requests within the drain
// timeout.
func (a *App) Shutdown(ctx context.Context) error {
	total := a.ShutdownTimeout
	if total <= 0 {
		total = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	if a.Server == nil {
		return nil
	}
	drainCtx, drainCancel := boundedContext(ctx, a.ShutdownHTTPDrainTimeout)
	defer drainCancel()
	if err := a.Server.Shutdown(drainCtx); err != nil {
		a.Logger.Error("http drain failed", "error", err)
		return fmt.Errorf("drain http: %w", err)
	}
	a.Logger.Info("http server drained")
	return nil
}

func boundedContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
