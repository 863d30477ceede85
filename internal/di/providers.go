package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/secure-forum-backend/internal/app"
	"github.com/sandeepkv93/secure-forum-backend/internal/config"
	"github.com/sandeepkv93/secure-forum-backend/internal/health"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/handler"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/router"
	"github.com/sandeepkv93/secure-forum-backend/internal/jobs"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

const negativeCacheRedisPrefix = "forum:negcache"

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewSessionRepository,
	repository.NewConversationRepository,
	repository.NewMessageRepository,
)

var ServiceSet = wire.NewSet(
	ProvideSessionService,
	wire.Bind(new(service.SessionManager), new(*service.SessionService)),
	service.NewAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	service.NewConversationService,
	wire.Bind(new(service.ConversationServiceInterface), new(*service.ConversationService)),
	service.NewMessageService,
	wire.Bind(new(service.MessageServiceInterface), new(*service.MessageService)),
	ProvideUserService,
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
)

var HTTPSet = wire.NewSet(
	ProvideAuthHandler,
	handler.NewConversationHandler,
	handler.NewMessageHandler,
	handler.NewUserHandler,
	ProvideReadiness,
	ProvideRouterDependencies,
	router.NewRouter,
	ProvideHTTPServer,
)

// ProvideRuntime starts telemetry. Its cleanup flushes exporters within the observability
// shutdown timeout.
func ProvideRuntime(ctx context.Context, cfg *config.Config, base *slog.Logger) (*observability.Runtime, func(), error) {
	rt, err := observability.InitRuntime(ctx, cfg, base)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		flushCtx, cancel := boundedContext(cfg.ShutdownObservabilityTimeout)
		defer cancel()
		if err := rt.Shutdown(flushCtx); err != nil {
			base.Error("telemetry shutdown failed", "error", err)
			return
		}
		base.Info("telemetry flushed")
	}
	return rt, cleanup, nil
}

func ProvideLogger(rt *observability.Runtime) *slog.Logger {
	return rt.Logger
}

func ProvideDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, func(), error) {
	level := logger.Silent
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	db, err := repository.Open(cfg.DatabaseDriver, cfg.DatabaseURL, repository.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogLevel:     level,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			log.Error("database close failed", "error", err)
			return
		}
		log.Info("database closed")
	}
	return db, cleanup, nil
}

// ProvideRedisClient returns nil and a no-op cleanup when no Redis address is configured.
func ProvideRedisClient(cfg *config.Config, log *slog.Logger) (redis.UniversalClient, func()) {
	if !cfg.RedisEnabled() {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Error("redis close failed", "error", err)
			return
		}
		log.Info("redis closed")
	}
	return client, cleanup
}

func ProvideInMemoryNegativeLookupCache() *service.InMemoryNegativeLookupCacheStore {
	return service.NewInMemoryNegativeLookupCacheStore()
}

// ProvideNegativeLookupCache prefers Redis and falls back to the process-local store.
func ProvideNegativeLookupCache(client redis.UniversalClient, local *service.InMemoryNegativeLookupCacheStore) service.NegativeLookupCacheStore {
	if client != nil {
		return service.NewRedisNegativeLookupCacheStore(client, negativeCacheRedisPrefix)
	}
	return local
}

// ProvideScheduler starts the housekeeping jobs; its cleanup waits for running jobs. The
// local negative cache is only pruned when it is the active store.
func ProvideScheduler(cfg *config.Config, logger *slog.Logger, client redis.UniversalClient, local *service.InMemoryNegativeLookupCacheStore) (*jobs.Scheduler, func(), error) {
	scheduler, err := jobs.NewScheduler(logger)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		err := scheduler.Every("negative_cache.prune", cfg.NegativeLookupCacheTTL, func() {
			if n := local.Prune(); n > 0 {
				logger.Debug("negative lookup cache pruned", "removed", n)
			}
		})
		if err != nil {
			scheduler.Stop()
			return nil, nil, err
		}
	}
	scheduler.Start()
	cleanup := func() {
		scheduler.Stop()
		logger.Info("scheduler stopped")
	}
	return scheduler, cleanup, nil
}

func ProvideSessionService(cfg *config.Config, repo repository.SessionRepository) *service.SessionService {
	return service.NewSessionService(repo, cfg.SessionTokenPepper, cfg.SessionTTL)
}

func ProvideUserService(
	cfg *config.Config,
	users repository.UserRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	negCache service.NegativeLookupCacheStore,
) *service.UserService {
	return service.NewUserService(users, conversations, messages, negCache, cfg.NegativeLookupCacheTTL)
}

func ProvideAuthHandler(cfg *config.Config, auth service.AuthServiceInterface, sessions service.SessionManager) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, sessions, cfg.SessionCookieName, cfg.SessionCookieSecure)
}

func ProvideReadiness(cfg *config.Config, db *gorm.DB, client redis.UniversalClient) *health.CheckRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if client != nil {
		checkers = append(checkers, health.NewRedisChecker(client))
	}
	return health.NewCheckRunner(cfg.ReadinessCheckTimeout, 0, checkers...)
}

func ProvideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	conversationHandler *handler.ConversationHandler,
	messageHandler *handler.MessageHandler,
	userHandler *handler.UserHandler,
	sessions *service.SessionService,
	readiness *health.CheckRunner,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:         authHandler,
		ConversationHandler: conversationHandler,
		MessageHandler:      messageHandler,
		UserHandler:         userHandler,
		Sessions:            sessions,
		SessionCookieName:   cfg.SessionCookieName,
		MaxBodyBytes:        cfg.MaxRequestBodyBytes,
		Readiness:           readiness,
		EnableOTelHTTP:      cfg.OTELTracingEnabled || cfg.OTELMetricsEnabled,
	}
}

func ProvideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func ProvideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	db *gorm.DB,
	client redis.UniversalClient,
	readiness *health.CheckRunner,
	scheduler *jobs.Scheduler,
) *app.App {
	return app.New(cfg, logger, server, db, client, readiness, scheduler)
}

func boundedContext(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
