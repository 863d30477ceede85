//go:build wireinject

package di

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sandeepkv93/secure-forum-backend/internal/app"
	"github.com/sandeepkv93/secure-forum-backend/internal/config"
)

func InitializeApp(ctx context.Context, cfg *config.Config, base *slog.Logger) (*app.App, func(), error) {
	wire.Build(
		ProvideRuntime,
		ProvideLogger,
		ProvideDB,
		ProvideRedisClient,
		ProvideInMemoryNegativeLookupCache,
		ProvideNegativeLookupCache,
		ProvideScheduler,
		RepositorySet,
		ServiceSet,
		HTTPSet,
		ProvideApp,
	)
	return nil, nil, nil
}
