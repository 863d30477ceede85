package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func NewDBChecker(db *gorm.DB) Checker {
	return CheckerFunc{Name: "db", Fn: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql db: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}}
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckerFunc{Name: "redis", Fn: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}
