package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/secure-forum-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     logger.LogLevel
}

// Open connects to driver ("postgres" or "sqlite") with error translation enabled so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string, opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	level := opts.LogLevel
	if level == 0 {
		level = logger.Silent
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	maxOpen := opts.MaxOpenConns
	if driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func ensureID(id *string) error {
	if *id != "" {
		return nil
	}
	v, err := newID()
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func utcNow() time.Time { return time.Now().UTC() }

func outcome(err error, notFound error) string {
	switch {
	case err == nil:
		return "success"
	case notFound != nil && err == notFound:
		return "not_found"
	default:
		return "error"
	}
}
