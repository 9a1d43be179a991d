package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

var getGormDatabaseFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*gorm.DB, error) {
	dbConf := conf.Storage.Database

	db, err := gorm.Open(gormlite.Open(dbConf.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(conf.Logger.Level)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open job database '%s'", dbConf.DSN)
	}

	if conf.Logger.Level == slog.LevelDebug {
		db = db.Debug()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Job transitions are written by a single connection to avoid sqlite busy errors
	maxOpenConns := max(dbConf.MaxOpenConns, 1)
	sqlDB.SetMaxOpenConns(maxOpenConns)

	pragmas := fmt.Sprintf(
		"PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=%d",
		dbConf.BusyTimeout.Milliseconds(),
	)

	if err := db.Exec(pragmas).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	slog.DebugContext(ctx, "job database opened", slog.String("dsn", dbConf.DSN), slog.Int("maxOpenConns", maxOpenConns))

	return db, nil
})

func gormLogLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelInfo:
		return logger.Info
	case level <= slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}
