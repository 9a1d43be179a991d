package gorm

import (
	"path/filepath"
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/port/testsuite"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

func TestJobStore(t *testing.T) {
	testsuite.TestJobStore(t, func(t *testing.T) (port.JobStore, error) {
		dsn := filepath.Join(t.TempDir(), "jobs.sqlite")

		db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		sqlDB.SetMaxOpenConns(1)

		t.Cleanup(func() {
			if err := sqlDB.Close(); err != nil {
				t.Logf("could not close database: %+v", errors.WithStack(err))
			}
		})

		return NewJobStore(db), nil
	})
}
