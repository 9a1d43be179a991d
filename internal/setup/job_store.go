package setup

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/adapter/gorm"
	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

var JobStore = NewRegistry[port.JobStore]()

// MemoryDSN keeps jobs in memory instead of a sqlite database.
const MemoryDSN = "memory"

var getJobStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.JobStore, error) {
	if conf.Storage.Database.DSN == MemoryDSN {
		store, err := JobStore.From("memory://")
		if err != nil {
			return nil, errors.Wrap(err, "could not create memory job store")
		}

		return store, nil
	}

	db, err := getGormDatabaseFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create gorm database from config")
	}

	return gorm.NewJobStore(db), nil
})
