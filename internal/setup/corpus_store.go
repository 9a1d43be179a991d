package setup

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/adapter/cache"
	"github.com/bornholm/corpus-indexer/internal/adapter/jsonl"
	"github.com/bornholm/corpus-indexer/internal/adapter/yaml"
	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/pkg/errors"
)

var getCorpusStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.CorpusStore, error) {
	fs, err := backend.New(conf.Corpora.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create corpora filesystem for uri '%s'", conf.Corpora.URI)
	}

	store := yaml.NewCorpusStore(fs)

	if conf.Corpora.CacheSize <= 0 {
		return store, nil
	}

	return cache.NewCorpusStore(store, conf.Corpora.CacheSize, conf.Corpora.CacheTTL), nil
})

var getReaderProviderFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.ReaderProvider, error) {
	return jsonl.NewReaderProvider(), nil
})
