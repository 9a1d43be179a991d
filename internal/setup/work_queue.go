package setup

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

var WorkQueue = NewRegistry[port.WorkQueue]()

var getWorkQueueFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.WorkQueue, error) {
	queue, err := WorkQueue.From(conf.Queue.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve work queue for uri '%s'", conf.Queue.URI)
	}

	return queue, nil
})

var Locker = NewRegistry[port.Locker]()

var getLockerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.Locker, error) {
	locker, err := Locker.From(conf.Lock.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve locker for uri '%s'", conf.Lock.URI)
	}

	return locker, nil
})
