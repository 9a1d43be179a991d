package memory

import (
	"net/url"
	"strconv"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/pkg/errors"
)

func init() {
	setup.WorkQueue.Register("memory", func(u *url.URL) (port.WorkQueue, error) {
		parallelism := 4
		if rawValue := u.Query().Get("parallelism"); rawValue != "" {
			v, err := strconv.ParseInt(rawValue, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse 'parallelism' parameter")
			}
			parallelism = int(v)
		}

		if parallelism < 1 {
			return nil, errors.Errorf("invalid 'parallelism' parameter '%d'", parallelism)
		}

		return NewChainQueue(parallelism), nil
	})

	setup.Locker.Register("memory", func(u *url.URL) (port.Locker, error) {
		return NewLocker(), nil
	})

	setup.JobStore.Register("memory", func(u *url.URL) (port.JobStore, error) {
		return NewJobStore(), nil
	})

	setup.SearchEngine.Register("memory", func(u *url.URL) (port.SearchEngine, error) {
		return NewEngine(), nil
	})
}
