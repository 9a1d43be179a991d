package redis

import (
	"net/url"
	"strconv"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	Scheme       = "redis"
	SecureScheme = "rediss"

	DefaultParallelism = 4
	DefaultLockTTL     = 30 * time.Second
)

func init() {
	for _, scheme := range []string{Scheme, SecureScheme} {
		setup.WorkQueue.Register(scheme, func(u *url.URL) (port.WorkQueue, error) {
			client, params, err := newClient(u, "prefix", "parallelism")
			if err != nil {
				return nil, errors.WithStack(err)
			}

			parallelism := DefaultParallelism
			if rawParallelism := params.Get("parallelism"); rawParallelism != "" {
				if parallelism, err = strconv.Atoi(rawParallelism); err != nil {
					return nil, errors.Wrap(err, "could not parse 'parallelism' parameter")
				}
			}

			if parallelism < 1 {
				return nil, errors.Errorf("invalid 'parallelism' parameter '%d'", parallelism)
			}

			return NewChainQueue(client, prefix(params), parallelism), nil
		})

		setup.Locker.Register(scheme, func(u *url.URL) (port.Locker, error) {
			client, params, err := newClient(u, "prefix", "ttl")
			if err != nil {
				return nil, errors.WithStack(err)
			}

			ttl := DefaultLockTTL
			if rawTTL := params.Get("ttl"); rawTTL != "" {
				if ttl, err = time.ParseDuration(rawTTL); err != nil {
					return nil, errors.Wrap(err, "could not parse 'ttl' parameter")
				}
			}

			return NewLocker(client, prefix(params), ttl), nil
		})
	}
}

// newClient extracts the given parameters from the url query, as the redis
// client rejects unknown options, and creates the client.
func newClient(u *url.URL, names ...string) (*redis.Client, url.Values, error) {
	query := u.Query()
	params := url.Values{}

	for _, name := range names {
		if query.Has(name) {
			params.Set(name, query.Get(name))
			query.Del(name)
		}
	}

	clientURL := *u
	clientURL.RawQuery = query.Encode()

	options, err := redis.ParseURL(clientURL.String())
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	return redis.NewClient(options), params, nil
}

func prefix(params url.Values) string {
	if prefix := params.Get("prefix"); prefix != "" {
		return prefix
	}

	return DefaultPrefix
}
