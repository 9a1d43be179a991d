package flock

import (
	"net/url"
	"path/filepath"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/pkg/errors"
)

// Scheme selects file based locks, ie "flock:///var/lib/corpus-indexer/locks".
const Scheme = "flock"

func init() {
	setup.Locker.Register(Scheme, func(u *url.URL) (port.Locker, error) {
		dir := filepath.Join(u.Host, u.Path)
		if dir == "" {
			return nil, errors.New("missing lock directory")
		}

		return NewLocker(dir), nil
	})
}
