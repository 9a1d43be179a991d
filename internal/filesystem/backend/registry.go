package backend

import (
	"net/url"
	"slices"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
)

var ErrSchemeNotRegistered = errors.New("scheme was not registered")

var (
	factoriesMutex sync.RWMutex
	factories      = make(map[string]BackendFactory, 0)
)

type BackendFactory func(url *url.URL) (filesystem.Backend, error)

func RegisterBackendFactory(scheme string, factory BackendFactory) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()

	factories[scheme] = factory
}

func Schemes() []string {
	factoriesMutex.RLock()
	defer factoriesMutex.RUnlock()

	schemes := make([]string, 0, len(factories))
	for s := range factories {
		schemes = append(schemes, s)
	}

	slices.Sort(schemes)

	return schemes
}

func New(dsn string) (filesystem.Backend, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	factoriesMutex.RLock()
	factory, exists := factories[u.Scheme]
	factoriesMutex.RUnlock()

	if !exists {
		return nil, errors.Wrapf(ErrSchemeNotRegistered, "no backend associated with scheme '%s'", u.Scheme)
	}

	b, err := factory(u)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return b, nil
}
