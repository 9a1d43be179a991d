package setup

import (
	"net/url"
	"sync"

	"github.com/pkg/errors"
)

var ErrSchemeNotRegistered = errors.New("scheme not registered")

type Factory[T any] func(u *url.URL) (T, error)

// Registry maps uri schemes to the factories of an implementation.
type Registry[T any] struct {
	mutex     sync.RWMutex
	factories map[string]Factory[T]
}

func (r *Registry[T]) Register(scheme string, factory Factory[T]) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.factories[scheme] = factory
}

func (r *Registry[T]) From(rawURL string) (T, error) {
	var zero T

	u, err := url.Parse(rawURL)
	if err != nil {
		return zero, errors.Wrapf(err, "could not parse uri '%s'", rawURL)
	}

	r.mutex.RLock()
	factory, exists := r.factories[u.Scheme]
	r.mutex.RUnlock()

	if !exists {
		return zero, errors.Wrapf(ErrSchemeNotRegistered, "scheme '%s'", u.Scheme)
	}

	value, err := factory(u)
	if err != nil {
		return zero, errors.WithStack(err)
	}

	return value, nil
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: map[string]Factory[T]{},
	}
}
