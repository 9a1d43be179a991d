package memory

import (
	"context"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

// Locker holds named locks for the current process only.
type Locker struct {
	mutex sync.Mutex
	held  map[string]struct{}
}

// TryLock implements [port.Locker].
func (l *Locker) TryLock(ctx context.Context, name string) (port.Unlocker, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, held := l.held[name]; held {
		return nil, errors.Wrapf(port.ErrLocked, "lock '%s'", name)
	}

	l.held[name] = struct{}{}

	return &unlocker{locker: l, name: name}, nil
}

type unlocker struct {
	locker *Locker
	name   string
	once   sync.Once
}

// Unlock implements [port.Unlocker].
func (u *unlocker) Unlock(ctx context.Context) error {
	u.once.Do(func() {
		u.locker.mutex.Lock()
		defer u.locker.mutex.Unlock()

		delete(u.locker.held, u.name)
	})

	return nil
}

func NewLocker() *Locker {
	return &Locker{
		held: map[string]struct{}{},
	}
}

var _ port.Locker = &Locker{}
