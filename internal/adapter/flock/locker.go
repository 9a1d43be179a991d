package flock

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Locker holds named locks as lock files in a directory, shared by every
// process of the same host.
type Locker struct {
	dir string
}

// TryLock implements [port.Locker].
func (l *Locker) TryLock(ctx context.Context, name string) (port.Unlocker, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "could not create lock directory")
	}

	path := filepath.Join(l.dir, unsafeChars.ReplaceAllString(name, "_")+".lock")

	fileLock := flock.New(path)

	acquired, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "could not acquire lock '%s'", name)
	}

	if !acquired {
		return nil, errors.Wrapf(port.ErrLocked, "lock '%s'", name)
	}

	return &unlocker{flock: fileLock}, nil
}

type unlocker struct {
	flock *flock.Flock
	once  sync.Once
}

// Unlock implements [port.Unlocker].
func (u *unlocker) Unlock(ctx context.Context) error {
	var err error

	u.once.Do(func() {
		if unlockErr := u.flock.Unlock(); unlockErr != nil {
			err = errors.Wrap(unlockErr, "could not release lock")
		}
	})

	return err
}

func NewLocker(dir string) *Locker {
	return &Locker{
		dir: dir,
	}
}

var _ port.Locker = &Locker{}
