package port

import "context"

type Unlocker interface {
	Unlock(ctx context.Context) error
}

// Locker provides exclusive named locks. TryLock fails with ErrLocked when the
// lock is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, name string) (Unlocker, error)
}
