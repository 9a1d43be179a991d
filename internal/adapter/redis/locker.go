package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// Locker holds named locks shared by every process connected to the same
// redis server. Locks expire after their TTL unless refreshed.
type Locker struct {
	client *redis.Client
	keys   keys
	ttl    time.Duration
}

// Releases the lock only if it is still owned by the token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Extends the lock only if it is still owned by the token
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// TryLock implements [port.Locker].
func (l *Locker) TryLock(ctx context.Context, name string) (port.Unlocker, error) {
	key := l.keys.lock(name)
	token := xid.New().String()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !acquired {
		return nil, errors.Wrapf(port.ErrLocked, "lock '%s'", name)
	}

	refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	u := &unlocker{
		client: l.client,
		key:    key,
		token:  token,
		cancel: cancel,
	}

	go u.refresh(refreshCtx, l.ttl)

	return u, nil
}

type unlocker struct {
	client *redis.Client
	key    string
	token  string
	cancel context.CancelFunc
	once   sync.Once
}

func (u *unlocker) refresh(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := refreshScript.Run(ctx, u.client, []string{u.key}, u.token, ttl.Milliseconds()).Err(); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "could not refresh lock", slog.String("key", u.key), slog.Any("error", errors.WithStack(err)))
			}
		}
	}
}

// Unlock implements [port.Unlocker].
func (u *unlocker) Unlock(ctx context.Context) error {
	var err error

	u.once.Do(func() {
		u.cancel()

		if runErr := unlockScript.Run(ctx, u.client, []string{u.key}, u.token).Err(); runErr != nil && !errors.Is(runErr, redis.Nil) {
			err = errors.WithStack(runErr)
		}
	})

	return err
}

func NewLocker(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	return &Locker{
		client: client,
		keys:   keys{prefix: prefix},
		ttl:    ttl,
	}
}

var _ port.Locker = &Locker{}
