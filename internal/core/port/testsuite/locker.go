package testsuite

import (
	"context"
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

func TestLocker(t *testing.T, factory func(t *testing.T) (port.Locker, error)) {
	ctx := context.Background()

	locker, err := factory(t)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	unlocker, err := locker.TryLock(ctx, "corpus-demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := locker.TryLock(ctx, "corpus-demo"); !errors.Is(err, port.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %+v", err)
	}

	other, err := locker.TryLock(ctx, "corpus-other")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defer func() {
		if err := other.Unlock(ctx); err != nil {
			t.Errorf("%+v", errors.WithStack(err))
		}
	}()

	if err := unlocker.Unlock(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	// Unlocking twice is a no-op
	if err := unlocker.Unlock(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	relocked, err := locker.TryLock(ctx, "corpus-demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := relocked.Unlock(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}
