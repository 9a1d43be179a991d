package flock

import (
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/port/testsuite"
)

func TestLocker(t *testing.T) {
	testsuite.TestLocker(t, func(t *testing.T) (port.Locker, error) {
		return NewLocker(t.TempDir()), nil
	})
}
