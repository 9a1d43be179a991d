package memory

import (
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/port/testsuite"
)

func TestChainQueue(t *testing.T) {
	testsuite.TestWorkQueue(t, func(t *testing.T) (port.WorkQueue, error) {
		return NewChainQueue(2), nil
	})
}
