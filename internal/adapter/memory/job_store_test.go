package memory

import (
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/port/testsuite"
)

func TestJobStore(t *testing.T) {
	testsuite.TestJobStore(t, func(t *testing.T) (port.JobStore, error) {
		return NewJobStore(), nil
	})
}
