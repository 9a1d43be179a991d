package port

import (
	"errors"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrCanceled       = errors.New("canceled")
	ErrIndexExists    = errors.New("index already exists")
	ErrCorpusBusy     = errors.New("corpus has an unfinished job")
	ErrCorpusNotReady = model.ErrCorpusNotReady
	ErrJobStarted     = errors.New("job already started")
	ErrLocked         = errors.New("lock is held by another owner")
)
