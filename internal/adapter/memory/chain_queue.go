package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/adapter/memory/syncx"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
)

type chainEntry struct {
	chain  port.Chain
	cancel context.CancelFunc
}

// ChainQueue runs chains in goroutines of the current process. Chains are lost
// when the process exits.
type ChainQueue struct {
	runningMutex *sync.Mutex
	runningCond  *sync.Cond
	running      bool
	handler      port.ChainHandler

	chains    syncx.Map[model.ChainID, chainEntry]
	semaphore chan struct{}
}

// Enqueue implements [port.WorkQueue].
func (q *ChainQueue) Enqueue(ctx context.Context, chain port.Chain) error {
	chainCtx, cancel := context.WithCancel(context.Background())

	if _, loaded := q.chains.LoadOrStore(chain.ID, chainEntry{chain: chain, cancel: cancel}); loaded {
		cancel()
		return errors.Errorf("chain '%s' already enqueued", chain.ID)
	}

	chainCtx = slogx.WithAttrs(chainCtx,
		slog.String("chainID", string(chain.ID)),
		slog.String("jobID", string(chain.JobID)),
	)

	go q.run(chainCtx, chain)

	return nil
}

func (q *ChainQueue) run(ctx context.Context, chain port.Chain) {
	handler := q.waitHandler()

	q.semaphore <- struct{}{}
	defer func() {
		<-q.semaphore
	}()

	var err error
	for _, unit := range chain.Units {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Wrap(port.ErrCanceled, "chain canceled")
			break
		}

		if err = q.handleUnit(ctx, handler, unit); err != nil {
			break
		}
	}

	// The chain is forgotten before its outcome is reported
	if entry, exists := q.chains.LoadAndDelete(chain.ID); exists {
		defer entry.cancel()
	}

	if err != nil {
		handler.HandleChainError(ctx, chain, err)
		return
	}

	handler.HandleChainDone(ctx, chain)
}

func (q *ChainQueue) handleUnit(ctx context.Context, handler port.ChainHandler, unit port.WorkUnit) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			recoveredErr, ok := recovered.(error)
			if !ok {
				recoveredErr = errors.Errorf("%+v", recovered)
			}

			slog.ErrorContext(ctx, "recovered panic while running unit", slog.Any("error", errors.WithStack(recoveredErr)))

			err = errors.WithStack(recoveredErr)
		}
	}()

	return handler.HandleUnit(ctx, unit)
}

func (q *ChainQueue) waitHandler() port.ChainHandler {
	q.runningMutex.Lock()
	defer q.runningMutex.Unlock()

	for !q.running {
		q.runningCond.Wait()
	}

	return q.handler
}

// Cancel implements [port.WorkQueue].
func (q *ChainQueue) Cancel(ctx context.Context, id model.ChainID) error {
	entry, exists := q.chains.Load(id)
	if !exists {
		return errors.WithStack(port.ErrNotFound)
	}

	entry.cancel()

	return nil
}

// Run implements [port.WorkQueue]. Chains still running when ctx is done are canceled.
func (q *ChainQueue) Run(ctx context.Context, handler port.ChainHandler) error {
	q.runningMutex.Lock()
	q.handler = handler
	q.running = true
	q.runningCond.Broadcast()
	q.runningMutex.Unlock()

	<-ctx.Done()

	q.runningMutex.Lock()
	q.running = false
	q.runningMutex.Unlock()

	q.chains.Range(func(id model.ChainID, entry chainEntry) bool {
		slog.DebugContext(ctx, "canceling chain", slog.String("chainID", string(id)))
		entry.cancel()
		return true
	})

	return errors.WithStack(ctx.Err())
}

func NewChainQueue(parallelism int) *ChainQueue {
	runningMutex := &sync.Mutex{}
	return &ChainQueue{
		runningMutex: runningMutex,
		runningCond:  sync.NewCond(runningMutex),
		semaphore:    make(chan struct{}, parallelism),
	}
}

var _ port.WorkQueue = &ChainQueue{}
