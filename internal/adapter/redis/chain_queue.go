package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/go-x/slogx"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	popTimeout     = time.Second
	cancelInterval = 500 * time.Millisecond
)

// ChainQueue shares chains between every worker connected to the same redis
// server. A chain runs on a single worker.
type ChainQueue struct {
	client      *redis.Client
	keys        keys
	parallelism int
}

// Enqueue implements [port.WorkQueue].
func (q *ChainQueue) Enqueue(ctx context.Context, chain port.Chain) error {
	data, err := json.Marshal(chain)
	if err != nil {
		return errors.WithStack(err)
	}

	created, err := q.client.SetNX(ctx, q.keys.chain(chain.ID), data, chainTTL).Result()
	if err != nil {
		return errors.WithStack(err)
	}

	if !created {
		return errors.Errorf("chain '%s' already enqueued", chain.ID)
	}

	if err := q.client.LPush(ctx, q.keys.pending(), pendingEntry(chain.ID, chain.JobID)).Err(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Cancel implements [port.WorkQueue].
func (q *ChainQueue) Cancel(ctx context.Context, id model.ChainID) error {
	exists, err := q.client.Exists(ctx, q.keys.chain(id)).Result()
	if err != nil {
		return errors.WithStack(err)
	}

	if exists == 0 {
		return errors.WithStack(port.ErrNotFound)
	}

	if err := q.client.Set(ctx, q.keys.canceled(id), "1", chainTTL).Err(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Run implements [port.WorkQueue].
func (q *ChainQueue) Run(ctx context.Context, handler port.ChainHandler) error {
	var wg sync.WaitGroup

	for i := range q.parallelism {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			q.consume(slogx.WithAttrs(ctx, slog.Int("worker", worker)), handler)
		}(i)
	}

	wg.Wait()

	return errors.WithStack(ctx.Err())
}

func (q *ChainQueue) consume(ctx context.Context, handler port.ChainHandler) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := q.client.BRPop(ctx, popTimeout, q.keys.pending()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}

			slog.ErrorContext(ctx, "could not pop pending chain", slog.Any("error", errors.WithStack(err)))

			select {
			case <-ctx.Done():
			case <-time.After(popTimeout):
			}

			continue
		}

		// BRPOP replies with the key and the popped value
		entry := result[1]
		id, jobID := parsePendingEntry(entry)

		chain, err := q.load(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted before the chain started, it is handed to the next worker
				if pushErr := q.client.RPush(context.WithoutCancel(ctx), q.keys.pending(), entry).Err(); pushErr != nil {
					slog.ErrorContext(ctx, "could not requeue chain", slog.String("chainID", string(id)), slog.Any("error", errors.WithStack(pushErr)))
				}
				return
			}

			slog.ErrorContext(ctx, "could not load chain", slog.String("chainID", string(id)), slog.Any("error", errors.WithStack(err)))

			if jobID != "" {
				handler.HandleChainError(context.WithoutCancel(ctx), port.Chain{ID: id, JobID: jobID}, errors.Wrapf(err, "could not load chain '%s'", id))
			}

			continue
		}

		q.run(ctx, handler, chain)
	}
}

func (q *ChainQueue) load(ctx context.Context, id model.ChainID) (port.Chain, error) {
	var chain port.Chain

	data, err := q.client.Get(ctx, q.keys.chain(id)).Bytes()
	if err != nil {
		return chain, errors.WithStack(err)
	}

	if err := json.Unmarshal(data, &chain); err != nil {
		return chain, errors.WithStack(err)
	}

	return chain, nil
}

func (q *ChainQueue) run(ctx context.Context, handler port.ChainHandler, chain port.Chain) {
	ctx = slogx.WithAttrs(ctx,
		slog.String("chainID", string(chain.ID)),
		slog.String("jobID", string(chain.JobID)),
	)

	chainCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go q.watchCancel(chainCtx, chain.ID, cancel)

	var err error
	for _, unit := range chain.Units {
		canceled, cancelErr := q.canceled(chainCtx, chain.ID)
		if cancelErr != nil {
			err = errors.WithStack(cancelErr)
			break
		}

		if canceled || chainCtx.Err() != nil {
			err = errors.Wrap(port.ErrCanceled, "chain canceled")
			break
		}

		if err = q.handleUnit(chainCtx, handler, unit); err != nil {
			break
		}
	}

	cancel()

	// Outcomes are reported without the canceled context
	reportCtx := context.WithoutCancel(ctx)

	// The chain is forgotten before its outcome is reported
	if delErr := q.client.Del(reportCtx, q.keys.chain(chain.ID), q.keys.canceled(chain.ID)).Err(); delErr != nil {
		slog.ErrorContext(ctx, "could not delete chain", slog.Any("error", errors.WithStack(delErr)))
	}

	if err != nil {
		handler.HandleChainError(reportCtx, chain, err)
		return
	}

	handler.HandleChainDone(reportCtx, chain)
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

func (q *ChainQueue) watchCancel(ctx context.Context, id model.ChainID, cancel context.CancelFunc) {
	ticker := time.NewTicker(cancelInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			canceled, err := q.canceled(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					slog.WarnContext(ctx, "could not check chain cancellation", slog.Any("error", errors.WithStack(err)))
				}
				continue
			}

			if canceled {
				slog.DebugContext(ctx, "canceling chain")
				cancel()
				return
			}
		}
	}
}

func (q *ChainQueue) canceled(ctx context.Context, id model.ChainID) (bool, error) {
	exists, err := q.client.Exists(ctx, q.keys.canceled(id)).Result()
	if err != nil {
		return false, errors.WithStack(err)
	}

	return exists > 0, nil
}

func NewChainQueue(client *redis.Client, prefix string, parallelism int) *ChainQueue {
	return &ChainQueue{
		client:      client,
		keys:        keys{prefix: prefix},
		parallelism: parallelism,
	}
}

var _ port.WorkQueue = &ChainQueue{}
