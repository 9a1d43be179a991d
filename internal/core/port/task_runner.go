package port

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

type TaskEvent struct {
	Message *string
	Stats   *model.TaskStats
}

type TaskEventFunc func(e *TaskEvent)

func WithTaskMessage(message string) TaskEventFunc {
	return func(e *TaskEvent) {
		e.Message = &message
	}
}

func WithTaskStats(stats model.TaskStats) TaskEventFunc {
	return func(e *TaskEvent) {
		e.Stats = &stats
	}
}

func NewTaskEvent(funcs ...TaskEventFunc) TaskEvent {
	e := TaskEvent{}
	for _, fn := range funcs {
		fn(&e)
	}
	return e
}

// TaskHandler performs the index mutation of one kind of task.
type TaskHandler interface {
	Handle(ctx context.Context, task *model.IndexTask, events chan TaskEvent) error
}

type TaskHandlerFunc func(ctx context.Context, task *model.IndexTask, events chan TaskEvent) error

func (f TaskHandlerFunc) Handle(ctx context.Context, task *model.IndexTask, events chan TaskEvent) error {
	return f(ctx, task, events)
}

// WorkUnit is one serializable step of a chain.
type WorkUnit struct {
	ID      string        `json:"id"`
	ChainID model.ChainID `json:"chainId"`
	JobID   model.JobID   `json:"jobId"`
	TaskID  model.TaskID  `json:"taskId"`
}

type Chain struct {
	ID    model.ChainID `json:"id"`
	JobID model.JobID   `json:"jobId"`
	Units []WorkUnit    `json:"units"`
}

// ChainHandler executes the units of a chain. HandleChainError is called once
// per chain when a unit fails, HandleChainDone once when every unit succeeded.
type ChainHandler interface {
	HandleUnit(ctx context.Context, unit WorkUnit) error
	HandleChainError(ctx context.Context, chain Chain, err error)
	HandleChainDone(ctx context.Context, chain Chain)
}

// WorkQueue runs chains of units, strictly in order within a chain.
type WorkQueue interface {
	Enqueue(ctx context.Context, chain Chain) error
	// Cancel interrupts a pending or running chain. It fails with ErrNotFound
	// when the queue does not know the chain.
	Cancel(ctx context.Context, id model.ChainID) error
	// Run consumes the queue until ctx is done.
	Run(ctx context.Context, handler ChainHandler) error
}
