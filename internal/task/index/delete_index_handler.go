package index

import (
	"context"
	"log/slog"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type DeleteIndexHandler struct {
	engines port.EngineProvider
	jobs    port.JobStore
}

func NewDeleteIndexHandler(engines port.EngineProvider, jobs port.JobStore) *DeleteIndexHandler {
	return &DeleteIndexHandler{
		engines: engines,
		jobs:    jobs,
	}
}

// Handle implements [port.TaskHandler].
func (h *DeleteIndexHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	if _, err := taskParams[model.DeleteIndexParams](task); err != nil {
		return errors.WithStack(err)
	}

	_, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := engine.DeleteIndex(ctx, task.Index.Name); err != nil {
		return errors.Wrapf(err, "could not delete index '%s'", task.Index.Name)
	}

	index := task.Index
	index.Available = false

	if err := h.jobs.SaveIndex(ctx, index); err != nil {
		return errors.Wrap(err, "could not save index availability")
	}

	slog.InfoContext(ctx, "index deleted")

	return nil
}

var _ port.TaskHandler = &DeleteIndexHandler{}
