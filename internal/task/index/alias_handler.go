package index

import (
	"context"
	"log/slog"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type AddAliasHandler struct {
	engines port.EngineProvider
}

func NewAddAliasHandler(engines port.EngineProvider) *AddAliasHandler {
	return &AddAliasHandler{
		engines: engines,
	}
}

// Handle implements [port.TaskHandler].
func (h *AddAliasHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.AddAliasParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	_, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := engine.PutAlias(ctx, task.Index.Name, params.Alias); err != nil {
		return errors.Wrapf(err, "could not add alias '%s' to index '%s'", params.Alias, task.Index.Name)
	}

	slog.InfoContext(ctx, "alias added", slog.String("alias", params.Alias))

	return nil
}

var _ port.TaskHandler = &AddAliasHandler{}

type RemoveAliasHandler struct {
	engines port.EngineProvider
}

func NewRemoveAliasHandler(engines port.EngineProvider) *RemoveAliasHandler {
	return &RemoveAliasHandler{
		engines: engines,
	}
}

// Handle implements [port.TaskHandler].
func (h *RemoveAliasHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.RemoveAliasParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	_, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := engine.DeleteAlias(ctx, task.Index.Name, params.Alias); err != nil {
		return errors.Wrapf(err, "could not remove alias '%s' from index '%s'", params.Alias, task.Index.Name)
	}

	slog.InfoContext(ctx, "alias removed", slog.String("alias", params.Alias))

	return nil
}

var _ port.TaskHandler = &RemoveAliasHandler{}
