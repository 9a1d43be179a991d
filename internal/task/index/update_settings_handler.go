package index

import (
	"context"
	"log/slog"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type UpdateSettingsHandler struct {
	engines port.EngineProvider
}

func NewUpdateSettingsHandler(engines port.EngineProvider) *UpdateSettingsHandler {
	return &UpdateSettingsHandler{
		engines: engines,
	}
}

// Handle implements [port.TaskHandler].
func (h *UpdateSettingsHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.UpdateSettingsParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	_, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := engine.PutSettings(ctx, task.Index.Name, params.Settings); err != nil {
		return errors.Wrapf(err, "could not update settings of index '%s'", task.Index.Name)
	}

	slog.InfoContext(ctx, "index settings updated", slog.Any("settings", params.Settings))

	return nil
}

var _ port.TaskHandler = &UpdateSettingsHandler{}
