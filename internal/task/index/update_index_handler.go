package index

import (
	"context"
	"log/slog"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type UpdateIndexHandler struct {
	corpora port.CorpusStore
	engines port.EngineProvider
}

func NewUpdateIndexHandler(corpora port.CorpusStore, engines port.EngineProvider) *UpdateIndexHandler {
	return &UpdateIndexHandler{
		corpora: corpora,
		engines: engines,
	}
}

// Handle implements [port.TaskHandler].
func (h *UpdateIndexHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.UpdateIndexParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	corpus, err := h.corpora.GetCorpus(ctx, task.Corpus)
	if err != nil {
		return errors.WithStack(err)
	}

	if corpus.Update == nil {
		return errors.Errorf("corpus '%s' does not define an update script", corpus.Name)
	}

	_, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	updated, err := engine.UpdateByQuery(ctx, task.Index.Name, port.UpdateByQueryRequest{
		Script:    *corpus.Update,
		DateField: corpus.DateFieldName(),
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
	})
	if err != nil {
		return errors.Wrapf(err, "could not update documents of index '%s'", task.Index.Name)
	}

	notify(ctx, events, port.WithTaskStats(model.TaskStats{DocumentsUpdated: updated}))

	slog.InfoContext(ctx, "index updated", slog.Int64("updated", updated))

	return nil
}

var _ port.TaskHandler = &UpdateIndexHandler{}
