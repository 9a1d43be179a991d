package index

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

// Handlers returns the handler of every task kind.
func Handlers(corpora port.CorpusStore, engines port.EngineProvider, readers port.ReaderProvider, jobs port.JobStore) map[model.TaskKind]port.TaskHandler {
	return map[model.TaskKind]port.TaskHandler{
		model.TaskKindCreateIndex:    NewCreateIndexHandler(corpora, engines, jobs),
		model.TaskKindPopulateIndex:  NewPopulateIndexHandler(corpora, engines, readers),
		model.TaskKindUpdateIndex:    NewUpdateIndexHandler(corpora, engines),
		model.TaskKindUpdateSettings: NewUpdateSettingsHandler(engines),
		model.TaskKindAddAlias:       NewAddAliasHandler(engines),
		model.TaskKindRemoveAlias:    NewRemoveAliasHandler(engines),
		model.TaskKindDeleteIndex:    NewDeleteIndexHandler(engines, jobs),
	}
}

func taskParams[T model.TaskParams](task *model.IndexTask) (T, error) {
	params, ok := task.Params.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("unexpected params type '%T' for task '%s'", task.Params, task.ID)
	}

	return params, nil
}

func notify(ctx context.Context, events chan port.TaskEvent, funcs ...port.TaskEventFunc) {
	if events == nil {
		return
	}

	select {
	case events <- port.NewTaskEvent(funcs...):
	case <-ctx.Done():
	}
}
