package index

import (
	"context"
	"log/slog"
	"maps"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/workflow"
	"github.com/pkg/errors"
)

type CreateIndexHandler struct {
	corpora port.CorpusStore
	engines port.EngineProvider
	jobs    port.JobStore
}

func NewCreateIndexHandler(corpora port.CorpusStore, engines port.EngineProvider, jobs port.JobStore) *CreateIndexHandler {
	return &CreateIndexHandler{
		corpora: corpora,
		engines: engines,
		jobs:    jobs,
	}
}

// Handle implements [port.TaskHandler].
func (h *CreateIndexHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.CreateIndexParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	corpus, err := h.corpora.GetCorpus(ctx, task.Corpus)
	if err != nil {
		return errors.WithStack(err)
	}

	server, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	indexName := task.Index.Name
	definition := port.IndexDefinition{
		Settings: indexSettings(corpus, server, params.ProductionSettings),
		Mappings: corpus.Mappings,
	}

	var created bool

	wf := workflow.New(
		workflow.StepFunc(
			"delete existing index",
			func(ctx context.Context) error {
				if !params.DeleteExisting {
					return nil
				}

				notify(ctx, events, port.WithTaskMessage("deleting existing index"))

				if err := engine.DeleteIndex(ctx, indexName); err != nil {
					return errors.Wrapf(err, "could not delete existing index '%s'", indexName)
				}

				return nil
			},
			nil,
		),
		workflow.StepFunc(
			"create index",
			func(ctx context.Context) error {
				notify(ctx, events, port.WithTaskMessage("creating index"))

				if err := engine.CreateIndex(ctx, indexName, definition); err != nil {
					return errors.Wrapf(err, "could not create index '%s'", indexName)
				}

				created = true

				return nil
			},
			func(ctx context.Context) error {
				if !created {
					return nil
				}

				slog.WarnContext(ctx, "removing partially created index")

				if err := engine.DeleteIndex(ctx, indexName); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		),
		workflow.StepFunc(
			"record availability",
			func(ctx context.Context) error {
				index := task.Index
				index.Available = true

				if err := h.jobs.SaveIndex(ctx, index); err != nil {
					return errors.Wrap(err, "could not save index availability")
				}

				return nil
			},
			nil,
		),
	)

	if err := wf.Execute(ctx); err != nil {
		return errors.WithStack(err)
	}

	slog.InfoContext(ctx, "index created", slog.Bool("production", params.ProductionSettings))

	return nil
}

// indexSettings returns the corpus settings, tuned for bulk loading in production.
func indexSettings(corpus *model.Corpus, server model.Server, production bool) map[string]any {
	settings := maps.Clone(corpus.Settings)
	if settings == nil {
		settings = map[string]any{}
	}

	if production {
		settings["number_of_shards"] = server.ProductionShards
		settings["number_of_replicas"] = server.ProductionReplicas
		settings["refresh_interval"] = "-1"
	}

	return settings
}

var _ port.TaskHandler = &CreateIndexHandler{}
