package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

// Planner turns requests into persisted jobs. It only reads from the search engines.
type Planner struct {
	corpora  port.CorpusStore
	engines  port.EngineProvider
	jobs     port.JobStore
	resolver *Resolver
}

// Plan builds and persists the job answering an index request.
func (p *Planner) Plan(ctx context.Context, req IndexRequest) (*model.IndexJob, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	corpus, err := p.corpora.GetCorpus(ctx, req.Corpus)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve corpus '%s'", req.Corpus)
	}

	if err := corpus.ReadyToIndex(); err != nil {
		return nil, errors.WithStack(err)
	}

	if req.Update && corpus.Update == nil {
		return nil, newInvalidRequestError("corpus '%s' does not define an update script", corpus.Name)
	}

	job, err := p.build(ctx, corpus, req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := p.jobs.CreateJob(ctx, job); err != nil {
		return nil, errors.Wrap(err, "could not save job")
	}

	slog.InfoContext(ctx, "job planned",
		slog.String("jobID", string(job.ID)),
		slog.String("corpus", string(job.Corpus)),
		slog.String("index", job.Target.Name),
		slog.Any("tasks", job.Kinds()),
	)

	return job, nil
}

func (p *Planner) build(ctx context.Context, corpus *model.Corpus, req IndexRequest) (*model.IndexJob, error) {
	server, engine, err := p.engines.Engine(ctx, corpus.Server)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve server '%s'", corpus.Server)
	}

	createNew := req.CreateNew()

	target, err := p.resolveTarget(ctx, engine, corpus, req.Prod, createNew)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	job := model.NewIndexJob(corpus.Name, target)

	if createNew {
		job.AddTask(target, model.CreateIndexParams{
			ProductionSettings: req.Prod,
			DeleteExisting:     req.Clear,
		})
	}

	if !(req.MappingsOnly || req.Update) {
		job.AddTask(target, model.PopulateIndexParams{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
	}

	if req.Update {
		job.AddTask(target, model.UpdateIndexParams{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
	}

	if req.Prod && createNew {
		job.AddTask(target, model.UpdateSettingsParams{
			Settings: restoredSettings(server),
		})
	}

	if req.Prod && req.Rollover {
		alias := corpus.AliasName()

		aliased, err := p.resolver.IndicesWithAlias(ctx, server.Name, alias)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		for _, index := range aliased {
			if index.Same(target) {
				continue
			}

			job.AddTask(index, model.RemoveAliasParams{Alias: alias})
		}

		job.AddTask(target, model.AddAliasParams{Alias: alias})
	}

	return job, nil
}

func (p *Planner) resolveTarget(ctx context.Context, engine port.SearchEngine, corpus *model.Corpus, prod bool, createNew bool) (model.Index, error) {
	target := model.Index{
		Server: corpus.Server,
	}

	switch {
	case !prod:
		target.Name = corpus.IndexName

	case createNew:
		version, err := p.resolver.NewVersionNumber(ctx, engine, corpus.AliasName(), corpus.IndexName)
		if err != nil {
			return model.Index{}, errors.WithStack(err)
		}

		target.Name = model.VersionedIndexName(corpus.IndexName, version)

	default:
		name, err := p.resolver.CurrentIndexName(ctx, corpus)
		if err != nil {
			return model.Index{}, errors.WithStack(err)
		}

		target.Name = name
		target.Available = true
	}

	return target, nil
}

// PlanPrune builds and persists a job deleting the obsolete versioned indices of a corpus.
func (p *Planner) PlanPrune(ctx context.Context, req PruneRequest) (*model.IndexJob, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	corpus, err := p.corpora.GetCorpus(ctx, req.Corpus)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve corpus '%s'", req.Corpus)
	}

	_, engine, err := p.engines.Engine(ctx, corpus.Server)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve server '%s'", corpus.Server)
	}

	names, err := engine.GetIndices(ctx, corpus.IndexName+"-*")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	names = slices.DeleteFunc(names, func(name string) bool {
		return !model.IsVersionOf(name, corpus.IndexName)
	})

	aliased, err := engine.GetAlias(ctx, corpus.AliasName())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Most recent first
	slices.SortFunc(names, func(a, b string) int {
		return compareIndexNames(b, a)
	})

	job := model.NewIndexJob(corpus.Name, model.Index{Server: corpus.Server, Name: corpus.AliasName()})

	for idx, name := range names {
		if idx < req.Keep || slices.Contains(aliased, name) {
			continue
		}

		job.AddTask(model.Index{Server: corpus.Server, Name: name, Available: true}, model.DeleteIndexParams{})
	}

	if err := p.jobs.CreateJob(ctx, job); err != nil {
		return nil, errors.Wrap(err, "could not save job")
	}

	slog.InfoContext(ctx, "prune job planned",
		slog.String("jobID", string(job.ID)),
		slog.String("corpus", string(job.Corpus)),
		slog.Int("deletions", len(job.Tasks)),
	)

	return job, nil
}

// restoredSettings are applied once a production index is populated.
func restoredSettings(server model.Server) map[string]any {
	return map[string]any{
		"number_of_replicas": server.Replicas,
		"refresh_interval":   "1s",
	}
}

func NewPlanner(corpora port.CorpusStore, engines port.EngineProvider, jobs port.JobStore, resolver *Resolver) *Planner {
	return &Planner{
		corpora:  corpora,
		engines:  engines,
		jobs:     jobs,
		resolver: resolver,
	}
}
