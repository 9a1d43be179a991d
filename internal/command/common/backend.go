package common

import (
	"context"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/bornholm/corpus-indexer/pkg/client"
	"github.com/pkg/errors"
)

// Backend is implemented by the api client and by the in-process job manager.
type Backend interface {
	Index(ctx context.Context, req api.IndexJobRequest) (*api.Job, error)
	Prune(ctx context.Context, req service.PruneRequest) (*api.Job, error)
	GetJob(ctx context.Context, id model.JobID) (*api.Job, error)
	CancelJob(ctx context.Context, id model.JobID) (*api.Job, error)
	ListJobs(ctx context.Context, opts client.ListJobsOptions) ([]*api.Job, error)
	ListIndices(ctx context.Context, server string) ([]api.Index, error)
	WaitFor(ctx context.Context, id model.JobID, funcs ...client.WaitForOptionFunc) (*api.Job, error)
	Close() error
}

type LocalBackend struct {
	conf *config.Config

	workerOnce   sync.Once
	workerErr    error
	workerCtx    context.Context
	workerCancel context.CancelFunc
}

func (b *LocalBackend) manager(ctx context.Context) (*service.JobManager, error) {
	manager, err := setup.GetJobManagerFromConfig(ctx, b.conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return manager, nil
}

// startWorker consumes the queue until the backend is closed, independently
// of the context of the request that planned the job.
func (b *LocalBackend) startWorker() error {
	b.workerOnce.Do(func() {
		b.workerErr = setup.StartWorker(b.workerCtx, b.conf, false)
	})

	return errors.WithStack(b.workerErr)
}

func (b *LocalBackend) Index(ctx context.Context, req api.IndexJobRequest) (*api.Job, error) {
	indexReq, err := req.IndexRequest()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := b.startWorker(); err != nil {
		return nil, errors.WithStack(err)
	}

	job, err := manager.Index(ctx, indexReq)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return api.ToJob(job), nil
}

func (b *LocalBackend) Prune(ctx context.Context, req service.PruneRequest) (*api.Job, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := b.startWorker(); err != nil {
		return nil, errors.WithStack(err)
	}

	job, err := manager.Prune(ctx, req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return api.ToJob(job), nil
}

func (b *LocalBackend) GetJob(ctx context.Context, id model.JobID) (*api.Job, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	job, err := manager.GetJob(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return api.ToJob(job), nil
}

func (b *LocalBackend) CancelJob(ctx context.Context, id model.JobID) (*api.Job, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := manager.CancelJob(ctx, id); err != nil {
		return nil, errors.WithStack(err)
	}

	job, err := manager.GetJob(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return api.ToJob(job), nil
}

func (b *LocalBackend) ListJobs(ctx context.Context, opts client.ListJobsOptions) ([]*api.Job, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	query := port.QueryJobsOptions{
		Page: &opts.Page,
	}

	if opts.Limit > 0 {
		query.Limit = &opts.Limit
	}

	if opts.Corpus != "" {
		corpus := model.CorpusName(opts.Corpus)
		query.Corpus = &corpus
	}

	jobs, err := manager.QueryJobs(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	results := make([]*api.Job, 0, len(jobs))
	for _, j := range jobs {
		results = append(results, api.ToJob(j))
	}

	return results, nil
}

func (b *LocalBackend) ListIndices(ctx context.Context, server string) ([]api.Index, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	engines, err := setup.GetEngineProviderFromConfig(ctx, b.conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	servers, err := engines.Servers(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	indices := make([]api.Index, 0)

	for _, s := range servers {
		if server != "" && s.Name != server {
			continue
		}

		refreshed, err := manager.RefreshIndices(ctx, s.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "could not refresh indices of server '%s'", s.Name)
		}

		for _, i := range refreshed {
			indices = append(indices, api.ToIndex(i))
		}
	}

	return indices, nil
}

func (b *LocalBackend) WaitFor(ctx context.Context, id model.JobID, funcs ...client.WaitForOptionFunc) (*api.Job, error) {
	manager, err := b.manager(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	job, err := manager.WaitJob(ctx, id)
	if job == nil {
		return nil, errors.WithStack(err)
	}

	return api.ToJob(job), errors.WithStack(err)
}

// Close stops the in-process worker.
func (b *LocalBackend) Close() error {
	b.workerCancel()
	return nil
}

func NewLocalBackend(conf *config.Config) *LocalBackend {
	ctx, cancel := context.WithCancel(context.Background())

	return &LocalBackend{
		conf:         conf,
		workerCtx:    ctx,
		workerCancel: cancel,
	}
}

var (
	_ Backend = &LocalBackend{}
	_ Backend = &client.Client{}
)
