package port

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

type QueryJobsOptions struct {
	Corpus *model.CorpusName
	Page   *int
	Limit  *int
}

type JobStore interface {
	// CreateJob persists a job and all of its tasks at once.
	CreateJob(ctx context.Context, job *model.IndexJob) error
	GetJob(ctx context.Context, id model.JobID) (*model.IndexJob, error)
	// QueryJobs returns jobs ordered from the most recent one.
	QueryJobs(ctx context.Context, opts QueryJobsOptions) ([]*model.IndexJob, error)
	SetJobChain(ctx context.Context, id model.JobID, chainID model.ChainID) error
	// UpdateTask applies fn to the stored task and persists the result.
	UpdateTask(ctx context.Context, id model.TaskID, fn func(task *model.IndexTask) error) (*model.IndexTask, error)

	SaveIndex(ctx context.Context, index model.Index) error
	QueryIndices(ctx context.Context, server string) ([]model.Index, error)
}
