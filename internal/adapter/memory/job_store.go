package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

type JobStore struct {
	mutex   sync.RWMutex
	jobs    map[model.JobID]*model.IndexJob
	tasks   map[model.TaskID]model.JobID
	indices map[string]model.Index
}

// CreateJob implements [port.JobStore].
func (s *JobStore) CreateJob(ctx context.Context, job *model.IndexJob) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return errors.Errorf("job '%s' already exists", job.ID)
	}

	s.jobs[job.ID] = cloneJob(job)

	for _, task := range job.Tasks {
		s.tasks[task.ID] = job.ID
	}

	for _, index := range jobIndices(job) {
		if _, known := s.indices[index.Key()]; !known {
			s.indices[index.Key()] = index
		}
	}

	return nil
}

// GetJob implements [port.JobStore].
func (s *JobStore) GetJob(ctx context.Context, id model.JobID) (*model.IndexJob, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	return s.withAvailability(cloneJob(job)), nil
}

// QueryJobs implements [port.JobStore].
func (s *JobStore) QueryJobs(ctx context.Context, opts port.QueryJobsOptions) ([]*model.IndexJob, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]*model.IndexJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if opts.Corpus != nil && job.Corpus != *opts.Corpus {
			continue
		}

		jobs = append(jobs, job)
	}

	slices.SortFunc(jobs, func(a, b *model.IndexJob) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if opts.Limit != nil {
		page := 0
		if opts.Page != nil {
			page = *opts.Page
		}

		start := min(page**opts.Limit, len(jobs))
		end := min(start+*opts.Limit, len(jobs))
		jobs = jobs[start:end]
	}

	results := make([]*model.IndexJob, 0, len(jobs))
	for _, job := range jobs {
		results = append(results, s.withAvailability(cloneJob(job)))
	}

	return results, nil
}

// SetJobChain implements [port.JobStore].
func (s *JobStore) SetJobChain(ctx context.Context, id model.JobID, chainID model.ChainID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return errors.WithStack(port.ErrNotFound)
	}

	job.ChainID = chainID

	return nil
}

// UpdateTask implements [port.JobStore].
func (s *JobStore) UpdateTask(ctx context.Context, id model.TaskID, fn func(task *model.IndexTask) error) (*model.IndexTask, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	jobID, exists := s.tasks[id]
	if !exists {
		return nil, errors.WithStack(port.ErrNotFound)
	}

	job := s.jobs[jobID]

	task, _ := job.Task(id)

	updated := *task
	if err := fn(&updated); err != nil {
		return nil, errors.WithStack(err)
	}

	*task = updated

	result := updated

	return &result, nil
}

// SaveIndex implements [port.JobStore].
func (s *JobStore) SaveIndex(ctx context.Context, index model.Index) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.indices[index.Key()] = index

	return nil
}

// QueryIndices implements [port.JobStore].
func (s *JobStore) QueryIndices(ctx context.Context, server string) ([]model.Index, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	indices := make([]model.Index, 0, len(s.indices))
	for _, index := range s.indices {
		if server != "" && index.Server != server {
			continue
		}

		indices = append(indices, index)
	}

	slices.SortFunc(indices, func(a, b model.Index) int {
		return cmp.Compare(a.Key(), b.Key())
	})

	return indices, nil
}

func (s *JobStore) withAvailability(job *model.IndexJob) *model.IndexJob {
	if index, known := s.indices[job.Target.Key()]; known {
		job.Target.Available = index.Available
	}

	for _, task := range job.Tasks {
		if index, known := s.indices[task.Index.Key()]; known {
			task.Index.Available = index.Available
		}
	}

	return job
}

func cloneJob(job *model.IndexJob) *model.IndexJob {
	clone := *job
	clone.Tasks = make([]*model.IndexTask, 0, len(job.Tasks))

	for _, task := range job.Tasks {
		t := *task
		clone.Tasks = append(clone.Tasks, &t)
	}

	return &clone
}

func jobIndices(job *model.IndexJob) []model.Index {
	indices := []model.Index{}
	for _, task := range job.Tasks {
		indices = append(indices, task.Index)
	}

	return indices
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    map[model.JobID]*model.IndexJob{},
		tasks:   map[model.TaskID]model.JobID{},
		indices: map[string]model.Index{},
	}
}

var _ port.JobStore = &JobStore{}
