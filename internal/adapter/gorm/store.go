package gorm

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobStore struct {
	getDatabase func(ctx context.Context) (*gorm.DB, error)
}

// CreateJob implements [port.JobStore].
func (s *JobStore) CreateJob(ctx context.Context, job *model.IndexJob) error {
	j, err := fromJob(job)
	if err != nil {
		return errors.WithStack(err)
	}

	err = s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Create(j).Error; err != nil {
			return errors.WithStack(err)
		}

		for _, t := range job.Tasks {
			index := &Index{Server: t.Index.Server, Name: t.Index.Name, Available: t.Index.Available}

			err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(index).Error
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetJob implements [port.JobStore].
func (s *JobStore) GetJob(ctx context.Context, id model.JobID) (*model.IndexJob, error) {
	var job *model.IndexJob

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var j Job

		err := db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).First(&j, "id = ?", string(id)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		available, err := s.availability(db, &j)
		if err != nil {
			return errors.WithStack(err)
		}

		job, err = toJob(&j, available)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return job, nil
}

// QueryJobs implements [port.JobStore].
func (s *JobStore) QueryJobs(ctx context.Context, opts port.QueryJobsOptions) ([]*model.IndexJob, error) {
	var jobs []*model.IndexJob

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		query := db.Model(&Job{}).
			Preload("Tasks", func(db *gorm.DB) *gorm.DB {
				return db.Order("position asc")
			}).
			Order("created_at desc").
			Order("id desc")

		if opts.Corpus != nil {
			query = query.Where("corpus = ?", string(*opts.Corpus))
		}

		if opts.Limit != nil {
			query = query.Limit(*opts.Limit)

			if opts.Page != nil {
				query = query.Offset(*opts.Page * *opts.Limit)
			}
		}

		var rows []*Job
		if err := query.Find(&rows).Error; err != nil {
			return errors.WithStack(err)
		}

		jobs = make([]*model.IndexJob, 0, len(rows))

		for _, j := range rows {
			available, err := s.availability(db, j)
			if err != nil {
				return errors.WithStack(err)
			}

			job, err := toJob(j, available)
			if err != nil {
				return errors.WithStack(err)
			}

			jobs = append(jobs, job)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return jobs, nil
}

func (s *JobStore) availability(db *gorm.DB, j *Job) (map[string]bool, error) {
	names := make([]string, 0, len(j.Tasks)+1)
	names = append(names, j.TargetName)
	for _, t := range j.Tasks {
		names = append(names, t.IndexName)
	}

	slices.Sort(names)
	names = slices.Compact(names)

	var indices []*Index
	if err := db.Where("name IN ?", names).Find(&indices).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	available := make(map[string]bool, len(indices))
	for _, i := range indices {
		index := toIndex(i)
		available[index.Key()] = index.Available
	}

	return available, nil
}

// SetJobChain implements [port.JobStore].
func (s *JobStore) SetJobChain(ctx context.Context, id model.JobID, chainID model.ChainID) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(&Job{}).Where("id = ?", string(id)).Update("chain_id", string(chainID))
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		if result.RowsAffected == 0 {
			return errors.WithStack(port.ErrNotFound)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// UpdateTask implements [port.JobStore].
func (s *JobStore) UpdateTask(ctx context.Context, id model.TaskID, fn func(task *model.IndexTask) error) (*model.IndexTask, error) {
	var task *model.IndexTask

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		var t Task

		if err := db.Preload("Job").First(&t, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(port.ErrNotFound)
			}

			return errors.WithStack(err)
		}

		current, err := toTask(&t, model.CorpusName(t.Job.Corpus))
		if err != nil {
			return errors.WithStack(err)
		}

		if err := fn(current); err != nil {
			return errors.WithStack(err)
		}

		updated, err := fromTask(current)
		if err != nil {
			return errors.WithStack(err)
		}

		// Only execution bookkeeping is mutable
		err = db.Model(&Task{}).Where("id = ?", string(id)).Updates(map[string]any{
			"status":            updated.Status,
			"execution_id":      updated.ExecutionID,
			"started_at":        updated.StartedAt,
			"finished_at":       updated.FinishedAt,
			"error":             updated.Error,
			"documents_indexed": updated.DocumentsIndexed,
			"documents_failed":  updated.DocumentsFailed,
			"documents_updated": updated.DocumentsUpdated,
		}).Error
		if err != nil {
			return errors.WithStack(err)
		}

		task = current

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return task, nil
}

// SaveIndex implements [port.JobStore].
func (s *JobStore) SaveIndex(ctx context.Context, index model.Index) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "server"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"available", "updated_at"}),
		}).Create(&Index{
			Server:    index.Server,
			Name:      index.Name,
			Available: index.Available,
		}).Error
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// QueryIndices implements [port.JobStore].
func (s *JobStore) QueryIndices(ctx context.Context, server string) ([]model.Index, error) {
	var indices []model.Index

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		query := db.Model(&Index{}).Order("server asc").Order("name asc")

		if server != "" {
			query = query.Where("server = ?", server)
		}

		var rows []*Index
		if err := query.Find(&rows).Error; err != nil {
			return errors.WithStack(err)
		}

		indices = make([]model.Index, 0, len(rows))
		for _, i := range rows {
			indices = append(indices, toIndex(i))
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return indices, nil
}

func (s *JobStore) withRetry(ctx context.Context, fn func(ctx context.Context, db *gorm.DB) error, codes ...sqlite3.ErrorCode) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	backoff := 500 * time.Millisecond
	maxRetries := 10
	retries := 0

	for {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := fn(ctx, tx); err != nil {
				return errors.WithStack(err)
			}

			return nil
		})
		if err == nil {
			return nil
		}

		var sqliteErr *sqlite3.Error
		if retries >= maxRetries || !errors.As(err, &sqliteErr) || !slices.Contains(codes, sqliteErr.Code()) {
			return errors.WithStack(err)
		}

		slog.DebugContext(ctx, "transaction failed, will retry", slog.Int("retries", retries), slog.Duration("backoff", backoff), slog.Any("error", errors.WithStack(err)))

		retries++

		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
	}
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{
		getDatabase: createGetDatabase(db, &Job{}, &Task{}, &Index{}),
	}
}

var _ port.JobStore = &JobStore{}

func createGetDatabase(db *gorm.DB, models ...any) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			if err := db.AutoMigrate(models...); err != nil {
				migrateErr = errors.WithStack(err)
				return
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db, nil
	}
}
