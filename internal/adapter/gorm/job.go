package gorm

import (
	"encoding/json"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/pkg/errors"
)

type Job struct {
	ID           string `gorm:"primarykey"`
	CreatedAt    time.Time
	Corpus       string `gorm:"index;not null"`
	TargetServer string
	TargetName   string
	ChainID      string
	Tasks        []*Task `gorm:"constraint:OnDelete:CASCADE"`
}

type Task struct {
	ID          string `gorm:"primarykey"`
	JobID       string `gorm:"index;not null"`
	Job         *Job
	Position    int
	Kind        string `gorm:"not null"`
	Params      string
	IndexServer string `gorm:"not null"`
	IndexName   string `gorm:"not null"`

	Status      string `gorm:"index;not null"`
	ExecutionID string
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string

	DocumentsIndexed int64
	DocumentsFailed  int64
	DocumentsUpdated int64
}

type Index struct {
	Server    string `gorm:"primarykey"`
	Name      string `gorm:"primarykey"`
	Available bool
	UpdatedAt time.Time
}

func fromJob(j *model.IndexJob) (*Job, error) {
	job := &Job{
		ID:           string(j.ID),
		CreatedAt:    j.CreatedAt,
		Corpus:       string(j.Corpus),
		TargetServer: j.Target.Server,
		TargetName:   j.Target.Name,
		ChainID:      string(j.ChainID),
		Tasks:        make([]*Task, 0, len(j.Tasks)),
	}

	for _, t := range j.Tasks {
		task, err := fromTask(t)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		job.Tasks = append(job.Tasks, task)
	}

	return job, nil
}

func fromTask(t *model.IndexTask) (*Task, error) {
	params, err := json.Marshal(t.Params)
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode params of task '%s'", t.ID)
	}

	return &Task{
		ID:               string(t.ID),
		JobID:            string(t.JobID),
		Position:         t.Position,
		Kind:             string(t.Kind()),
		Params:           string(params),
		IndexServer:      t.Index.Server,
		IndexName:        t.Index.Name,
		Status:           string(t.Status),
		ExecutionID:      t.ExecutionID,
		StartedAt:        t.StartedAt,
		FinishedAt:       t.FinishedAt,
		Error:            t.Error,
		DocumentsIndexed: t.Stats.DocumentsIndexed,
		DocumentsFailed:  t.Stats.DocumentsFailed,
		DocumentsUpdated: t.Stats.DocumentsUpdated,
	}, nil
}

func toJob(j *Job, available map[string]bool) (*model.IndexJob, error) {
	job := &model.IndexJob{
		ID:        model.JobID(j.ID),
		Corpus:    model.CorpusName(j.Corpus),
		CreatedAt: j.CreatedAt,
		Target: model.Index{
			Server: j.TargetServer,
			Name:   j.TargetName,
		},
		ChainID: model.ChainID(j.ChainID),
		Tasks:   make([]*model.IndexTask, 0, len(j.Tasks)),
	}

	job.Target.Available = available[job.Target.Key()]

	for _, t := range j.Tasks {
		task, err := toTask(t, job.Corpus)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		task.Index.Available = available[task.Index.Key()]

		job.Tasks = append(job.Tasks, task)
	}

	return job, nil
}

func toTask(t *Task, corpus model.CorpusName) (*model.IndexTask, error) {
	params, err := decodeParams(model.TaskKind(t.Kind), []byte(t.Params))
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode params of task '%s'", t.ID)
	}

	return &model.IndexTask{
		ID:       model.TaskID(t.ID),
		JobID:    model.JobID(t.JobID),
		Corpus:   corpus,
		Position: t.Position,
		Index: model.Index{
			Server: t.IndexServer,
			Name:   t.IndexName,
		},
		Params:      params,
		Status:      model.TaskStatus(t.Status),
		ExecutionID: t.ExecutionID,
		StartedAt:   t.StartedAt,
		FinishedAt:  t.FinishedAt,
		Error:       t.Error,
		Stats: model.TaskStats{
			DocumentsIndexed: t.DocumentsIndexed,
			DocumentsFailed:  t.DocumentsFailed,
			DocumentsUpdated: t.DocumentsUpdated,
		},
	}, nil
}

func decodeParams(kind model.TaskKind, data []byte) (model.TaskParams, error) {
	switch kind {
	case model.TaskKindCreateIndex:
		return unmarshalParams[model.CreateIndexParams](data)
	case model.TaskKindPopulateIndex:
		return unmarshalParams[model.PopulateIndexParams](data)
	case model.TaskKindUpdateIndex:
		return unmarshalParams[model.UpdateIndexParams](data)
	case model.TaskKindUpdateSettings:
		return unmarshalParams[model.UpdateSettingsParams](data)
	case model.TaskKindAddAlias:
		return unmarshalParams[model.AddAliasParams](data)
	case model.TaskKindRemoveAlias:
		return unmarshalParams[model.RemoveAliasParams](data)
	case model.TaskKindDeleteIndex:
		return unmarshalParams[model.DeleteIndexParams](data)
	default:
		return nil, errors.Errorf("unknown task kind '%s'", kind)
	}
}

func unmarshalParams[T model.TaskParams](data []byte) (model.TaskParams, error) {
	var params T
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.WithStack(err)
	}

	return params, nil
}

func toIndex(i *Index) model.Index {
	return model.Index{
		Server:    i.Server,
		Name:      i.Name,
		Available: i.Available,
	}
}
