package model

import (
	"time"

	"github.com/rs/xid"
)

type JobID string

func NewJobID() JobID {
	return JobID(xid.New().String())
}

type ChainID string

func NewChainID() ChainID {
	return ChainID(xid.New().String())
}

// IndexJob is an ordered, immutable sequence of tasks planned for a corpus.
// Its status is derived from its tasks.
type IndexJob struct {
	ID        JobID
	Corpus    CorpusName
	CreatedAt time.Time
	// Index the job builds or modifies
	Target  Index
	ChainID ChainID
	Tasks   []*IndexTask
}

func NewIndexJob(corpus CorpusName, target Index) *IndexJob {
	return &IndexJob{
		ID:        NewJobID(),
		Corpus:    corpus,
		CreatedAt: time.Now(),
		Target:    target,
		Tasks:     make([]*IndexTask, 0),
	}
}

func (j *IndexJob) AddTask(index Index, params TaskParams) *IndexTask {
	task := NewIndexTask(j, index, params)
	j.Tasks = append(j.Tasks, task)
	return task
}

func (j *IndexJob) Task(id TaskID) (*IndexTask, bool) {
	for _, t := range j.Tasks {
		if t.ID == id {
			return t, true
		}
	}

	return nil, false
}

func (j *IndexJob) Kinds() []TaskKind {
	kinds := make([]TaskKind, len(j.Tasks))
	for i, t := range j.Tasks {
		kinds[i] = t.Kind()
	}
	return kinds
}

// Started reports whether any task left the created state.
func (j *IndexJob) Started() bool {
	for _, t := range j.Tasks {
		if t.Status != TaskStatusCreated {
			return true
		}
	}

	return false
}

// Status derives the aggregate status of the job from its tasks.
func (j *IndexJob) Status() TaskStatus {
	if len(j.Tasks) == 0 {
		return TaskStatusDone
	}

	counts := make(map[TaskStatus]int, len(TaskStatuses))
	for _, t := range j.Tasks {
		counts[t.Status]++
	}

	total := len(j.Tasks)

	// Cases are ordered by precedence: a failed or aborted task decides the
	// outcome of the whole job. A job whose tasks are partly done and partly
	// queued is still working, as the chain is in between two tasks.
	switch {
	case counts[TaskStatusError] > 0:
		return TaskStatusError
	case counts[TaskStatusAborted] > 0:
		return TaskStatusAborted
	case counts[TaskStatusDone] == total:
		return TaskStatusDone
	case counts[TaskStatusWorking] > 0:
		return TaskStatusWorking
	case counts[TaskStatusCancelled] > 0 && counts[TaskStatusCancelled]+counts[TaskStatusDone] == total:
		return TaskStatusCancelled
	case counts[TaskStatusCreated] == total:
		return TaskStatusCreated
	case counts[TaskStatusDone] > 0:
		return TaskStatusWorking
	default:
		return TaskStatusQueued
	}
}

// Terminal reports whether every task of the job reached a terminal status.
func (j *IndexJob) Terminal() bool {
	for _, t := range j.Tasks {
		if !t.Status.Terminal() {
			return false
		}
	}

	return true
}
