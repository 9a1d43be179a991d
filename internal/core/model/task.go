package model

import (
	"time"

	"github.com/rs/xid"
)

type TaskID string

func NewTaskID() TaskID {
	return TaskID(xid.New().String())
}

type TaskKind string

const (
	TaskKindCreateIndex    TaskKind = "create_index"
	TaskKindPopulateIndex  TaskKind = "populate_index"
	TaskKindUpdateIndex    TaskKind = "update_index"
	TaskKindUpdateSettings TaskKind = "update_settings"
	TaskKindAddAlias       TaskKind = "add_alias"
	TaskKindRemoveAlias    TaskKind = "remove_alias"
	TaskKindDeleteIndex    TaskKind = "delete_index"
)

// TaskParams is the kind specific part of a task. The set of implementations is closed.
type TaskParams interface {
	Kind() TaskKind
	taskParams()
}

type CreateIndexParams struct {
	ProductionSettings bool `json:"productionSettings"`
	DeleteExisting     bool `json:"deleteExisting"`
}

func (CreateIndexParams) Kind() TaskKind { return TaskKindCreateIndex }
func (CreateIndexParams) taskParams()    {}

type PopulateIndexParams struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (PopulateIndexParams) Kind() TaskKind { return TaskKindPopulateIndex }
func (PopulateIndexParams) taskParams()    {}

type UpdateIndexParams struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (UpdateIndexParams) Kind() TaskKind { return TaskKindUpdateIndex }
func (UpdateIndexParams) taskParams()    {}

type UpdateSettingsParams struct {
	Settings map[string]any `json:"settings"`
}

func (UpdateSettingsParams) Kind() TaskKind { return TaskKindUpdateSettings }
func (UpdateSettingsParams) taskParams()    {}

type AddAliasParams struct {
	Alias string `json:"alias"`
}

func (AddAliasParams) Kind() TaskKind { return TaskKindAddAlias }
func (AddAliasParams) taskParams()    {}

type RemoveAliasParams struct {
	Alias string `json:"alias"`
}

func (RemoveAliasParams) Kind() TaskKind { return TaskKindRemoveAlias }
func (RemoveAliasParams) taskParams()    {}

type DeleteIndexParams struct{}

func (DeleteIndexParams) Kind() TaskKind { return TaskKindDeleteIndex }
func (DeleteIndexParams) taskParams()    {}

var (
	_ TaskParams = CreateIndexParams{}
	_ TaskParams = PopulateIndexParams{}
	_ TaskParams = UpdateIndexParams{}
	_ TaskParams = UpdateSettingsParams{}
	_ TaskParams = AddAliasParams{}
	_ TaskParams = RemoveAliasParams{}
	_ TaskParams = DeleteIndexParams{}
)

type TaskStats struct {
	DocumentsIndexed int64 `json:"documentsIndexed"`
	DocumentsFailed  int64 `json:"documentsFailed"`
	DocumentsUpdated int64 `json:"documentsUpdated"`
}

// IndexTask is one step of an IndexJob. Only Status and the execution bookkeeping
// fields change after planning.
type IndexTask struct {
	ID       TaskID
	JobID    JobID
	Corpus   CorpusName
	Position int
	Index    Index
	Params   TaskParams

	Status      TaskStatus
	ExecutionID string
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
	Stats       TaskStats
}

func (t *IndexTask) Kind() TaskKind {
	if t.Params == nil {
		return ""
	}

	return t.Params.Kind()
}

func NewIndexTask(job *IndexJob, index Index, params TaskParams) *IndexTask {
	return &IndexTask{
		ID:       NewTaskID(),
		JobID:    job.ID,
		Corpus:   job.Corpus,
		Position: len(job.Tasks),
		Index:    index,
		Params:   params,
		Status:   TaskStatusCreated,
	}
}
