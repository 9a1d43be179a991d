package model

type TaskStatus string

const (
	TaskStatusCreated   TaskStatus = "created"
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusWorking   TaskStatus = "working"
	TaskStatusDone      TaskStatus = "done"
	TaskStatusError     TaskStatus = "error"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusAborted   TaskStatus = "aborted"
)

var TaskStatuses = []TaskStatus{
	TaskStatusCreated,
	TaskStatusQueued,
	TaskStatusWorking,
	TaskStatusDone,
	TaskStatusError,
	TaskStatusCancelled,
	TaskStatusAborted,
}

func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusDone, TaskStatusError, TaskStatusCancelled, TaskStatusAborted:
		return true
	default:
		return false
	}
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}

	return false
}
