package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/pkg/errors"
)

type Index struct {
	Server    string `json:"server"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

type Task struct {
	ID         model.TaskID     `json:"id"`
	Position   int              `json:"position"`
	Kind       model.TaskKind   `json:"kind"`
	Index      Index            `json:"index"`
	Params     any              `json:"params"`
	Status     model.TaskStatus `json:"status"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	Error      string           `json:"error,omitempty"`
	Stats      model.TaskStats  `json:"stats"`
}

type Job struct {
	ID        model.JobID      `json:"id"`
	Corpus    model.CorpusName `json:"corpus"`
	CreatedAt time.Time        `json:"createdAt"`
	Status    model.TaskStatus `json:"status"`
	Target    Index            `json:"target"`
	Tasks     []Task           `json:"tasks"`
}

func ToIndex(i model.Index) Index {
	return Index{Server: i.Server, Name: i.Name, Available: i.Available}
}

func ToJob(j *model.IndexJob) *Job {
	job := &Job{
		ID:        j.ID,
		Corpus:    j.Corpus,
		CreatedAt: j.CreatedAt,
		Status:    j.Status(),
		Target:    ToIndex(j.Target),
		Tasks:     make([]Task, 0, len(j.Tasks)),
	}

	for _, t := range j.Tasks {
		task := Task{
			ID:       t.ID,
			Position: t.Position,
			Kind:     t.Kind(),
			Index:    ToIndex(t.Index),
			Params:   t.Params,
			Status:   t.Status,
			Error:    t.Error,
			Stats:    t.Stats,
		}

		if !t.StartedAt.IsZero() {
			startedAt := t.StartedAt
			task.StartedAt = &startedAt
		}

		if !t.FinishedAt.IsZero() {
			finishedAt := t.FinishedAt
			task.FinishedAt = &finishedAt
		}

		job.Tasks = append(job.Tasks, task)
	}

	return job
}

// IndexJobRequest is the body of a job creation request. Dates use the
// YYYY-MM-DD layout.
type IndexJobRequest struct {
	Corpus       model.CorpusName `json:"corpus"`
	StartDate    string           `json:"startDate,omitempty"`
	EndDate      string           `json:"endDate,omitempty"`
	MappingsOnly bool             `json:"mappingsOnly,omitempty"`
	Add          bool             `json:"add,omitempty"`
	Clear        bool             `json:"clear,omitempty"`
	Prod         bool             `json:"prod,omitempty"`
	Rollover     bool             `json:"rollover,omitempty"`
	Update       bool             `json:"update,omitempty"`
}

func (r IndexJobRequest) IndexRequest() (service.IndexRequest, error) {
	req := service.IndexRequest{
		Corpus:       r.Corpus,
		MappingsOnly: r.MappingsOnly,
		Add:          r.Add,
		Clear:        r.Clear,
		Prod:         r.Prod,
		Rollover:     r.Rollover,
		Update:       r.Update,
	}

	var err error

	if req.StartDate, err = ParseDate(r.StartDate); err != nil {
		return req, errors.WithStack(err)
	}

	if req.EndDate, err = ParseDate(r.EndDate); err != nil {
		return req, errors.WithStack(err)
	}

	return req, nil
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields a nil date.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errors.Wrapf(service.ErrInvalidRequest, "invalid date '%s', expected YYYY-MM-DD", raw)
	}

	return &date, nil
}

type JobResponse struct {
	Job *Job `json:"job"`
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body IndexJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, errors.Wrap(service.ErrInvalidRequest, "could not decode request body"))
		return
	}

	req, err := body.IndexRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobManager.Index(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, JobResponse{Job: ToJob(job)})
}

type ListJobsResponse struct {
	Jobs []*Job `json:"jobs"`
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts := getQueryJobsOptions(r.URL.Query())

	jobs, err := h.jobManager.QueryJobs(ctx, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := ListJobsResponse{
		Jobs: make([]*Job, 0, len(jobs)),
	}

	for _, j := range jobs {
		res.Jobs = append(res.Jobs, ToJob(j))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *Handler) showJob(w http.ResponseWriter, r *http.Request) {
	jobID := model.JobID(r.PathValue("jobID"))

	job, err := h.jobManager.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, JobResponse{Job: ToJob(job)})
}

func (h *Handler) cancelJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := model.JobID(r.PathValue("jobID"))

	if err := h.jobManager.CancelJob(ctx, jobID); err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.jobManager.GetJob(ctx, jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, JobResponse{Job: ToJob(job)})
}

func (h *Handler) prune(w http.ResponseWriter, r *http.Request) {
	var req service.PruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errors.Wrap(service.ErrInvalidRequest, "could not decode request body"))
		return
	}

	job, err := h.jobManager.Prune(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, JobResponse{Job: ToJob(job)})
}
