package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/metrics"
	"github.com/bornholm/go-x/slogx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
)

type JobManagerOptions struct {
	PollInterval time.Duration
}

type JobManagerOptionFunc func(opts *JobManagerOptions)

func WithJobManagerPollInterval(interval time.Duration) JobManagerOptionFunc {
	return func(opts *JobManagerOptions) {
		opts.PollInterval = interval
	}
}

func NewJobManagerOptions(funcs ...JobManagerOptionFunc) *JobManagerOptions {
	opts := &JobManagerOptions{
		PollInterval: 500 * time.Millisecond,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// JobManager drives index jobs: it starts them, executes their tasks one at a
// time through the work queue and sweeps them when they fail or are interrupted.
type JobManager struct {
	planner  *Planner
	jobs     port.JobStore
	corpora  port.CorpusStore
	engines  port.EngineProvider
	queue    port.WorkQueue
	locker   port.Locker
	handlers map[model.TaskKind]port.TaskHandler

	pollInterval time.Duration
}

// Index plans and starts a job for the request. Jobs of a same corpus are
// serialized: the request is refused while another job of the corpus is unfinished.
func (m *JobManager) Index(ctx context.Context, req IndexRequest) (*model.IndexJob, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	return m.withCorpusLock(ctx, req.Corpus, func(ctx context.Context) (*model.IndexJob, error) {
		return m.planner.Plan(ctx, req)
	})
}

// Prune plans and starts a job deleting obsolete indices of a corpus.
func (m *JobManager) Prune(ctx context.Context, req PruneRequest) (*model.IndexJob, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	return m.withCorpusLock(ctx, req.Corpus, func(ctx context.Context) (*model.IndexJob, error) {
		return m.planner.PlanPrune(ctx, req)
	})
}

func (m *JobManager) withCorpusLock(ctx context.Context, corpus model.CorpusName, plan func(ctx context.Context) (*model.IndexJob, error)) (*model.IndexJob, error) {
	ctx = slogx.WithAttrs(ctx, slog.String("corpus", string(corpus)))

	unlocker, err := m.locker.TryLock(ctx, "corpus-"+string(corpus))
	if err != nil {
		if errors.Is(err, port.ErrLocked) {
			return nil, errors.Wrapf(port.ErrCorpusBusy, "corpus '%s' is being planned by another process", corpus)
		}

		return nil, errors.WithStack(err)
	}

	defer func() {
		if err := unlocker.Unlock(ctx); err != nil {
			slog.ErrorContext(ctx, "could not release corpus lock", slog.Any("error", errors.WithStack(err)))
		}
	}()

	active, err := m.activeJob(ctx, corpus)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if active != nil {
		return nil, errors.Wrapf(port.ErrCorpusBusy, "job '%s' of corpus '%s' is %s", active.ID, corpus, active.Status())
	}

	job, err := plan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := m.StartJob(ctx, job.ID); err != nil {
		return nil, errors.WithStack(err)
	}

	job, err = m.jobs.GetJob(ctx, job.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return job, nil
}

func (m *JobManager) activeJob(ctx context.Context, corpus model.CorpusName) (*model.IndexJob, error) {
	jobs, err := m.jobs.QueryJobs(ctx, port.QueryJobsOptions{
		Corpus: &corpus,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, job := range jobs {
		if !job.Terminal() {
			return job, nil
		}
	}

	return nil, nil
}

// StartJob queues every task of a planned job and enqueues its chain.
func (m *JobManager) StartJob(ctx context.Context, id model.JobID) error {
	job, err := m.jobs.GetJob(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	ctx = slogx.WithAttrs(ctx,
		slog.String("jobID", string(job.ID)),
		slog.String("corpus", string(job.Corpus)),
	)

	if job.Started() {
		return errors.Wrapf(port.ErrJobStarted, "job '%s' is %s", job.ID, job.Status())
	}

	if err := m.checkCorpus(ctx, job.Corpus); err != nil {
		if sweepErr := m.sweep(ctx, job.ID, true, nil); sweepErr != nil {
			slog.ErrorContext(ctx, "could not cancel job tasks", slog.Any("error", errors.WithStack(sweepErr)))
		}

		return errors.WithStack(err)
	}

	chain := port.Chain{
		ID:    model.NewChainID(),
		JobID: job.ID,
		Units: make([]port.WorkUnit, 0, len(job.Tasks)),
	}

	for _, task := range job.Tasks {
		_, err := m.jobs.UpdateTask(ctx, task.ID, func(t *model.IndexTask) error {
			t.Status = model.TaskStatusQueued
			return nil
		})
		if err != nil {
			return errors.WithStack(err)
		}

		chain.Units = append(chain.Units, port.WorkUnit{
			ID:      xid.New().String(),
			ChainID: chain.ID,
			JobID:   job.ID,
			TaskID:  task.ID,
		})
	}

	if err := m.jobs.SetJobChain(ctx, job.ID, chain.ID); err != nil {
		return errors.WithStack(err)
	}

	if err := m.queue.Enqueue(ctx, chain); err != nil {
		if sweepErr := m.sweep(ctx, job.ID, true, err); sweepErr != nil {
			slog.ErrorContext(ctx, "could not cancel job tasks", slog.Any("error", errors.WithStack(sweepErr)))
		}

		return errors.Wrap(err, "could not enqueue job")
	}

	slog.InfoContext(ctx, "job started", slog.String("chainID", string(chain.ID)))

	return nil
}

func (m *JobManager) checkCorpus(ctx context.Context, name model.CorpusName) error {
	corpus, err := m.corpora.GetCorpus(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "could not retrieve corpus '%s'", name)
	}

	if err := corpus.ReadyToIndex(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// HandleUnit implements [port.ChainHandler].
func (m *JobManager) HandleUnit(ctx context.Context, unit port.WorkUnit) error {
	job, err := m.jobs.GetJob(ctx, unit.JobID)
	if err != nil {
		return errors.WithStack(err)
	}

	task, exists := job.Task(unit.TaskID)
	if !exists {
		return errors.Wrapf(port.ErrNotFound, "task '%s' not found in job '%s'", unit.TaskID, unit.JobID)
	}

	ctx = slogx.WithAttrs(ctx,
		slog.String("jobID", string(job.ID)),
		slog.String("corpus", string(job.Corpus)),
		slog.String("taskID", string(task.ID)),
		slog.String("taskKind", string(task.Kind())),
		slog.String("index", task.Index.Name),
	)

	switch task.Status {
	case model.TaskStatusQueued:
	case model.TaskStatusCancelled:
		return errors.WithStack(port.ErrCanceled)
	default:
		return errors.Errorf("task '%s' cannot be executed from status '%s'", task.ID, task.Status)
	}

	handler, exists := m.handlers[task.Kind()]
	if !exists {
		err := errors.Errorf("no handler registered for task kind '%s'", task.Kind())
		m.finishTask(ctx, task, model.TaskStatusError, err)
		return err
	}

	task, err = m.jobs.UpdateTask(ctx, task.ID, func(t *model.IndexTask) error {
		t.Status = model.TaskStatusWorking
		t.ExecutionID = unit.ID
		t.StartedAt = time.Now()
		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	slog.InfoContext(ctx, "executing task")

	if err := m.runHandler(ctx, handler, task); err != nil {
		status := model.TaskStatusError
		if ctx.Err() != nil || isInterruption(err) {
			status = model.TaskStatusAborted
		}

		m.finishTask(ctx, task, status, err)

		return errors.WithStack(err)
	}

	m.finishTask(ctx, task, model.TaskStatusDone, nil)

	if task.Kind() == model.TaskKindCreateIndex {
		if err := m.waitForHealth(ctx, task.Index.Server); err != nil {
			return errors.Wrap(err, "index created but cluster is not healthy")
		}
	}

	return nil
}

func (m *JobManager) runHandler(ctx context.Context, handler port.TaskHandler, task *model.IndexTask) (err error) {
	events := make(chan port.TaskEvent)

	var eventsWg sync.WaitGroup
	eventsWg.Add(1)
	go func() {
		defer eventsWg.Done()
		for e := range events {
			if e.Message != nil {
				slog.DebugContext(ctx, *e.Message)
			}

			if e.Stats == nil {
				continue
			}

			stats := *e.Stats
			_, err := m.jobs.UpdateTask(context.WithoutCancel(ctx), task.ID, func(t *model.IndexTask) error {
				t.Stats = stats
				return nil
			})
			if err != nil {
				slog.ErrorContext(ctx, "could not update task stats", slog.Any("error", errors.WithStack(err)))
			}
		}
	}()

	defer func() {
		close(events)
		eventsWg.Wait()

		if recovered := recover(); recovered != nil {
			recoveredErr, ok := recovered.(error)
			if !ok {
				recoveredErr = errors.Errorf("%+v", recovered)
			}

			slog.ErrorContext(ctx, "recovered panic while running task", slog.Any("error", errors.WithStack(recoveredErr)))

			err = errors.WithStack(recoveredErr)
		}
	}()

	return handler.Handle(ctx, task, events)
}

func (m *JobManager) finishTask(ctx context.Context, task *model.IndexTask, status model.TaskStatus, taskErr error) {
	ctx = context.WithoutCancel(ctx)

	updated, err := m.jobs.UpdateTask(ctx, task.ID, func(t *model.IndexTask) error {
		t.Status = status
		t.FinishedAt = time.Now()
		if taskErr != nil {
			t.Error = taskErr.Error()
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "could not update task status", slog.String("status", string(status)), slog.Any("error", errors.WithStack(err)))
		return
	}

	var duration time.Duration
	if !updated.StartedAt.IsZero() {
		duration = updated.FinishedAt.Sub(updated.StartedAt)
	}

	metrics.TaskDuration.With(prometheus.Labels{
		metrics.LabelKind:   string(updated.Kind()),
		metrics.LabelStatus: string(status),
	}).Observe(duration.Seconds())

	if taskErr != nil {
		slog.ErrorContext(ctx, "task failed", slog.String("status", string(status)), slog.Any("error", errors.WithStack(taskErr)))
		return
	}

	slog.InfoContext(ctx, "task done", slog.Duration("duration", duration), slog.Any("stats", updated.Stats))
}

func (m *JobManager) waitForHealth(ctx context.Context, serverName string) error {
	server, engine, err := m.engines.Engine(ctx, serverName)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := engine.WaitForHealth(ctx, port.HealthYellow, server.HealthTimeout); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// HandleChainError implements [port.ChainHandler].
func (m *JobManager) HandleChainError(ctx context.Context, chain port.Chain, err error) {
	ctx = slogx.WithAttrs(context.WithoutCancel(ctx),
		slog.String("jobID", string(chain.JobID)),
		slog.String("chainID", string(chain.ID)),
	)

	slog.WarnContext(ctx, "job interrupted", slog.Any("error", err))

	if err := m.sweep(ctx, chain.JobID, false, err); err != nil {
		slog.ErrorContext(ctx, "could not sweep job", slog.Any("error", errors.WithStack(err)))
	}

	m.observeJob(ctx, chain.JobID)
}

// HandleChainDone implements [port.ChainHandler].
func (m *JobManager) HandleChainDone(ctx context.Context, chain port.Chain) {
	ctx = slogx.WithAttrs(context.WithoutCancel(ctx),
		slog.String("jobID", string(chain.JobID)),
		slog.String("chainID", string(chain.ID)),
	)

	slog.InfoContext(ctx, "job done")

	m.observeJob(ctx, chain.JobID)
}

func (m *JobManager) observeJob(ctx context.Context, id model.JobID) {
	job, err := m.jobs.GetJob(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "could not retrieve job", slog.Any("error", errors.WithStack(err)))
		return
	}

	metrics.Jobs.With(prometheus.Labels{
		metrics.LabelCorpus: string(job.Corpus),
		metrics.LabelStatus: string(job.Status()),
	}).Inc()
}

// sweep moves every unfinished task of a job to a terminal status: queued (and
// created, if requested) tasks are cancelled, working tasks are aborted.
func (m *JobManager) sweep(ctx context.Context, id model.JobID, includeCreated bool, cause error) error {
	ctx = context.WithoutCancel(ctx)

	job, err := m.jobs.GetJob(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// A failure occurring outside of a task handler is recorded on the first
	// pending task, unless a task already carries the outcome of the job.
	recordCause := cause != nil && !isInterruption(cause) && !slices.ContainsFunc(job.Tasks, func(t *model.IndexTask) bool {
		return t.Status == model.TaskStatusError || t.Status == model.TaskStatusAborted
	})

	for _, task := range job.Tasks {
		var status model.TaskStatus

		switch task.Status {
		case model.TaskStatusCreated:
			if !includeCreated {
				continue
			}
			status = model.TaskStatusCancelled
		case model.TaskStatusQueued:
			status = model.TaskStatusCancelled
		case model.TaskStatusWorking:
			status = model.TaskStatusAborted
		default:
			continue
		}

		var message string
		if recordCause {
			status = model.TaskStatusError
			message = cause.Error()
			recordCause = false
		}

		_, err := m.jobs.UpdateTask(ctx, task.ID, func(t *model.IndexTask) error {
			// The task may have moved since the job was loaded
			if t.Status.Terminal() {
				return nil
			}

			t.Status = status
			if message != "" {
				t.Error = message
			}
			if t.FinishedAt.IsZero() {
				t.FinishedAt = time.Now()
			}
			return nil
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func isInterruption(err error) bool {
	return errors.Is(err, port.ErrCanceled) || errors.Is(err, context.Canceled)
}

// CancelJob interrupts an unfinished job. The running task, if any, is aborted
// and the remaining ones are cancelled.
func (m *JobManager) CancelJob(ctx context.Context, id model.JobID) error {
	job, err := m.jobs.GetJob(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	if job.Terminal() {
		return nil
	}

	ctx = slogx.WithAttrs(ctx, slog.String("jobID", string(job.ID)))

	slog.InfoContext(ctx, "cancelling job")

	if job.ChainID != "" {
		err := m.queue.Cancel(ctx, job.ChainID)
		if err == nil {
			return nil
		}

		if !errors.Is(err, port.ErrNotFound) {
			return errors.WithStack(err)
		}

		slog.WarnContext(ctx, "job chain unknown to the queue, sweeping job directly")
	}

	if err := m.sweep(ctx, job.ID, true, nil); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// WaitJob blocks until the job reaches a terminal status.
func (m *JobManager) WaitJob(ctx context.Context, id model.JobID) (*model.IndexJob, error) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		job, err := m.jobs.GetJob(ctx, id)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}

func (m *JobManager) GetJob(ctx context.Context, id model.JobID) (*model.IndexJob, error) {
	job, err := m.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return job, nil
}

func (m *JobManager) QueryJobs(ctx context.Context, opts port.QueryJobsOptions) ([]*model.IndexJob, error) {
	jobs, err := m.jobs.QueryJobs(ctx, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return jobs, nil
}

// Recover sweeps the unfinished jobs left behind by a previous process. It must
// only be called when no other process executes jobs.
func (m *JobManager) Recover(ctx context.Context) error {
	jobs, err := m.jobs.QueryJobs(ctx, port.QueryJobsOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	for _, job := range jobs {
		if job.Terminal() {
			continue
		}

		slog.WarnContext(ctx, "sweeping orphaned job", slog.String("jobID", string(job.ID)), slog.String("status", string(job.Status())))

		if err := m.sweep(ctx, job.ID, true, nil); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// RefreshIndices synchronizes the availability of the known indices of a server
// with the engine and returns them.
func (m *JobManager) RefreshIndices(ctx context.Context, serverName string) ([]model.Index, error) {
	_, engine, err := m.engines.Engine(ctx, serverName)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	names, err := engine.GetIndices(ctx, "*")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	existing := make(map[string]struct{}, len(names))
	for _, n := range names {
		existing[n] = struct{}{}
	}

	known, err := m.jobs.QueryIndices(ctx, serverName)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	indices := make([]model.Index, 0, len(known)+len(names))

	for _, index := range known {
		_, index.Available = existing[index.Name]
		delete(existing, index.Name)
		indices = append(indices, index)
	}

	for _, n := range names {
		if _, unknown := existing[n]; !unknown {
			continue
		}

		indices = append(indices, model.Index{Server: serverName, Name: n, Available: true})
	}

	for _, index := range indices {
		if err := m.jobs.SaveIndex(ctx, index); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return indices, nil
}

// Run executes queued jobs until ctx is done.
func (m *JobManager) Run(ctx context.Context) error {
	if err := m.queue.Run(ctx, m); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func NewJobManager(planner *Planner, jobs port.JobStore, corpora port.CorpusStore, engines port.EngineProvider, queue port.WorkQueue, locker port.Locker, handlers map[model.TaskKind]port.TaskHandler, funcs ...JobManagerOptionFunc) *JobManager {
	opts := NewJobManagerOptions(funcs...)

	return &JobManager{
		planner:      planner,
		jobs:         jobs,
		corpora:      corpora,
		engines:      engines,
		queue:        queue,
		locker:       locker,
		handlers:     handlers,
		pollInterval: opts.PollInterval,
	}
}

var _ port.ChainHandler = &JobManager{}
