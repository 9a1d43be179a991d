package service_test

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/core/service/servicetest"
	"github.com/pkg/errors"
)

var demoStart = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

func newDemoEnv(t *testing.T, total int, funcs ...servicetest.EnvOptionFunc) *servicetest.Env {
	env := servicetest.NewEnv(t, funcs...)
	env.Corpora.Put(servicetest.Corpus("demo"))
	env.Readers.Set("demo", &servicetest.Reader{Total: total, Start: demoStart})
	return env
}

func statuses(job *model.IndexJob) []model.TaskStatus {
	statuses := make([]model.TaskStatus, len(job.Tasks))
	for i, t := range job.Tasks {
		statuses[i] = t.Status
	}
	return statuses
}

func TestJobManagerIndex(t *testing.T) {
	ctx := context.Background()

	env := servicetest.NewEnv(t)
	env.Corpora.Put(servicetest.Corpus("demo"))
	env.Readers.Set("demo", &servicetest.Reader{Total: 1000, Start: demoStart, Malformed: []int{500}})

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "demo", job.Target.Name; e != g {
		t.Errorf("job.Target.Name: expected '%v', got '%v'", e, g)
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusDone, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v' (%v)", e, g, statuses(job))
	}

	populate := job.Tasks[1]

	if e, g := int64(999), populate.Stats.DocumentsIndexed; e != g {
		t.Errorf("populate.Stats.DocumentsIndexed: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(1), populate.Stats.DocumentsFailed; e != g {
		t.Errorf("populate.Stats.DocumentsFailed: expected '%v', got '%v'", e, g)
	}

	count, err := env.Engine.CountDocuments(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(999), count; e != g {
		t.Errorf("count: expected '%v', got '%v'", e, g)
	}

	if !job.Target.Available {
		t.Errorf("job.Target.Available: expected true")
	}

	for _, task := range job.Tasks {
		if task.StartedAt.IsZero() || task.FinishedAt.IsZero() {
			t.Errorf("task #%d: expected execution timestamps", task.Position)
		}

		if task.ExecutionID == "" {
			t.Errorf("task #%d: expected an execution id", task.Position)
		}
	}
}

func TestJobManagerPopulateIsIdempotent(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 50)

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	env.Wait(t, job.ID)

	for i := 0; i < 2; i++ {
		job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Add: true})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		job = env.Wait(t, job.ID)

		if e, g := model.TaskStatusDone, job.Status(); e != g {
			t.Fatalf("job.Status(): expected '%v', got '%v'", e, g)
		}

		if e, g := []model.TaskKind{model.TaskKindPopulateIndex}, job.Kinds(); !slices.Equal(e, g) {
			t.Fatalf("job.Kinds(): expected '%v', got '%v'", e, g)
		}
	}

	count, err := env.Engine.CountDocuments(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(50), count; e != g {
		t.Errorf("count: expected '%v', got '%v'", e, g)
	}
}

func TestJobManagerRollover(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	for version, expected := range []string{"demo-1", "demo-2"} {
		job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if e, g := expected, job.Target.Name; e != g {
			t.Fatalf("job.Target.Name: expected '%v', got '%v'", e, g)
		}

		job = env.Wait(t, job.ID)

		if e, g := model.TaskStatusDone, job.Status(); e != g {
			t.Fatalf("job.Status(): expected '%v', got '%v' (%v)", e, g, statuses(job))
		}

		aliased, err := env.Engine.GetAlias(ctx, "demo")
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if e, g := []string{expected}, aliased; !slices.Equal(e, g) {
			t.Errorf("aliased: expected '%v', got '%v'", e, g)
		}

		settings, exists := env.Engine.Settings(expected)
		if !exists {
			t.Fatalf("index '%s' should exist", expected)
		}

		if e, g := any(model.DefaultReplicas), settings["number_of_replicas"]; e != g {
			t.Errorf("settings[number_of_replicas]: expected '%v', got '%v'", e, g)
		}

		if e, g := any("1s"), settings["refresh_interval"]; e != g {
			t.Errorf("settings[refresh_interval]: expected '%v', got '%v'", e, g)
		}

		if version == 1 {
			expectedKinds := []model.TaskKind{
				model.TaskKindCreateIndex,
				model.TaskKindPopulateIndex,
				model.TaskKindUpdateSettings,
				model.TaskKindRemoveAlias,
				model.TaskKindAddAlias,
			}

			if e, g := expectedKinds, job.Kinds(); !slices.Equal(e, g) {
				t.Errorf("job.Kinds(): expected '%v', got '%v'", e, g)
			}

			if e, g := "demo-1", job.Tasks[3].Index.Name; e != g {
				t.Errorf("job.Tasks[3].Index.Name: expected '%v', got '%v'", e, g)
			}
		}
	}

	// The previous version survives the rollover
	exists, err := env.Engine.IndexExists(ctx, "demo-1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !exists {
		t.Errorf("index 'demo-1' should still exist")
	}
}

func TestJobManagerTaskFailure(t *testing.T) {
	ctx := context.Background()

	failing := port.TaskHandlerFunc(func(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
		return errors.New("cluster exploded")
	})

	env := newDemoEnv(t, 10, servicetest.WithHandler(model.TaskKindPopulateIndex, failing))

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusError, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v'", e, g)
	}

	expected := []model.TaskStatus{
		model.TaskStatusDone,
		model.TaskStatusError,
		model.TaskStatusCancelled,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}

	if e, g := "cluster exploded", job.Tasks[1].Error; e != g {
		t.Errorf("job.Tasks[1].Error: expected '%v', got '%v'", e, g)
	}

	aliased, err := env.Engine.GetAlias(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(aliased); e != g {
		t.Errorf("len(aliased): expected '%v', got '%v'", e, g)
	}

	// A failed job does not keep the corpus busy
	if _, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", MappingsOnly: true}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestJobManagerPanickingHandler(t *testing.T) {
	ctx := context.Background()

	panicking := port.TaskHandlerFunc(func(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
		panic("unexpected")
	})

	env := newDemoEnv(t, 10, servicetest.WithHandler(model.TaskKindCreateIndex, panicking))

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	expected := []model.TaskStatus{
		model.TaskStatusError,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}
}

func TestJobManagerBusyCorpus(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	block := make(chan struct{})
	env.Readers.Set("demo", &servicetest.Reader{Total: 10, Start: demoStart, Block: block})

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	_, err = env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Add: true})
	if !errors.Is(err, port.ErrCorpusBusy) {
		t.Fatalf("err: expected '%v', got '%+v'", port.ErrCorpusBusy, err)
	}

	_, err = env.Manager.Prune(ctx, service.PruneRequest{Corpus: "demo", Keep: 1})
	if !errors.Is(err, port.ErrCorpusBusy) {
		t.Fatalf("err: expected '%v', got '%+v'", port.ErrCorpusBusy, err)
	}

	// Other corpora are not affected
	env.Corpora.Put(servicetest.Corpus("other"))
	env.Readers.Set("other", &servicetest.Reader{Total: 1, Start: demoStart})

	other, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "other"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	close(block)

	if e, g := model.TaskStatusDone, env.Wait(t, job.ID).Status(); e != g {
		t.Errorf("job.Status(): expected '%v', got '%v'", e, g)
	}

	if e, g := model.TaskStatusDone, env.Wait(t, other.ID).Status(); e != g {
		t.Errorf("other.Status(): expected '%v', got '%v'", e, g)
	}

	if _, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Add: true}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestJobManagerCancel(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	block := make(chan struct{})
	defer close(block)

	env.Readers.Set("demo", &servicetest.Reader{Total: 10, Start: demoStart, Block: block})

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	waitTaskStatus(t, env, job.ID, 1, model.TaskStatusWorking)

	if err := env.Manager.CancelJob(ctx, job.ID); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	expected := []model.TaskStatus{
		model.TaskStatusDone,
		model.TaskStatusAborted,
		model.TaskStatusCancelled,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}

	if e, g := model.TaskStatusAborted, job.Status(); e != g {
		t.Errorf("job.Status(): expected '%v', got '%v'", e, g)
	}

	// Cancelling a terminal job is a no-op
	if err := env.Manager.CancelJob(ctx, job.ID); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := env.Manager.CancelJob(ctx, "unknown"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("err: expected '%v', got '%+v'", port.ErrNotFound, err)
	}
}

func TestJobManagerUpdate(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 300)

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	env.Wait(t, job.ID)

	// Documents are dated from 1950-01-01, one per day
	start := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(1950, 1, 10, 0, 0, 0, 0, time.UTC)

	job, err = env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Update: true, StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "demo-1", job.Target.Name; e != g {
		t.Errorf("job.Target.Name: expected '%v', got '%v'", e, g)
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusDone, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v'", e, g)
	}

	if e, g := int64(10), job.Tasks[0].Stats.DocumentsUpdated; e != g {
		t.Errorf("job.Tasks[0].Stats.DocumentsUpdated: expected '%v', got '%v'", e, g)
	}

	body, exists := env.Engine.Document("demo-1", "doc-9")
	if !exists {
		t.Fatalf("document 'doc-9' should exist")
	}

	if !strings.Contains(string(body), `"reviewed":true`) {
		t.Errorf("document 'doc-9' should be reviewed, got '%s'", body)
	}
}

func TestJobManagerRejectedRequests(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	notReady := servicetest.Corpus("draft")
	notReady.Mappings = nil
	env.Corpora.Put(notReady)

	type testCase struct {
		Name     string
		Request  service.IndexRequest
		Expected error
	}

	testCases := []testCase{
		{Name: "add with delete", Request: service.IndexRequest{Corpus: "demo", Add: true, Clear: true}, Expected: service.ErrInvalidRequest},
		{Name: "rollover without prod", Request: service.IndexRequest{Corpus: "demo", Rollover: true}, Expected: service.ErrInvalidRequest},
		{Name: "corpus not ready", Request: service.IndexRequest{Corpus: "draft"}, Expected: port.ErrCorpusNotReady},
		{Name: "unknown corpus", Request: service.IndexRequest{Corpus: "unknown"}, Expected: port.ErrNotFound},
		{Name: "update of missing index", Request: service.IndexRequest{Corpus: "demo", Prod: true, Update: true}, Expected: port.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := env.Manager.Index(ctx, tc.Request)
			if !errors.Is(err, tc.Expected) {
				t.Fatalf("err: expected '%v', got '%+v'", tc.Expected, err)
			}
		})
	}

	jobs, err := env.Manager.QueryJobs(ctx, port.QueryJobsOptions{})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(jobs); e != g {
		t.Errorf("len(jobs): expected '%v', got '%v'", e, g)
	}
}

func TestJobManagerPrune(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	for _, name := range []string{"demo-1", "demo-2", "demo-3", "demo-archive"} {
		if err := env.Engine.CreateIndex(ctx, name, port.IndexDefinition{}); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if err := env.Engine.PutAlias(ctx, "demo-1", "demo"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job, err := env.Manager.Prune(ctx, service.PruneRequest{Corpus: "demo", Keep: 1})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusDone, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v'", e, g)
	}

	indices, err := env.Engine.GetIndices(ctx, "demo*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"demo-1", "demo-3", "demo-archive"}, indices; !slices.Equal(e, g) {
		t.Errorf("indices: expected '%v', got '%v'", e, g)
	}
}

func TestJobManagerRecover(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	job := model.NewIndexJob("demo", model.Index{Server: servicetest.ServerName, Name: "demo"})
	job.AddTask(job.Target, model.CreateIndexParams{}).Status = model.TaskStatusDone
	job.AddTask(job.Target, model.PopulateIndexParams{}).Status = model.TaskStatusWorking
	job.AddTask(job.Target, model.UpdateSettingsParams{}).Status = model.TaskStatusQueued

	if err := env.Jobs.CreateJob(ctx, job); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"}); !errors.Is(err, port.ErrCorpusBusy) {
		t.Fatalf("err: expected '%v', got '%+v'", port.ErrCorpusBusy, err)
	}

	if err := env.Manager.Recover(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job, err := env.Manager.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	expected := []model.TaskStatus{
		model.TaskStatusDone,
		model.TaskStatusAborted,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}

	if _, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestJobManagerRefreshIndices(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10)

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", MappingsOnly: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	env.Wait(t, job.ID)

	if err := env.Engine.CreateIndex(ctx, "manual", port.IndexDefinition{}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := env.Engine.DeleteIndex(ctx, "demo"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	indices, err := env.Manager.RefreshIndices(ctx, servicetest.ServerName)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	available := map[string]bool{}
	for _, i := range indices {
		available[i.Name] = i.Available
	}

	if e, g := map[string]bool{"demo": false, "manual": true}, available; len(e) != len(g) || e["demo"] != g["demo"] || e["manual"] != g["manual"] {
		t.Errorf("available: expected '%v', got '%v'", e, g)
	}

	job, err = env.Manager.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if job.Target.Available {
		t.Errorf("job.Target.Available: expected false")
	}
}

func waitTaskStatus(t *testing.T, env *servicetest.Env, id model.JobID, position int, status model.TaskStatus) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		job, err := env.Manager.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if job.Tasks[position].Status == status {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("task #%d of job '%s' did not reach status '%s'", position, id, status)
}

type unhealthyEngine struct {
	port.SearchEngine
}

func (e *unhealthyEngine) WaitForHealth(ctx context.Context, status port.HealthStatus, timeout time.Duration) error {
	return errors.New("cluster unreachable")
}

func TestJobManagerUnhealthyCluster(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10, func(env *servicetest.Env) {
		servicetest.WithEngine(&unhealthyEngine{SearchEngine: env.Engine})(env)
	})

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusError, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v' (%v)", e, g, statuses(job))
	}

	expected := []model.TaskStatus{
		model.TaskStatusDone,
		model.TaskStatusError,
		model.TaskStatusCancelled,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}

	if g := job.Tasks[1].Error; !strings.Contains(g, "not healthy") || !strings.Contains(g, "cluster unreachable") {
		t.Errorf("job.Tasks[1].Error: unexpected message '%v'", g)
	}

	if job.Tasks[1].FinishedAt.IsZero() {
		t.Errorf("job.Tasks[1].FinishedAt: expected a timestamp")
	}
}

// brokenJobStore fails the first transition of a populate task to working.
type brokenJobStore struct {
	port.JobStore
	once sync.Once
}

func (s *brokenJobStore) UpdateTask(ctx context.Context, id model.TaskID, fn func(task *model.IndexTask) error) (*model.IndexTask, error) {
	return s.JobStore.UpdateTask(ctx, id, func(task *model.IndexTask) error {
		if err := fn(task); err != nil {
			return errors.WithStack(err)
		}

		if task.Status != model.TaskStatusWorking || task.Kind() != model.TaskKindPopulateIndex {
			return nil
		}

		var err error
		s.once.Do(func() {
			err = errors.New("database is locked")
		})

		return err
	})
}

func TestJobManagerStoreFailure(t *testing.T) {
	ctx := context.Background()

	env := newDemoEnv(t, 10, servicetest.WithJobStore(func(store port.JobStore) port.JobStore {
		return &brokenJobStore{JobStore: store}
	}))

	job, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job = env.Wait(t, job.ID)

	if e, g := model.TaskStatusError, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v' (%v)", e, g, statuses(job))
	}

	expected := []model.TaskStatus{
		model.TaskStatusDone,
		model.TaskStatusError,
		model.TaskStatusCancelled,
		model.TaskStatusCancelled,
	}

	if e, g := expected, statuses(job); !slices.Equal(e, g) {
		t.Fatalf("statuses: expected '%v', got '%v'", e, g)
	}

	if g := job.Tasks[1].Error; !strings.Contains(g, "database is locked") {
		t.Errorf("job.Tasks[1].Error: unexpected message '%v'", g)
	}

	// The populate task never ran
	if e, g := int64(0), job.Tasks[1].Stats.DocumentsIndexed; e != g {
		t.Errorf("job.Tasks[1].Stats.DocumentsIndexed: expected '%v', got '%v'", e, g)
	}
}
