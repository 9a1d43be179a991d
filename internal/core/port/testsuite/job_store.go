package testsuite

import (
	"context"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

func TestJobStore(t *testing.T, factory func(t *testing.T) (port.JobStore, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.JobStore) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "CreateAndGet",
			Run: func(t *testing.T, ctx context.Context, store port.JobStore) error {
				index := model.Index{Server: "default", Name: "demo-1"}

				job := model.NewIndexJob("demo", index)
				job.AddTask(index, model.CreateIndexParams{ProductionSettings: true})

				start := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
				job.AddTask(index, model.PopulateIndexParams{StartDate: &start})
				job.AddTask(index, model.UpdateSettingsParams{Settings: map[string]any{"number_of_replicas": float64(1)}})
				job.AddTask(index, model.AddAliasParams{Alias: "demo"})

				if err := store.CreateJob(ctx, job); err != nil {
					return errors.WithStack(err)
				}

				stored, err := store.GetJob(ctx, job.ID)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := job.Corpus, stored.Corpus; e != g {
					t.Errorf("stored.Corpus: expected %v, got %v", e, g)
				}

				if e, g := job.Target.Key(), stored.Target.Key(); e != g {
					t.Errorf("stored.Target: expected %v, got %v", e, g)
				}

				if e, g := len(job.Tasks), len(stored.Tasks); e != g {
					t.Fatalf("len(stored.Tasks): expected %v, got %v", e, g)
				}

				for i, task := range job.Tasks {
					if e, g := task.ID, stored.Tasks[i].ID; e != g {
						t.Errorf("stored.Tasks[%d].ID: expected %v, got %v", i, e, g)
					}

					if e, g := task.Kind(), stored.Tasks[i].Kind(); e != g {
						t.Errorf("stored.Tasks[%d].Kind(): expected %v, got %v", i, e, g)
					}

					if e, g := model.TaskStatusCreated, stored.Tasks[i].Status; e != g {
						t.Errorf("stored.Tasks[%d].Status: expected %v, got %v", i, e, g)
					}
				}

				create, ok := stored.Tasks[0].Params.(model.CreateIndexParams)
				if !ok || !create.ProductionSettings {
					t.Errorf("stored.Tasks[0].Params: unexpected value %#v", stored.Tasks[0].Params)
				}

				populate, ok := stored.Tasks[1].Params.(model.PopulateIndexParams)
				if !ok || populate.StartDate == nil || !populate.StartDate.Equal(start) {
					t.Errorf("stored.Tasks[1].Params: unexpected value %#v", stored.Tasks[1].Params)
				}

				alias, ok := stored.Tasks[3].Params.(model.AddAliasParams)
				if !ok || alias.Alias != "demo" {
					t.Errorf("stored.Tasks[3].Params: unexpected value %#v", stored.Tasks[3].Params)
				}

				if _, err := store.GetJob(ctx, model.NewJobID()); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %+v", err)
				}

				return nil
			},
		},
		{
			Name: "UpdateTask",
			Run: func(t *testing.T, ctx context.Context, store port.JobStore) error {
				index := model.Index{Server: "default", Name: "demo-1"}

				job := model.NewIndexJob("demo", index)
				job.AddTask(index, model.CreateIndexParams{})
				populate := job.AddTask(index, model.PopulateIndexParams{})

				if err := store.CreateJob(ctx, job); err != nil {
					return errors.WithStack(err)
				}

				if err := store.SetJobChain(ctx, job.ID, "chain"); err != nil {
					return errors.WithStack(err)
				}

				updated, err := store.UpdateTask(ctx, populate.ID, func(task *model.IndexTask) error {
					task.Status = model.TaskStatusWorking
					task.ExecutionID = "worker"
					task.Stats.DocumentsIndexed = 10
					task.Stats.DocumentsFailed = 1
					return nil
				})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := model.TaskStatusWorking, updated.Status; e != g {
					t.Errorf("updated.Status: expected %v, got %v", e, g)
				}

				stored, err := store.GetJob(ctx, job.ID)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := model.ChainID("chain"), stored.ChainID; e != g {
					t.Errorf("stored.ChainID: expected %v, got %v", e, g)
				}

				if e, g := int64(10), stored.Tasks[1].Stats.DocumentsIndexed; e != g {
					t.Errorf("stored.Tasks[1].Stats.DocumentsIndexed: expected %v, got %v", e, g)
				}

				if e, g := int64(1), stored.Tasks[1].Stats.DocumentsFailed; e != g {
					t.Errorf("stored.Tasks[1].Stats.DocumentsFailed: expected %v, got %v", e, g)
				}

				if e, g := "worker", stored.Tasks[1].ExecutionID; e != g {
					t.Errorf("stored.Tasks[1].ExecutionID: expected %v, got %v", e, g)
				}

				// Returned jobs are not shared with the store
				stored.Tasks[0].Status = model.TaskStatusDone

				stored, err = store.GetJob(ctx, job.ID)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := model.TaskStatusCreated, stored.Tasks[0].Status; e != g {
					t.Errorf("stored.Tasks[0].Status: expected %v, got %v", e, g)
				}

				failing := errors.New("failing")

				_, err = store.UpdateTask(ctx, populate.ID, func(task *model.IndexTask) error {
					task.Status = model.TaskStatusDone
					return failing
				})
				if !errors.Is(err, failing) {
					t.Errorf("expected update error, got %+v", err)
				}

				stored, err = store.GetJob(ctx, job.ID)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := model.TaskStatusWorking, stored.Tasks[1].Status; e != g {
					t.Errorf("stored.Tasks[1].Status: expected %v, got %v", e, g)
				}

				if _, err := store.UpdateTask(ctx, model.NewTaskID(), func(task *model.IndexTask) error { return nil }); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %+v", err)
				}

				return nil
			},
		},
		{
			Name: "QueryJobs",
			Run: func(t *testing.T, ctx context.Context, store port.JobStore) error {
				first := model.NewIndexJob("demo", model.Index{Server: "default", Name: "demo-1"})
				first.CreatedAt = time.Now().Add(-2 * time.Hour)

				second := model.NewIndexJob("other", model.Index{Server: "default", Name: "other-1"})
				second.CreatedAt = time.Now().Add(-time.Hour)

				third := model.NewIndexJob("demo", model.Index{Server: "default", Name: "demo-2"})

				for _, job := range []*model.IndexJob{first, second, third} {
					if err := store.CreateJob(ctx, job); err != nil {
						return errors.WithStack(err)
					}
				}

				jobs, err := store.QueryJobs(ctx, port.QueryJobsOptions{})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 3, len(jobs); e != g {
					t.Fatalf("len(jobs): expected %v, got %v", e, g)
				}

				if e, g := third.ID, jobs[0].ID; e != g {
					t.Errorf("jobs[0].ID: expected %v, got %v", e, g)
				}

				corpus := model.CorpusName("demo")

				jobs, err = store.QueryJobs(ctx, port.QueryJobsOptions{Corpus: &corpus})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 2, len(jobs); e != g {
					t.Fatalf("len(jobs): expected %v, got %v", e, g)
				}

				page, limit := 1, 1

				jobs, err = store.QueryJobs(ctx, port.QueryJobsOptions{Corpus: &corpus, Page: &page, Limit: &limit})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(jobs); e != g {
					t.Fatalf("len(jobs): expected %v, got %v", e, g)
				}

				if e, g := first.ID, jobs[0].ID; e != g {
					t.Errorf("jobs[0].ID: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "Indices",
			Run: func(t *testing.T, ctx context.Context, store port.JobStore) error {
				index := model.Index{Server: "default", Name: "demo-1"}

				job := model.NewIndexJob("demo", index)
				job.AddTask(index, model.CreateIndexParams{})

				if err := store.CreateJob(ctx, job); err != nil {
					return errors.WithStack(err)
				}

				indices, err := store.QueryIndices(ctx, "default")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(indices); e != g {
					t.Fatalf("len(indices): expected %v, got %v", e, g)
				}

				if indices[0].Available {
					t.Errorf("expected index '%s' not to be available", indices[0])
				}

				index.Available = true

				if err := store.SaveIndex(ctx, index); err != nil {
					return errors.WithStack(err)
				}

				if err := store.SaveIndex(ctx, model.Index{Server: "archive", Name: "demo-1", Available: true}); err != nil {
					return errors.WithStack(err)
				}

				indices, err = store.QueryIndices(ctx, "default")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(indices); e != g {
					t.Fatalf("len(indices): expected %v, got %v", e, g)
				}

				if !indices[0].Available {
					t.Errorf("expected index '%s' to be available", indices[0])
				}

				stored, err := store.GetJob(ctx, job.ID)
				if err != nil {
					return errors.WithStack(err)
				}

				if !stored.Tasks[0].Index.Available {
					t.Errorf("expected task index to reflect availability")
				}

				indices, err = store.QueryIndices(ctx, "")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 2, len(indices); e != g {
					t.Errorf("len(indices): expected %v, got %v", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			ctx := context.Background()

			if err := tc.Run(t, ctx, store); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
