package service_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/core/service/servicetest"
	"github.com/pkg/errors"
)

func TestPlannerPlan(t *testing.T) {
	start := time.Date(1950, 3, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		Name     string
		Setup    func(t *testing.T, engine port.SearchEngine)
		Request  service.IndexRequest
		Target   string
		Expected []model.TaskKind
		Check    func(t *testing.T, job *model.IndexJob)
	}

	createIndices := func(names ...string) func(t *testing.T, engine port.SearchEngine) {
		return func(t *testing.T, engine port.SearchEngine) {
			for _, n := range names {
				if err := engine.CreateIndex(context.Background(), n, port.IndexDefinition{}); err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}
			}
		}
	}

	testCases := []testCase{
		{
			Name:     "default",
			Request:  service.IndexRequest{Corpus: "demo"},
			Target:   "demo",
			Expected: []model.TaskKind{model.TaskKindCreateIndex, model.TaskKindPopulateIndex},
		},
		{
			Name:     "mappings only",
			Request:  service.IndexRequest{Corpus: "demo", MappingsOnly: true},
			Target:   "demo",
			Expected: []model.TaskKind{model.TaskKindCreateIndex},
		},
		{
			Name:     "add",
			Setup:    createIndices("demo"),
			Request:  service.IndexRequest{Corpus: "demo", Add: true, StartDate: &start},
			Target:   "demo",
			Expected: []model.TaskKind{model.TaskKindPopulateIndex},
			Check: func(t *testing.T, job *model.IndexJob) {
				params, ok := job.Tasks[0].Params.(model.PopulateIndexParams)
				if !ok {
					t.Fatalf("unexpected params type %T", job.Tasks[0].Params)
				}

				if params.StartDate == nil || !params.StartDate.Equal(start) {
					t.Errorf("params.StartDate: expected '%v', got '%v'", start, params.StartDate)
				}
			},
		},
		{
			Name:     "delete",
			Request:  service.IndexRequest{Corpus: "demo", Clear: true},
			Target:   "demo",
			Expected: []model.TaskKind{model.TaskKindCreateIndex, model.TaskKindPopulateIndex},
			Check: func(t *testing.T, job *model.IndexJob) {
				params := job.Tasks[0].Params.(model.CreateIndexParams)
				if !params.DeleteExisting {
					t.Errorf("params.DeleteExisting: expected true")
				}
			},
		},
		{
			Name:     "update",
			Setup:    createIndices("demo"),
			Request:  service.IndexRequest{Corpus: "demo", Update: true},
			Target:   "demo",
			Expected: []model.TaskKind{model.TaskKindUpdateIndex},
		},
		{
			Name:     "prod",
			Request:  service.IndexRequest{Corpus: "demo", Prod: true},
			Target:   "demo-1",
			Expected: []model.TaskKind{model.TaskKindCreateIndex, model.TaskKindPopulateIndex, model.TaskKindUpdateSettings},
			Check: func(t *testing.T, job *model.IndexJob) {
				params := job.Tasks[0].Params.(model.CreateIndexParams)
				if !params.ProductionSettings {
					t.Errorf("params.ProductionSettings: expected true")
				}
			},
		},
		{
			Name:     "prod mappings only",
			Request:  service.IndexRequest{Corpus: "demo", Prod: true, MappingsOnly: true},
			Target:   "demo-1",
			Expected: []model.TaskKind{model.TaskKindCreateIndex, model.TaskKindUpdateSettings},
		},
		{
			Name: "prod rollover",
			Setup: func(t *testing.T, engine port.SearchEngine) {
				createIndices("demo-1", "demo-2", "demo-old")(t, engine)
				if err := engine.PutAlias(context.Background(), "demo-1", "demo"); err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}
			},
			Request: service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true},
			Target:  "demo-3",
			Expected: []model.TaskKind{
				model.TaskKindCreateIndex,
				model.TaskKindPopulateIndex,
				model.TaskKindUpdateSettings,
				model.TaskKindRemoveAlias,
				model.TaskKindAddAlias,
			},
			Check: func(t *testing.T, job *model.IndexJob) {
				if e, g := "demo-1", job.Tasks[3].Index.Name; e != g {
					t.Errorf("job.Tasks[3].Index.Name: expected '%v', got '%v'", e, g)
				}

				if e, g := "demo-3", job.Tasks[4].Index.Name; e != g {
					t.Errorf("job.Tasks[4].Index.Name: expected '%v', got '%v'", e, g)
				}
			},
		},
		{
			Name: "prod add",
			Setup: func(t *testing.T, engine port.SearchEngine) {
				createIndices("demo-1", "demo-2")(t, engine)
				if err := engine.PutAlias(context.Background(), "demo-1", "demo"); err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}
			},
			Request:  service.IndexRequest{Corpus: "demo", Prod: true, Add: true},
			Target:   "demo-1",
			Expected: []model.TaskKind{model.TaskKindPopulateIndex},
		},
		{
			Name: "prod update rollover",
			Setup: func(t *testing.T, engine port.SearchEngine) {
				createIndices("demo-4")(t, engine)
				if err := engine.PutAlias(context.Background(), "demo-4", "demo"); err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}
			},
			Request:  service.IndexRequest{Corpus: "demo", Prod: true, Update: true, Rollover: true},
			Target:   "demo-4",
			Expected: []model.TaskKind{model.TaskKindUpdateIndex, model.TaskKindAddAlias},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()

			env := servicetest.NewEnv(t)
			env.Corpora.Put(servicetest.Corpus("demo"))

			if tc.Setup != nil {
				tc.Setup(t, env.Engine)
			}

			planner := service.NewPlanner(env.Corpora, env.Engines, env.Jobs, service.NewResolver(env.Engines))

			job, err := planner.Plan(ctx, tc.Request)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.Target, job.Target.Name; e != g {
				t.Errorf("job.Target.Name: expected '%v', got '%v'", e, g)
			}

			if e, g := tc.Expected, job.Kinds(); !slices.Equal(e, g) {
				t.Fatalf("job.Kinds(): expected '%v', got '%v'", e, g)
			}

			for i, task := range job.Tasks {
				if e, g := i, task.Position; e != g {
					t.Errorf("task.Position: expected '%v', got '%v'", e, g)
				}

				if e, g := model.TaskStatusCreated, task.Status; e != g {
					t.Errorf("task.Status: expected '%v', got '%v'", e, g)
				}
			}

			if tc.Check != nil {
				tc.Check(t, job)
			}

			// Planning is read only and persists the job
			stored, err := env.Jobs.GetJob(ctx, job.ID)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.Expected, stored.Kinds(); !slices.Equal(e, g) {
				t.Errorf("stored.Kinds(): expected '%v', got '%v'", e, g)
			}
		})
	}
}

func TestPlannerPlanIsStable(t *testing.T) {
	ctx := context.Background()

	env := servicetest.NewEnv(t)
	env.Corpora.Put(servicetest.Corpus("demo"))

	planner := service.NewPlanner(env.Corpora, env.Engines, env.Jobs, service.NewResolver(env.Engines))

	req := service.IndexRequest{Corpus: "demo", Prod: true, Rollover: true}

	first, err := planner.Plan(ctx, req)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	second, err := planner.Plan(ctx, req)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := first.Kinds(), second.Kinds(); !slices.Equal(e, g) {
		t.Errorf("second.Kinds(): expected '%v', got '%v'", e, g)
	}

	if e, g := first.Target, second.Target; e != g {
		t.Errorf("second.Target: expected '%v', got '%v'", e, g)
	}

	indices, err := env.Engine.GetIndices(ctx, "*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(indices); e != g {
		t.Errorf("len(indices): expected '%v', got '%v'", e, g)
	}
}

func TestPlannerPlanWithoutUpdateScript(t *testing.T) {
	env := servicetest.NewEnv(t)

	corpus := servicetest.Corpus("demo")
	corpus.Update = nil
	env.Corpora.Put(corpus)

	planner := service.NewPlanner(env.Corpora, env.Engines, env.Jobs, service.NewResolver(env.Engines))

	_, err := planner.Plan(context.Background(), service.IndexRequest{Corpus: "demo", Update: true})
	if !errors.Is(err, service.ErrInvalidRequest) {
		t.Fatalf("err: expected '%v', got '%+v'", service.ErrInvalidRequest, err)
	}
}
