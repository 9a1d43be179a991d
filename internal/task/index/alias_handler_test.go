package index_test

import (
	"context"
	"slices"
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/service/servicetest"
	"github.com/bornholm/corpus-indexer/internal/task/index"
	"github.com/pkg/errors"
)

func TestAliasHandlers(t *testing.T) {
	ctx := context.Background()

	f := newFixture(servicetest.NewServer())
	f.Job.Target.Name = "demo-1"
	mustCreateIndex(t, f.Engine, "demo-1")

	add := index.NewAddAliasHandler(f.Engines)
	remove := index.NewRemoveAliasHandler(f.Engines)

	if _, err := run(ctx, add, f.task(model.AddAliasParams{Alias: "demo"})); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	aliased, err := f.Engine.GetAlias(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"demo-1"}, aliased; !slices.Equal(e, g) {
		t.Errorf("aliased: expected '%v', got '%v'", e, g)
	}

	for i := 0; i < 2; i++ {
		if _, err := run(ctx, remove, f.task(model.RemoveAliasParams{Alias: "demo"})); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	aliased, err = f.Engine.GetAlias(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(aliased); e != g {
		t.Errorf("len(aliased): expected '%v', got '%v'", e, g)
	}
}

func TestUpdateSettingsHandler(t *testing.T) {
	ctx := context.Background()

	f := newFixture(servicetest.NewServer())
	mustCreateIndex(t, f.Engine, "demo")

	handler := index.NewUpdateSettingsHandler(f.Engines)

	if _, err := run(ctx, handler, f.task(model.UpdateSettingsParams{Settings: map[string]any{"number_of_replicas": 2}})); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	settings, _ := f.Engine.Settings("demo")

	if e, g := any(2), settings["number_of_replicas"]; e != g {
		t.Errorf("settings[number_of_replicas]: expected '%v', got '%v'", e, g)
	}
}

func TestDeleteIndexHandler(t *testing.T) {
	ctx := context.Background()

	f := newFixture(servicetest.NewServer())
	f.Job.Target.Name = "demo-1"
	mustCreateIndex(t, f.Engine, "demo-1")

	handler := index.NewDeleteIndexHandler(f.Engines, f.Jobs)

	if _, err := run(ctx, handler, f.task(model.DeleteIndexParams{})); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	exists, err := f.Engine.IndexExists(ctx, "demo-1")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if exists {
		t.Errorf("index 'demo-1' should be deleted")
	}

	indices, err := f.Jobs.QueryIndices(ctx, servicetest.ServerName)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(indices); e != g {
		t.Fatalf("len(indices): expected '%v', got '%v'", e, g)
	}

	if indices[0].Available {
		t.Errorf("deleted index should not be available")
	}
}

func TestUpdateIndexHandler(t *testing.T) {
	ctx := context.Background()

	f := newFixture(servicetest.NewServer())
	f.Readers.Set("demo", &servicetest.Reader{Total: 20, Start: demoStart})
	mustCreateIndex(t, f.Engine, "demo")

	populate := index.NewPopulateIndexHandler(f.Corpora, f.Engines, f.Readers)
	if _, err := run(ctx, populate, f.task(model.PopulateIndexParams{})); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	handler := index.NewUpdateIndexHandler(f.Corpora, f.Engines)

	stats, err := run(ctx, handler, f.task(model.UpdateIndexParams{}))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(20), stats[len(stats)-1].DocumentsUpdated; e != g {
		t.Errorf("DocumentsUpdated: expected '%v', got '%v'", e, g)
	}
}
