package testsuite

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

var testMappings = map[string]any{
	"properties": map[string]any{
		"date":  map[string]any{"type": "date"},
		"title": map[string]any{"type": "text"},
	},
}

func TestSearchEngine(t *testing.T, factory func(t *testing.T) (port.SearchEngine, error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, engine port.SearchEngine) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "IndexLifecycle",
			Run: func(t *testing.T, ctx context.Context, engine port.SearchEngine) error {
				for _, name := range []string{"demo-1", "demo-2", "other"} {
					if err := engine.CreateIndex(ctx, name, port.IndexDefinition{Mappings: testMappings}); err != nil {
						return errors.WithStack(err)
					}
				}

				if err := engine.CreateIndex(ctx, "demo-1", port.IndexDefinition{Mappings: testMappings}); !errors.Is(err, port.ErrIndexExists) {
					t.Errorf("expected ErrIndexExists, got %+v", err)
				}

				exists, err := engine.IndexExists(ctx, "demo-2")
				if err != nil {
					return errors.WithStack(err)
				}

				if !exists {
					t.Errorf("expected index 'demo-2' to exist")
				}

				names, err := engine.GetIndices(ctx, "demo-*")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"demo-1", "demo-2"}, names; !slices.Equal(e, g) {
					t.Errorf("names: expected %v, got %v", e, g)
				}

				if err := engine.DeleteIndex(ctx, "demo-2"); err != nil {
					return errors.WithStack(err)
				}

				if err := engine.DeleteIndex(ctx, "missing"); err != nil {
					t.Errorf("expected deleting a missing index not to fail, got %+v", err)
				}

				exists, err = engine.IndexExists(ctx, "demo-2")
				if err != nil {
					return errors.WithStack(err)
				}

				if exists {
					t.Errorf("expected index 'demo-2' to be deleted")
				}

				if err := engine.PutSettings(ctx, "demo-1", map[string]any{"number_of_replicas": 0}); err != nil {
					return errors.WithStack(err)
				}

				if err := engine.WaitForHealth(ctx, port.HealthYellow, 30*time.Second); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		},
		{
			Name: "Aliases",
			Run: func(t *testing.T, ctx context.Context, engine port.SearchEngine) error {
				for _, name := range []string{"demo-1", "demo-2"} {
					if err := engine.CreateIndex(ctx, name, port.IndexDefinition{Mappings: testMappings}); err != nil {
						return errors.WithStack(err)
					}
				}

				aliased, err := engine.GetAlias(ctx, "demo")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 0, len(aliased); e != g {
					t.Errorf("len(aliased): expected %v, got %v", e, g)
				}

				for _, name := range []string{"demo-1", "demo-2"} {
					if err := engine.PutAlias(ctx, name, "demo"); err != nil {
						return errors.WithStack(err)
					}
				}

				aliased, err = engine.GetAlias(ctx, "demo")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"demo-1", "demo-2"}, aliased; !slices.Equal(e, g) {
					t.Errorf("aliased: expected %v, got %v", e, g)
				}

				if err := engine.DeleteAlias(ctx, "demo-1", "demo"); err != nil {
					return errors.WithStack(err)
				}

				if err := engine.DeleteAlias(ctx, "demo-1", "demo"); err != nil {
					t.Errorf("expected deleting a missing alias not to fail, got %+v", err)
				}

				aliased, err = engine.GetAlias(ctx, "demo")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"demo-2"}, aliased; !slices.Equal(e, g) {
					t.Errorf("aliased: expected %v, got %v", e, g)
				}

				if err := engine.DeleteIndex(ctx, "demo-2"); err != nil {
					return errors.WithStack(err)
				}

				aliased, err = engine.GetAlias(ctx, "demo")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 0, len(aliased); e != g {
					t.Errorf("len(aliased): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "BulkAndUpdate",
			Run: func(t *testing.T, ctx context.Context, engine port.SearchEngine) error {
				if err := engine.CreateIndex(ctx, "demo", port.IndexDefinition{Mappings: testMappings}); err != nil {
					return errors.WithStack(err)
				}

				documents := []model.Document{
					{ID: "1", Body: json.RawMessage(`{"date":"1950-01-01","title":"one"}`)},
					{ID: "2", Body: json.RawMessage(`{"date":"1960-06-15","title":"two"}`)},
					{ID: "3", Body: json.RawMessage(`{"date":`)},
				}

				results, err := engine.Bulk(ctx, "demo", documents)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 3, len(results); e != g {
					t.Fatalf("len(results): expected %v, got %v", e, g)
				}

				if !results[0].Success || !results[1].Success {
					t.Errorf("expected valid documents to be indexed, got %+v", results)
				}

				if results[2].Success {
					t.Errorf("expected invalid document to be rejected")
				}

				count, err := engine.CountDocuments(ctx, "demo")
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(2), count; e != g {
					t.Errorf("count: expected %v, got %v", e, g)
				}

				script := model.UpdateScript{
					Source: "ctx._source.reviewed = params.reviewed",
					Lang:   "painless",
					Params: map[string]any{"reviewed": true},
				}

				start := time.Date(1955, 1, 1, 0, 0, 0, 0, time.UTC)

				updated, err := engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
					Script:    script,
					DateField: "date",
					StartDate: &start,
				})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), updated; e != g {
					t.Errorf("updated: expected %v, got %v", e, g)
				}

				end := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

				updated, err = engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
					Script:    script,
					DateField: "date",
					EndDate:   &end,
				})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), updated; e != g {
					t.Errorf("updated: expected %v, got %v", e, g)
				}

				updated, err = engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
					Script:    script,
					DateField: "date",
				})
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(2), updated; e != g {
					t.Errorf("updated: expected %v, got %v", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			engine, err := factory(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			ctx := context.Background()

			if err := tc.Run(t, ctx, engine); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
