package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/port/testsuite"
	"github.com/pkg/errors"
)

func TestEngine(t *testing.T) {
	testsuite.TestSearchEngine(t, func(t *testing.T) (port.SearchEngine, error) {
		return NewEngine(), nil
	})
}

func TestEngineAliasConflict(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine()

	for _, name := range []string{"demo-1", "other"} {
		if err := engine.CreateIndex(ctx, name, port.IndexDefinition{}); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if err := engine.PutAlias(ctx, "demo-1", "other"); err == nil {
		t.Errorf("expected alias conflicting with an index to fail")
	}

	if err := engine.PutAlias(ctx, "demo-1", "demo"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := engine.CreateIndex(ctx, "demo", port.IndexDefinition{}); err == nil {
		t.Errorf("expected index conflicting with an alias to fail")
	}
}

func TestEngineUpdateMergesParams(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine()

	if err := engine.CreateIndex(ctx, "demo", port.IndexDefinition{}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	documents := []model.Document{
		{ID: "1", Body: json.RawMessage(`{"date":"1950-01-01","title":"one"}`)},
		{ID: "2", Body: json.RawMessage(`{"date":"1960-06-15","title":"two"}`)},
		{ID: "3", Body: json.RawMessage(`{"date":`)},
	}

	results, err := engine.Bulk(ctx, "demo", documents)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 3, len(results); e != g {
		t.Fatalf("len(results): expected %v, got %v", e, g)
	}

	if results[2].Success {
		t.Errorf("expected invalid document to be rejected")
	}

	count, err := engine.CountDocuments(ctx, "demo")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(2), count; e != g {
		t.Errorf("count: expected %v, got %v", e, g)
	}

	start := time.Date(1955, 1, 1, 0, 0, 0, 0, time.UTC)

	updated, err := engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
		Script:    model.UpdateScript{Params: map[string]any{"reviewed": true}},
		DateField: "date",
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(1), updated; e != g {
		t.Errorf("updated: expected %v, got %v", e, g)
	}

	body, _ := engine.Document("demo", "2")

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := true, doc["reviewed"]; e != g {
		t.Errorf("doc['reviewed']: expected %v, got %v", e, g)
	}
}

func TestEngineUpdateHonorsQuery(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine()

	if err := engine.CreateIndex(ctx, "demo", port.IndexDefinition{}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	documents := []model.Document{
		{ID: "1", Body: json.RawMessage(`{"date":"1950-01-01","kind":"daily"}`)},
		{ID: "2", Body: json.RawMessage(`{"date":"1950-01-02","kind":"weekly"}`)},
	}

	if _, err := engine.Bulk(ctx, "demo", documents); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	updated, err := engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
		Script: model.UpdateScript{
			Query:  map[string]any{"term": map[string]any{"kind": "weekly"}},
			Params: map[string]any{"reviewed": true},
		},
		DateField: "date",
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(1), updated; e != g {
		t.Errorf("updated: expected %v, got %v", e, g)
	}

	for id, expected := range map[string]any{"1": nil, "2": true} {
		body, _ := engine.Document("demo", id)

		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if e, g := expected, doc["reviewed"]; e != g {
			t.Errorf("doc[%s]['reviewed']: expected %v, got %v", id, e, g)
		}
	}

	_, err = engine.UpdateByQuery(ctx, "demo", port.UpdateByQueryRequest{
		Script: model.UpdateScript{
			Query: map[string]any{"script": map[string]any{}},
		},
	})
	if err == nil {
		t.Errorf("expected an unsupported query to fail")
	}
}
