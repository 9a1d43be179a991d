package yaml

import (
	"context"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend/local"
	"github.com/pkg/errors"
)

func TestCorpusStore(t *testing.T) {
	ctx := context.Background()
	store := NewCorpusStore(local.New("testdata"))

	corpora, err := store.ListCorpora(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(corpora); e != g {
		t.Fatalf("len(corpora): expected %v, got %v", e, g)
	}

	if e, g := model.CorpusName("parliament-uk"), corpora[0].Name; e != g {
		t.Errorf("corpora[0].Name: expected %v, got %v", e, g)
	}

	if e, g := "parliament-uk", corpora[0].IndexName; e != g {
		t.Errorf("corpora[0].IndexName: expected %v, got %v", e, g)
	}

	times, err := store.GetCorpus(ctx, "times")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := times.ReadyToIndex(); err != nil {
		t.Errorf("%+v", errors.WithStack(err))
	}

	if e, g := time.Date(1785, 1, 1, 0, 0, 0, 0, time.UTC), times.MinDate; !e.Equal(g) {
		t.Errorf("times.MinDate: expected %v, got %v", e, g)
	}

	if times.Update == nil {
		t.Fatalf("expected update script to be defined")
	}

	if e, g := true, times.Update.Params["reviewed"]; e != g {
		t.Errorf("times.Update.Params['reviewed']: expected %v, got %v", e, g)
	}

	if e, g := "2006-01-02", times.Source.DateLayout; e != g {
		t.Errorf("times.Source.DateLayout: expected %v, got %v", e, g)
	}

	properties, ok := times.Mappings["properties"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected mappings properties type '%T'", times.Mappings["properties"])
	}

	if e, g := 3, len(properties); e != g {
		t.Errorf("len(properties): expected %v, got %v", e, g)
	}

	if _, err := store.GetCorpus(ctx, "unknown"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %+v", err)
	}
}
