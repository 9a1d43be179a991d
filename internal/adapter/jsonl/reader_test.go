package jsonl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend/memory"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func writeSource(t *testing.T, fs afero.Fs, name string, lines ...string) {
	t.Helper()

	if err := afero.WriteFile(fs, name, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestReader(t *testing.T) {
	ctx := context.Background()
	volume := memory.Volume(t.Name())

	writeSource(t, volume, "/sources/1950/1950-01-01.jsonl",
		`{"id":"a","date":"1950-01-01","title":"first"}`,
		`{"id":"b","date":"1950-01-01",`,
		``,
		`{"id":3,"date":"1950-01-01"}`,
	)
	writeSource(t, volume, "/sources/1950/1950-06-01.jsonl",
		`{"date":"1950-06-01"}`,
	)
	writeSource(t, volume, "/sources/1952/1952-01-01.jsonl",
		`{"id":"c","date":"1952-01-01"}`,
	)
	writeSource(t, volume, "/sources/notes.txt", "not a source")

	reader, err := NewReader(memory.New(volume, "/sources"), "*.jsonl", time.DateOnly, model.DefaultIDField, model.DefaultDateField)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	minDate := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(1951, 12, 31, 0, 0, 0, 0, time.UTC)

	sources, err := reader.Sources(ctx, minDate, maxDate)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(sources); e != g {
		t.Fatalf("len(sources): expected %v, got %v", e, g)
	}

	if e, g := "/1950/1950-01-01.jsonl", sources[0].Path; e != g {
		t.Errorf("sources[0].Path: expected %v, got %v", e, g)
	}

	var (
		documents []model.Document
		failures  []*port.DocumentError
	)

	for doc, err := range reader.Documents(ctx, sources) {
		if err != nil {
			var docErr *port.DocumentError
			if !errors.As(err, &docErr) {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			failures = append(failures, docErr)
			continue
		}

		documents = append(documents, doc)
	}

	if e, g := 3, len(documents); e != g {
		t.Fatalf("len(documents): expected %v, got %v", e, g)
	}

	if e, g := 1, len(failures); e != g {
		t.Fatalf("len(failures): expected %v, got %v", e, g)
	}

	if e, g := 2, failures[0].Line; e != g {
		t.Errorf("failures[0].Line: expected %v, got %v", e, g)
	}

	if e, g := "a", documents[0].ID; e != g {
		t.Errorf("documents[0].ID: expected %v, got %v", e, g)
	}

	if e, g := "3", documents[1].ID; e != g {
		t.Errorf("documents[1].ID: expected %v, got %v", e, g)
	}

	if documents[2].ID == "" {
		t.Errorf("expected documents[2] to have a derived id")
	}

	if !documents[0].Date.Equal(minDate) {
		t.Errorf("documents[0].Date: expected %v, got %v", minDate, documents[0].Date)
	}
}

func TestReaderEarlyStop(t *testing.T) {
	ctx := context.Background()
	volume := memory.Volume(t.Name())

	lines := make([]string, 0, 100)
	for i := range 100 {
		lines = append(lines, fmt.Sprintf(`{"id":"%d"}`, i))
	}

	writeSource(t, volume, "/documents.jsonl", lines...)

	reader, err := NewReader(memory.New(volume, "/"), "*.jsonl", "", model.DefaultIDField, model.DefaultDateField)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	sources, err := reader.Sources(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	count := 0
	for _, err := range reader.Documents(ctx, sources) {
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		count++
		if count == 10 {
			break
		}
	}

	if e, g := 10, count; e != g {
		t.Errorf("count: expected %v, got %v", e, g)
	}
}

func TestDerivedID(t *testing.T) {
	id := derivedID("/1950/01/a.jsonl", 3)

	if e, g := id, derivedID("/1950/01/a.jsonl", 3); e != g {
		t.Errorf("derivedID: expected '%v', got '%v'", e, g)
	}

	if e, g := strconv.FormatUint(xxhash.Sum64String("/1950/01/a.jsonl:3"), 36), id; e != g {
		t.Errorf("derivedID: expected '%v', got '%v'", e, g)
	}

	others := []string{
		derivedID("/1950/01/a.jsonl", 4),
		derivedID("/1950/01/b.jsonl", 3),
	}

	for _, other := range others {
		if other == id {
			t.Errorf("derivedID: expected '%v' to differ from '%v'", other, id)
		}
	}
}
