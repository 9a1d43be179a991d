package port

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

// Reader produces the documents of a corpus.
type Reader interface {
	Sources(ctx context.Context, minDate time.Time, maxDate time.Time) ([]model.SourceRef, error)
	// Documents is single pass and lazy. Errors of type *DocumentError only concern
	// one document, any other error ends the sequence.
	Documents(ctx context.Context, sources []model.SourceRef) iter.Seq2[model.Document, error]
}

type ReaderProvider interface {
	Reader(ctx context.Context, corpus *model.Corpus) (Reader, error)
}

type DocumentError struct {
	Source string
	Line   int
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("invalid document at %s:%d: %s", e.Source, e.Line, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
