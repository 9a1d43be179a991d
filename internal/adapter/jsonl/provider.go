package jsonl

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/pkg/errors"
)

type ReaderProvider struct{}

// Reader implements [port.ReaderProvider].
func (p *ReaderProvider) Reader(ctx context.Context, corpus *model.Corpus) (port.Reader, error) {
	b, err := backend.New(corpus.Source.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open source of corpus '%s'", corpus.Name)
	}

	pattern := corpus.Source.Pattern
	if pattern == "" {
		pattern = model.DefaultSourcePattern
	}

	idField := corpus.Source.IDField
	if idField == "" {
		idField = model.DefaultIDField
	}

	reader, err := NewReader(b, pattern, corpus.Source.DateLayout, idField, corpus.DateFieldName())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return reader, nil
}

func NewReaderProvider() *ReaderProvider {
	return &ReaderProvider{}
}

var _ port.ReaderProvider = &ReaderProvider{}
