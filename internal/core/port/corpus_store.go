package port

import (
	"context"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

type CorpusStore interface {
	GetCorpus(ctx context.Context, name model.CorpusName) (*model.Corpus, error)
	ListCorpora(ctx context.Context) ([]*model.Corpus, error)
}
