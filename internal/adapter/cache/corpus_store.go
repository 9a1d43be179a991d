package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CorpusStore keeps corpus definitions for a while to spare the backend store.
// Returned corpora are shared and must not be modified.
type CorpusStore struct {
	backend port.CorpusStore
	ttl     time.Duration
	corpora *expirable.LRU[model.CorpusName, *model.Corpus]

	listMutex   sync.Mutex
	list        []*model.Corpus
	listExpires time.Time
}

// GetCorpus implements [port.CorpusStore].
func (s *CorpusStore) GetCorpus(ctx context.Context, name model.CorpusName) (*model.Corpus, error) {
	if corpus, exists := s.corpora.Get(name); exists {
		return corpus, nil
	}

	corpus, err := s.backend.GetCorpus(ctx, name)
	if err != nil {
		return nil, err
	}

	s.corpora.Add(corpus.Name, corpus)

	return corpus, nil
}

// ListCorpora implements [port.CorpusStore].
func (s *CorpusStore) ListCorpora(ctx context.Context) ([]*model.Corpus, error) {
	s.listMutex.Lock()
	defer s.listMutex.Unlock()

	if s.list != nil && time.Now().Before(s.listExpires) {
		return s.list, nil
	}

	corpora, err := s.backend.ListCorpora(ctx)
	if err != nil {
		return nil, err
	}

	s.list = corpora
	s.listExpires = time.Now().Add(s.ttl)

	for _, corpus := range corpora {
		s.corpora.Add(corpus.Name, corpus)
	}

	return corpora, nil
}

// Invalidate drops every cached definition.
func (s *CorpusStore) Invalidate() {
	s.corpora.Purge()

	s.listMutex.Lock()
	s.list = nil
	s.listMutex.Unlock()
}

func NewCorpusStore(backend port.CorpusStore, size int, ttl time.Duration) *CorpusStore {
	return &CorpusStore{
		backend: backend,
		ttl:     ttl,
		corpora: expirable.NewLRU[model.CorpusName, *model.Corpus](size, nil, ttl),
	}
}

var _ port.CorpusStore = &CorpusStore{}
