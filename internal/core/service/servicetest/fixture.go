// Package servicetest provides in-memory fixtures to exercise the job
// manager and its task handlers.
package servicetest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/adapter/memory"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/task/index"
	"github.com/pkg/errors"
)

const ServerName = "default"

// Corpus returns a corpus ready to be indexed on the default server.
func Corpus(name string) *model.Corpus {
	return &model.Corpus{
		Name:      model.CorpusName(name),
		Title:     name,
		Server:    ServerName,
		IndexName: name,
		Settings:  map[string]any{"analysis": map[string]any{}},
		Mappings: map[string]any{
			"properties": map[string]any{
				"date":  map[string]any{"type": "date"},
				"title": map[string]any{"type": "text"},
			},
		},
		DateField: model.DefaultDateField,
		MinDate:   time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(1950, 12, 31, 0, 0, 0, 0, time.UTC),
		Update: &model.UpdateScript{
			Source: "ctx._source.reviewed = params.reviewed",
			Lang:   "painless",
			Params: map[string]any{"reviewed": true},
		},
		Source: model.SourceConfig{
			URI: "memory://" + name,
		},
	}
}

type CorpusStore struct {
	mutex   sync.RWMutex
	corpora map[model.CorpusName]*model.Corpus
}

func (s *CorpusStore) Put(corpus *model.Corpus) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.corpora[corpus.Name] = corpus
}

// GetCorpus implements [port.CorpusStore].
func (s *CorpusStore) GetCorpus(ctx context.Context, name model.CorpusName) (*model.Corpus, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	corpus, exists := s.corpora[name]
	if !exists {
		return nil, errors.Wrapf(port.ErrNotFound, "corpus '%s'", name)
	}

	c := *corpus

	return &c, nil
}

// ListCorpora implements [port.CorpusStore].
func (s *CorpusStore) ListCorpora(ctx context.Context) ([]*model.Corpus, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	corpora := make([]*model.Corpus, 0, len(s.corpora))
	for _, c := range s.corpora {
		corpus := *c
		corpora = append(corpora, &corpus)
	}

	slices.SortFunc(corpora, func(a, b *model.Corpus) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	return corpora, nil
}

func NewCorpusStore(corpora ...*model.Corpus) *CorpusStore {
	store := &CorpusStore{
		corpora: make(map[model.CorpusName]*model.Corpus, len(corpora)),
	}

	for _, c := range corpora {
		store.Put(c)
	}

	return store
}

var _ port.CorpusStore = &CorpusStore{}

type EngineProvider struct {
	servers map[string]model.Server
	engines map[string]port.SearchEngine
}

// Engine implements [port.EngineProvider].
func (p *EngineProvider) Engine(ctx context.Context, name string) (model.Server, port.SearchEngine, error) {
	engine, exists := p.engines[name]
	if !exists {
		return model.Server{}, nil, errors.Wrapf(port.ErrNotFound, "server '%s'", name)
	}

	return p.servers[name], engine, nil
}

// Servers implements [port.EngineProvider].
func (p *EngineProvider) Servers(ctx context.Context) ([]model.Server, error) {
	servers := make([]model.Server, 0, len(p.servers))
	for _, s := range p.servers {
		servers = append(servers, s)
	}

	return servers, nil
}

// NewEngineProvider serves a single server named after [ServerName].
func NewEngineProvider(server model.Server, engine port.SearchEngine) *EngineProvider {
	server.Name = ServerName

	return &EngineProvider{
		servers: map[string]model.Server{ServerName: server},
		engines: map[string]port.SearchEngine{ServerName: engine},
	}
}

func NewServer() model.Server {
	return model.NewServer(ServerName, &url.URL{Scheme: "memory"})
}

var _ port.EngineProvider = &EngineProvider{}

// Reader generates dated documents. Documents whose position is listed in
// Malformed are reported as document errors.
type Reader struct {
	Total     int
	Malformed []int
	// Documents are spread over the days following Start
	Start time.Time
	// Fail ends the sequence with an error after this many documents when positive
	Fail int
	// Block is closed to let the reader produce its documents
	Block chan struct{}
}

// Sources implements [port.Reader].
func (r *Reader) Sources(ctx context.Context, minDate time.Time, maxDate time.Time) ([]model.SourceRef, error) {
	return []model.SourceRef{{Path: "/generated.jsonl", Date: r.Start}}, nil
}

// Documents implements [port.Reader].
func (r *Reader) Documents(ctx context.Context, sources []model.SourceRef) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		if r.Block != nil {
			select {
			case <-r.Block:
			case <-ctx.Done():
				yield(model.Document{}, errors.WithStack(ctx.Err()))
				return
			}
		}

		for i := 0; i < r.Total; i++ {
			if r.Fail > 0 && i == r.Fail {
				yield(model.Document{}, errors.New("source is unreadable"))
				return
			}

			if slices.Contains(r.Malformed, i) {
				if !yield(model.Document{}, &port.DocumentError{Source: "/generated.jsonl", Line: i + 1, Err: errors.New("unexpected end of JSON input")}) {
					return
				}
				continue
			}

			date := r.Start.AddDate(0, 0, i%365)
			id := fmt.Sprintf("doc-%d", i)

			body, err := json.Marshal(map[string]any{
				"id":    id,
				"date":  date.Format(time.DateOnly),
				"title": fmt.Sprintf("Document #%d", i),
			})
			if err != nil {
				yield(model.Document{}, errors.WithStack(err))
				return
			}

			if !yield(model.Document{ID: id, Date: date, Body: body}, nil) {
				return
			}
		}
	}
}

var _ port.Reader = &Reader{}

type ReaderProvider struct {
	mutex   sync.Mutex
	readers map[model.CorpusName]port.Reader
}

func (p *ReaderProvider) Set(corpus model.CorpusName, reader port.Reader) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.readers[corpus] = reader
}

// Reader implements [port.ReaderProvider].
func (p *ReaderProvider) Reader(ctx context.Context, corpus *model.Corpus) (port.Reader, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	reader, exists := p.readers[corpus.Name]
	if !exists {
		return nil, errors.Wrapf(port.ErrNotFound, "no reader for corpus '%s'", corpus.Name)
	}

	return reader, nil
}

func NewReaderProvider() *ReaderProvider {
	return &ReaderProvider{
		readers: map[model.CorpusName]port.Reader{},
	}
}

var _ port.ReaderProvider = &ReaderProvider{}

// Env gathers an in-memory job manager and its dependencies.
type Env struct {
	Corpora *CorpusStore
	Engine  *memory.Engine
	Engines *EngineProvider
	Readers *ReaderProvider
	Jobs    *memory.JobStore
	// Store is the job store given to the manager, Jobs unless wrapped
	Store    port.JobStore
	Queue    *memory.ChainQueue
	Locker   *memory.Locker
	Handlers map[model.TaskKind]port.TaskHandler
	Manager  *service.JobManager
}

type EnvOptionFunc func(env *Env)

// WithHandler replaces the handler of a task kind.
func WithHandler(kind model.TaskKind, handler port.TaskHandler) EnvOptionFunc {
	return func(env *Env) {
		env.Handlers[kind] = handler
	}
}

func WithServer(server model.Server) EnvOptionFunc {
	return func(env *Env) {
		server.Name = ServerName
		env.Engines.servers[ServerName] = server
	}
}

// WithEngine replaces the search engine of the default server.
func WithEngine(engine port.SearchEngine) EnvOptionFunc {
	return func(env *Env) {
		env.Engines.engines[ServerName] = engine
	}
}

// WithJobStore wraps the job store used by the manager. Task handlers keep
// using the in-memory store.
func WithJobStore(wrap func(store port.JobStore) port.JobStore) EnvOptionFunc {
	return func(env *Env) {
		env.Store = wrap(env.Store)
	}
}

// NewEnv creates an environment whose queue is consumed until the end of the test.
func NewEnv(t *testing.T, funcs ...EnvOptionFunc) *Env {
	t.Helper()

	engine := memory.NewEngine()

	env := &Env{
		Corpora: NewCorpusStore(),
		Engine:  engine,
		Engines: NewEngineProvider(NewServer(), engine),
		Readers: NewReaderProvider(),
		Jobs:    memory.NewJobStore(),
		Queue:   memory.NewChainQueue(2),
		Locker:  memory.NewLocker(),
	}

	env.Store = env.Jobs
	env.Handlers = index.Handlers(env.Corpora, env.Engines, env.Readers, env.Jobs)

	for _, fn := range funcs {
		fn(env)
	}

	resolver := service.NewResolver(env.Engines)
	planner := service.NewPlanner(env.Corpora, env.Engines, env.Store, resolver)

	env.Manager = service.NewJobManager(
		planner, env.Store, env.Corpora, env.Engines, env.Queue, env.Locker, env.Handlers,
		service.WithJobManagerPollInterval(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = env.Manager.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return env
}

// Wait blocks until the job is terminal or fails the test after 10 seconds.
func (e *Env) Wait(t *testing.T, id model.JobID) *model.IndexJob {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job, err := e.Manager.WaitJob(ctx, id)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return job
}
