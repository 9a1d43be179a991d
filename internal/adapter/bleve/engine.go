package bleve

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/bornholm/corpus-indexer/internal/adapter/querydsl"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

const (
	internalSettings = "_settings"
	internalAliases  = "_aliases"
)

const updateBatchSize = 100

// Engine is an embedded search engine keeping one bleve index per index name.
// Indices live in memory when no root directory is given.
type Engine struct {
	root string

	mutex   sync.RWMutex
	indices map[string]bleve.Index
}

// CreateIndex implements [port.SearchEngine].
func (e *Engine) CreateIndex(ctx context.Context, name string, definition port.IndexDefinition) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if _, exists := e.indices[name]; exists {
		return errors.Wrapf(port.ErrIndexExists, "index '%s'", name)
	}

	aliased, err := e.aliased(name)
	if err != nil {
		return errors.WithStack(err)
	}

	if len(aliased) > 0 {
		return errors.Errorf("'%s' is already used as an alias", name)
	}

	indexMapping := IndexMapping(definition.Mappings)

	var index bleve.Index
	if e.root == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		index, err = bleve.New(filepath.Join(e.root, name), indexMapping)
	}
	if err != nil {
		return errors.Wrapf(err, "could not create index '%s'", name)
	}

	settings := definition.Settings
	if settings == nil {
		settings = map[string]any{}
	}

	if err := setInternal(index, internalSettings, settings); err != nil {
		return errors.WithStack(err)
	}

	e.indices[name] = index

	slog.DebugContext(ctx, "index created", slog.String("index", name))

	return nil
}

// DeleteIndex implements [port.SearchEngine].
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	index, exists := e.indices[name]
	if !exists {
		return nil
	}

	delete(e.indices, name)

	if err := index.Close(); err != nil {
		return errors.Wrapf(err, "could not close index '%s'", name)
	}

	if e.root != "" {
		if err := os.RemoveAll(filepath.Join(e.root, name)); err != nil {
			return errors.Wrapf(err, "could not remove index '%s'", name)
		}
	}

	return nil
}

// IndexExists implements [port.SearchEngine].
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	_, exists := e.indices[name]

	return exists, nil
}

// Bulk implements [port.SearchEngine].
func (e *Engine) Bulk(ctx context.Context, name string, documents []model.Document) ([]port.BulkItemResult, error) {
	index, err := e.index(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	batch := index.NewBatch()
	results := make([]port.BulkItemResult, 0, len(documents))

	for _, doc := range documents {
		id := doc.ID
		if id == "" {
			id = xid.New().String()
		}

		var data map[string]any
		if err := json.Unmarshal(doc.Body, &data); err != nil {
			results = append(results, port.BulkItemResult{
				DocumentID: id,
				Reason:     err.Error(),
			})
			continue
		}

		data[sourceField] = string(doc.Body)

		if err := batch.Index(id, data); err != nil {
			results = append(results, port.BulkItemResult{
				DocumentID: id,
				Reason:     err.Error(),
			})
			continue
		}

		results = append(results, port.BulkItemResult{
			DocumentID: id,
			Success:    true,
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := index.Batch(batch); err != nil {
		return nil, errors.Wrapf(err, "could not index batch in '%s'", name)
	}

	return results, nil
}

// UpdateByQuery implements [port.SearchEngine]. The script source is not
// interpreted: its params are merged into the matching documents. The script
// query is evaluated against the stored sources with [querydsl.Match].
func (e *Engine) UpdateByQuery(ctx context.Context, name string, req port.UpdateByQueryRequest) (int64, error) {
	index, err := e.index(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var query bleveQuery.Query = bleve.NewMatchAllQuery()

	if req.StartDate != nil || req.EndDate != nil {
		var start, end time.Time
		if req.StartDate != nil {
			start = *req.StartDate
		}

		// End day is inclusive
		if req.EndDate != nil {
			end = req.EndDate.AddDate(0, 0, 1)
		}

		inclusive, exclusive := true, false

		dateQuery := bleve.NewDateRangeInclusiveQuery(start, end, &inclusive, &exclusive)
		dateQuery.SetField(req.DateField)

		query = dateQuery
	}

	// Matching documents are collected first as updating them while paging
	// would shift the results
	sources := map[string]string{}

	searchReq := bleve.NewSearchRequestOptions(query, updateBatchSize, 0, false)
	searchReq.Fields = []string{sourceField}
	searchReq.SortBy([]string{"_id"})

	for {
		result, err := index.SearchInContext(ctx, searchReq)
		if err != nil {
			return 0, errors.Wrapf(err, "could not search index '%s'", name)
		}

		for _, hit := range result.Hits {
			source, _ := hit.Fields[sourceField].(string)
			sources[hit.ID] = source
		}

		searchReq.From += len(result.Hits)

		if len(result.Hits) == 0 || uint64(searchReq.From) >= result.Total {
			break
		}
	}

	var updated int64

	batch := index.NewBatch()

	for _, id := range slices.Sorted(maps.Keys(sources)) {
		var data map[string]any
		if err := json.Unmarshal([]byte(sources[id]), &data); err != nil {
			return updated, errors.Wrapf(err, "could not decode document '%s'", id)
		}

		matched, err := querydsl.Match(data, req.Script.Query)
		if err != nil {
			return updated, errors.Wrap(err, "could not evaluate update query")
		}

		if !matched {
			continue
		}

		maps.Copy(data, req.Script.Params)

		body, err := json.Marshal(data)
		if err != nil {
			return updated, errors.WithStack(err)
		}

		data[sourceField] = string(body)

		if err := batch.Index(id, data); err != nil {
			return updated, errors.Wrapf(err, "could not update document '%s'", id)
		}

		if batch.Size() >= updateBatchSize {
			if err := index.Batch(batch); err != nil {
				return updated, errors.WithStack(err)
			}

			updated += int64(batch.Size())
			batch.Reset()
		}
	}

	if batch.Size() > 0 {
		size := batch.Size()

		if err := index.Batch(batch); err != nil {
			return updated, errors.WithStack(err)
		}

		updated += int64(size)
	}

	return updated, nil
}

// PutAlias implements [port.SearchEngine].
func (e *Engine) PutAlias(ctx context.Context, name string, alias string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	index, exists := e.indices[name]
	if !exists {
		return errors.Wrapf(port.ErrNotFound, "index '%s'", name)
	}

	if _, exists := e.indices[alias]; exists {
		return errors.Errorf("alias '%s' conflicts with an existing index", alias)
	}

	aliases, err := aliasesOf(index)
	if err != nil {
		return errors.WithStack(err)
	}

	if slices.Contains(aliases, alias) {
		return nil
	}

	aliases = append(aliases, alias)
	slices.Sort(aliases)

	if err := setInternal(index, internalAliases, aliases); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// DeleteAlias implements [port.SearchEngine].
func (e *Engine) DeleteAlias(ctx context.Context, name string, alias string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	index, exists := e.indices[name]
	if !exists {
		return nil
	}

	aliases, err := aliasesOf(index)
	if err != nil {
		return errors.WithStack(err)
	}

	aliases = slices.DeleteFunc(aliases, func(a string) bool { return a == alias })

	if err := setInternal(index, internalAliases, aliases); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// GetIndices implements [port.SearchEngine].
func (e *Engine) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	names := make([]string, 0)
	for name := range e.indices {
		matched, err := path.Match(pattern, name)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern '%s'", pattern)
		}

		if matched {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names, nil
}

// GetAlias implements [port.SearchEngine].
func (e *Engine) GetAlias(ctx context.Context, alias string) ([]string, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	names, err := e.aliased(alias)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return names, nil
}

// PutSettings implements [port.SearchEngine]. Settings are recorded but have
// no effect on an embedded index.
func (e *Engine) PutSettings(ctx context.Context, name string, settings map[string]any) error {
	index, err := e.index(name)
	if err != nil {
		return errors.WithStack(err)
	}

	current := map[string]any{}
	if err := getInternal(index, internalSettings, &current); err != nil {
		return errors.WithStack(err)
	}

	maps.Copy(current, settings)

	if err := setInternal(index, internalSettings, current); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// WaitForHealth implements [port.SearchEngine]. Embedded indices are always
// available.
func (e *Engine) WaitForHealth(ctx context.Context, status port.HealthStatus, timeout time.Duration) error {
	return nil
}

// CountDocuments implements [port.SearchEngine].
func (e *Engine) CountDocuments(ctx context.Context, name string) (int64, error) {
	index, err := e.index(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	count, err := index.DocCount()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return int64(count), nil
}

// Settings returns the recorded settings of an index.
func (e *Engine) Settings(name string) (map[string]any, error) {
	index, err := e.index(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	settings := map[string]any{}
	if err := getInternal(index, internalSettings, &settings); err != nil {
		return nil, errors.WithStack(err)
	}

	return settings, nil
}

func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for name, index := range e.indices {
		if err := index.Close(); err != nil {
			return errors.Wrapf(err, "could not close index '%s'", name)
		}

		delete(e.indices, name)
	}

	return nil
}

func (e *Engine) index(name string) (bleve.Index, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	index, exists := e.indices[name]
	if !exists {
		return nil, errors.Wrapf(port.ErrNotFound, "index '%s'", name)
	}

	return index, nil
}

// aliased lists the indices carrying the alias. Callers must hold the mutex.
func (e *Engine) aliased(alias string) ([]string, error) {
	names := make([]string, 0)

	for name, index := range e.indices {
		aliases, err := aliasesOf(index)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if slices.Contains(aliases, alias) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names, nil
}

func (e *Engine) open() error {
	if e.root == "" {
		return nil
	}

	if err := os.MkdirAll(e.root, 0o750); err != nil {
		return errors.WithStack(err)
	}

	entries, err := os.ReadDir(e.root)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		index, err := bleve.Open(filepath.Join(e.root, entry.Name()))
		if err != nil {
			slog.Warn("could not open index", slog.String("index", entry.Name()), slog.Any("error", errors.WithStack(err)))
			continue
		}

		e.indices[entry.Name()] = index
	}

	return nil
}

func aliasesOf(index bleve.Index) ([]string, error) {
	aliases := []string{}
	if err := getInternal(index, internalAliases, &aliases); err != nil {
		return nil, errors.WithStack(err)
	}

	return aliases, nil
}

func setInternal(index bleve.Index, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := index.SetInternal([]byte(key), data); err != nil {
		return errors.Wrapf(err, "could not store '%s'", key)
	}

	return nil
}

func getInternal(index bleve.Index, key string, value any) error {
	data, err := index.GetInternal([]byte(key))
	if err != nil {
		return errors.Wrapf(err, "could not retrieve '%s'", key)
	}

	if data == nil {
		return nil
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// NewEngine opens the indices stored under root. An empty root keeps every
// index in memory.
func NewEngine(root string) (*Engine, error) {
	engine := &Engine{
		root:    root,
		indices: map[string]bleve.Index{},
	}

	if err := engine.open(); err != nil {
		return nil, errors.WithStack(err)
	}

	return engine, nil
}

var _ port.SearchEngine = &Engine{}
