package memory

import (
	"context"
	"encoding/json"
	"maps"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/adapter/querydsl"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

type memoryIndex struct {
	settings  map[string]any
	mappings  map[string]any
	documents map[string]json.RawMessage
}

// Engine is a search engine keeping its indices in memory. It does not search,
// it only honors the index lifecycle operations.
type Engine struct {
	mutex   sync.RWMutex
	indices map[string]*memoryIndex
	aliases map[string]map[string]struct{}
}

// CreateIndex implements [port.SearchEngine].
func (e *Engine) CreateIndex(ctx context.Context, name string, definition port.IndexDefinition) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if _, exists := e.indices[name]; exists {
		return errors.Wrapf(port.ErrIndexExists, "index '%s'", name)
	}

	if _, exists := e.aliases[name]; exists {
		return errors.Errorf("'%s' is already used as an alias", name)
	}

	e.indices[name] = &memoryIndex{
		settings:  maps.Clone(definition.Settings),
		mappings:  maps.Clone(definition.Mappings),
		documents: map[string]json.RawMessage{},
	}

	return nil
}

// DeleteIndex implements [port.SearchEngine].
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	delete(e.indices, name)

	for alias, indices := range e.aliases {
		delete(indices, name)
		if len(indices) == 0 {
			delete(e.aliases, alias)
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
func (e *Engine) Bulk(ctx context.Context, index string, documents []model.Document) ([]port.BulkItemResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	idx, exists := e.indices[index]
	if !exists {
		return nil, errors.Wrapf(port.ErrNotFound, "index '%s'", index)
	}

	results := make([]port.BulkItemResult, 0, len(documents))

	for _, doc := range documents {
		id := doc.ID
		if id == "" {
			id = xid.New().String()
		}

		if !json.Valid(doc.Body) {
			results = append(results, port.BulkItemResult{
				DocumentID: id,
				Reason:     "document body is not valid json",
			})
			continue
		}

		idx.documents[id] = slices.Clone(doc.Body)

		results = append(results, port.BulkItemResult{
			DocumentID: id,
			Success:    true,
		})
	}

	return results, nil
}

// UpdateByQuery implements [port.SearchEngine]. The script source is not
// interpreted: its params are merged into the matching documents. The script
// query is evaluated with [querydsl.Match].
func (e *Engine) UpdateByQuery(ctx context.Context, index string, req port.UpdateByQueryRequest) (int64, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	idx, exists := e.indices[index]
	if !exists {
		return 0, errors.Wrapf(port.ErrNotFound, "index '%s'", index)
	}

	var updated int64

	for id, body := range idx.documents {
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			return updated, errors.Wrapf(err, "could not decode document '%s'", id)
		}

		if !inDateRange(doc, req.DateField, req.StartDate, req.EndDate) {
			continue
		}

		matched, err := querydsl.Match(doc, req.Script.Query)
		if err != nil {
			return updated, errors.Wrap(err, "could not evaluate update query")
		}

		if !matched {
			continue
		}

		maps.Copy(doc, req.Script.Params)

		patched, err := json.Marshal(doc)
		if err != nil {
			return updated, errors.WithStack(err)
		}

		idx.documents[id] = patched
		updated++
	}

	return updated, nil
}

func inDateRange(doc map[string]any, field string, start *time.Time, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}

	raw, ok := doc[field].(string)
	if !ok {
		return false
	}

	date, err := parseDate(raw)
	if err != nil {
		return false
	}

	if start != nil && date.Before(*start) {
		return false
	}

	if end != nil && !date.Before(end.AddDate(0, 0, 1)) {
		return false
	}

	return true
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}

	return time.Time{}, errors.Errorf("unexpected date format '%s'", raw)
}

// PutAlias implements [port.SearchEngine].
func (e *Engine) PutAlias(ctx context.Context, index string, alias string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if _, exists := e.indices[index]; !exists {
		return errors.Wrapf(port.ErrNotFound, "index '%s'", index)
	}

	if _, exists := e.indices[alias]; exists {
		return errors.Errorf("alias '%s' conflicts with an existing index", alias)
	}

	indices, exists := e.aliases[alias]
	if !exists {
		indices = map[string]struct{}{}
		e.aliases[alias] = indices
	}

	indices[index] = struct{}{}

	return nil
}

// DeleteAlias implements [port.SearchEngine].
func (e *Engine) DeleteAlias(ctx context.Context, index string, alias string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	indices, exists := e.aliases[alias]
	if !exists {
		return nil
	}

	delete(indices, index)

	if len(indices) == 0 {
		delete(e.aliases, alias)
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

	names := slices.Sorted(maps.Keys(e.aliases[alias]))
	if names == nil {
		names = []string{}
	}

	return names, nil
}

// PutSettings implements [port.SearchEngine].
func (e *Engine) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	idx, exists := e.indices[index]
	if !exists {
		return errors.Wrapf(port.ErrNotFound, "index '%s'", index)
	}

	if idx.settings == nil {
		idx.settings = map[string]any{}
	}

	maps.Copy(idx.settings, settings)

	return nil
}

// WaitForHealth implements [port.SearchEngine].
func (e *Engine) WaitForHealth(ctx context.Context, status port.HealthStatus, timeout time.Duration) error {
	return nil
}

// CountDocuments implements [port.SearchEngine].
func (e *Engine) CountDocuments(ctx context.Context, index string) (int64, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	idx, exists := e.indices[index]
	if !exists {
		return 0, errors.Wrapf(port.ErrNotFound, "index '%s'", index)
	}

	return int64(len(idx.documents)), nil
}

// Settings returns a copy of the current settings of an index.
func (e *Engine) Settings(index string) (map[string]any, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	idx, exists := e.indices[index]
	if !exists {
		return nil, false
	}

	return maps.Clone(idx.settings), true
}

// Document returns the stored body of a document.
func (e *Engine) Document(index string, id string) (json.RawMessage, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	idx, exists := e.indices[index]
	if !exists {
		return nil, false
	}

	body, exists := idx.documents[id]

	return body, exists
}

func NewEngine() *Engine {
	return &Engine{
		indices: map[string]*memoryIndex{},
		aliases: map[string]map[string]struct{}{},
	}
}

var _ port.SearchEngine = &Engine{}
