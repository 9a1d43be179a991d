package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/pkg/errors"
)

// Engine is a client of an Elasticsearch cluster.
type Engine struct {
	client  *elasticsearch.Client
	timeout time.Duration
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, e.timeout)
}

// CreateIndex implements [port.SearchEngine].
func (e *Engine) CreateIndex(ctx context.Context, name string, definition port.IndexDefinition) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(definition)
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := e.client.Indices.Create(
		name,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil {
		return errors.Wrapf(err, "could not create index '%s'", name)
	}

	return nil
}

// DeleteIndex implements [port.SearchEngine].
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.Delete(
		[]string{name},
		e.client.Indices.Delete.WithContext(ctx),
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil && !errors.Is(err, port.ErrNotFound) {
		return errors.Wrapf(err, "could not delete index '%s'", name)
	}

	return nil
}

// IndexExists implements [port.SearchEngine].
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.Exists(
		[]string{name},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, errors.WithStack(err)
	}

	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.WithStack(checkResponse(res))
	}
}

type bulkAction struct {
	Index struct {
		ID string `json:"_id,omitempty"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk implements [port.SearchEngine].
func (e *Engine) Bulk(ctx context.Context, index string, documents []model.Document) ([]port.BulkItemResult, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	results := make([]port.BulkItemResult, len(documents))
	sent := make([]int, 0, len(documents))

	var buff bytes.Buffer

	for i, doc := range documents {
		results[i].DocumentID = doc.ID

		if !json.Valid(doc.Body) {
			results[i].Reason = "document body is not valid json"
			continue
		}

		var action bulkAction
		action.Index.ID = doc.ID

		if err := json.NewEncoder(&buff).Encode(action); err != nil {
			return nil, errors.WithStack(err)
		}

		// Bulk bodies are newline delimited
		if err := json.Compact(&buff, doc.Body); err != nil {
			return nil, errors.WithStack(err)
		}

		buff.WriteByte('\n')

		sent = append(sent, i)
	}

	if len(sent) == 0 {
		return results, nil
	}

	res, err := e.client.Bulk(
		&buff,
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(index),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var payload bulkResponse
	if err := decodeResponse(res, &payload); err != nil {
		return nil, errors.Wrapf(err, "could not index chunk in '%s'", index)
	}

	if len(payload.Items) != len(sent) {
		return nil, errors.Errorf("unexpected bulk response: %d items for %d documents", len(payload.Items), len(sent))
	}

	for i, item := range payload.Items {
		result := &results[sent[i]]

		for _, status := range item {
			result.DocumentID = status.ID

			if status.Error != nil {
				result.Reason = status.Error.Type + ": " + status.Error.Reason
				continue
			}

			result.Success = status.Status >= 200 && status.Status < 300
		}
	}

	return results, nil
}

type updateByQueryResponse struct {
	Updated  int64             `json:"updated"`
	Failures []json.RawMessage `json:"failures"`
}

// UpdateByQuery implements [port.SearchEngine].
func (e *Engine) UpdateByQuery(ctx context.Context, index string, req port.UpdateByQueryRequest) (int64, error) {
	filters := make([]any, 0, 2)

	if req.StartDate != nil || req.EndDate != nil {
		dateRange := map[string]any{
			"format": "strict_date_optional_time",
		}

		if req.StartDate != nil {
			dateRange["gte"] = req.StartDate.Format(time.RFC3339)
		}

		// End day is inclusive
		if req.EndDate != nil {
			dateRange["lt"] = req.EndDate.AddDate(0, 0, 1).Format(time.RFC3339)
		}

		filters = append(filters, map[string]any{
			"range": map[string]any{req.DateField: dateRange},
		})
	}

	if req.Script.Query != nil {
		filters = append(filters, req.Script.Query)
	}

	script := map[string]any{
		"source": req.Script.Source,
	}

	if req.Script.Lang != "" {
		script["lang"] = req.Script.Lang
	}

	if len(req.Script.Params) > 0 {
		script["params"] = req.Script.Params
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(filters) > 0 {
		query = map[string]any{
			"bool": map[string]any{"filter": filters},
		}
	}

	body, err := json.Marshal(map[string]any{
		"query":  query,
		"script": script,
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	if err := e.refresh(ctx, index); err != nil {
		return 0, errors.WithStack(err)
	}

	// Update by query runs as long as the index is large, the request timeout
	// does not apply
	res, err := e.client.UpdateByQuery(
		[]string{index},
		e.client.UpdateByQuery.WithContext(ctx),
		e.client.UpdateByQuery.WithBody(bytes.NewReader(body)),
		e.client.UpdateByQuery.WithConflicts("proceed"),
		e.client.UpdateByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var payload updateByQueryResponse
	if err := decodeResponse(res, &payload); err != nil {
		return 0, errors.Wrapf(err, "could not update documents of index '%s'", index)
	}

	if len(payload.Failures) > 0 {
		slog.WarnContext(ctx, "update by query reported failures", slog.String("index", index), slog.Int("failures", len(payload.Failures)))

		return payload.Updated, errors.Errorf("%d documents of index '%s' could not be updated: %s", len(payload.Failures), index, payload.Failures[0])
	}

	return payload.Updated, nil
}

// PutAlias implements [port.SearchEngine].
func (e *Engine) PutAlias(ctx context.Context, index string, alias string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.PutAlias(
		[]string{index},
		alias,
		e.client.Indices.PutAlias.WithContext(ctx),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil {
		return errors.Wrapf(err, "could not add alias '%s' to index '%s'", alias, index)
	}

	return nil
}

// DeleteAlias implements [port.SearchEngine].
func (e *Engine) DeleteAlias(ctx context.Context, index string, alias string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.DeleteAlias(
		[]string{index},
		[]string{alias},
		e.client.Indices.DeleteAlias.WithContext(ctx),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil && !errors.Is(err, port.ErrNotFound) {
		return errors.Wrapf(err, "could not remove alias '%s' from index '%s'", alias, index)
	}

	return nil
}

// GetIndices implements [port.SearchEngine].
func (e *Engine) GetIndices(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Cat.Indices(
		e.client.Cat.Indices.WithContext(ctx),
		e.client.Cat.Indices.WithIndex(pattern),
		e.client.Cat.Indices.WithFormat("json"),
		e.client.Cat.Indices.WithH("index"),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var payload []struct {
		Index string `json:"index"`
	}

	if err := decodeResponse(res, &payload); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return []string{}, nil
		}

		return nil, errors.Wrapf(err, "could not list indices matching '%s'", pattern)
	}

	names := make([]string, 0, len(payload))
	for _, p := range payload {
		// Hidden indices are never corpus indices
		if strings.HasPrefix(p.Index, ".") {
			continue
		}

		names = append(names, p.Index)
	}

	slices.Sort(names)

	return names, nil
}

// GetAlias implements [port.SearchEngine].
func (e *Engine) GetAlias(ctx context.Context, alias string) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.GetAlias(
		e.client.Indices.GetAlias.WithContext(ctx),
		e.client.Indices.GetAlias.WithName(alias),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	payload := map[string]json.RawMessage{}

	if err := decodeResponse(res, &payload); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return []string{}, nil
		}

		return nil, errors.Wrapf(err, "could not retrieve alias '%s'", alias)
	}

	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

// PutSettings implements [port.SearchEngine].
func (e *Engine) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(map[string]any{"index": settings})
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := e.client.Indices.PutSettings(
		bytes.NewReader(body),
		e.client.Indices.PutSettings.WithContext(ctx),
		e.client.Indices.PutSettings.WithIndex(index),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil {
		return errors.Wrapf(err, "could not update settings of index '%s'", index)
	}

	return nil
}

// WaitForHealth implements [port.SearchEngine].
func (e *Engine) WaitForHealth(ctx context.Context, status port.HealthStatus, timeout time.Duration) error {
	res, err := e.client.Cluster.Health(
		e.client.Cluster.Health.WithContext(ctx),
		e.client.Cluster.Health.WithWaitForStatus(string(status)),
		e.client.Cluster.Health.WithTimeout(timeout),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	var payload struct {
		Status   string `json:"status"`
		TimedOut bool   `json:"timed_out"`
	}

	defer res.Body.Close()

	// Timed out requests are answered with a 408 status and a regular body
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusRequestTimeout {
		if err := checkResponse(res); err != nil {
			return errors.Wrap(err, "could not retrieve cluster health")
		}

		return errors.Errorf("could not retrieve cluster health: unexpected status code %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return errors.Wrap(err, "could not decode cluster health")
	}

	if payload.TimedOut || healthRank(port.HealthStatus(payload.Status)) < healthRank(status) {
		return errors.Errorf("cluster did not reach status '%s' within %s, current status is '%s'", status, timeout, payload.Status)
	}

	return nil
}

func healthRank(status port.HealthStatus) int {
	switch status {
	case port.HealthGreen:
		return 3
	case port.HealthYellow:
		return 2
	case port.HealthRed:
		return 1
	default:
		return 0
	}
}

// CountDocuments implements [port.SearchEngine].
func (e *Engine) CountDocuments(ctx context.Context, index string) (int64, error) {
	if err := e.refresh(ctx, index); err != nil {
		return 0, errors.WithStack(err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Count(
		e.client.Count.WithContext(ctx),
		e.client.Count.WithIndex(index),
	)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var payload struct {
		Count int64 `json:"count"`
	}

	if err := decodeResponse(res, &payload); err != nil {
		return 0, errors.Wrapf(err, "could not count documents of index '%s'", index)
	}

	return payload.Count, nil
}

func (e *Engine) refresh(ctx context.Context, index string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.client.Indices.Refresh(
		e.client.Indices.Refresh.WithContext(ctx),
		e.client.Indices.Refresh.WithIndex(index),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := decodeResponse(res, nil); err != nil {
		return errors.Wrapf(err, "could not refresh index '%s'", index)
	}

	return nil
}

func NewEngine(client *elasticsearch.Client, timeout time.Duration) *Engine {
	return &Engine{
		client:  client,
		timeout: timeout,
	}
}

var _ port.SearchEngine = &Engine{}
