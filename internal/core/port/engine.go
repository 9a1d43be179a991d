package port

import (
	"context"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
)

type HealthStatus string

const (
	HealthGreen  HealthStatus = "green"
	HealthYellow HealthStatus = "yellow"
	HealthRed    HealthStatus = "red"
)

type IndexDefinition struct {
	Settings map[string]any `json:"settings,omitempty"`
	Mappings map[string]any `json:"mappings,omitempty"`
}

type BulkItemResult struct {
	DocumentID string
	Success    bool
	// Engine provided reason of a per document failure
	Reason string
}

type UpdateByQueryRequest struct {
	Script    model.UpdateScript
	DateField string
	StartDate *time.Time
	EndDate   *time.Time
}

// SearchEngine is the client of a search engine server.
type SearchEngine interface {
	// CreateIndex fails with ErrIndexExists if the index already exists.
	CreateIndex(ctx context.Context, name string, definition IndexDefinition) error
	// DeleteIndex does not fail if the index does not exist.
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// Bulk indexes a chunk of documents. A returned error means the whole chunk
	// failed, per document failures are reported in the results.
	Bulk(ctx context.Context, index string, documents []model.Document) ([]BulkItemResult, error)
	UpdateByQuery(ctx context.Context, index string, req UpdateByQueryRequest) (int64, error)
	PutAlias(ctx context.Context, index string, alias string) error
	// DeleteAlias does not fail if the index does not carry the alias.
	DeleteAlias(ctx context.Context, index string, alias string) error
	// GetIndices lists index names matching a wildcard pattern.
	GetIndices(ctx context.Context, pattern string) ([]string, error)
	// GetAlias lists the names of the indices carrying the alias.
	GetAlias(ctx context.Context, alias string) ([]string, error)
	PutSettings(ctx context.Context, index string, settings map[string]any) error
	WaitForHealth(ctx context.Context, status HealthStatus, timeout time.Duration) error
	CountDocuments(ctx context.Context, index string) (int64, error)
}

// EngineProvider resolves a configured server and its engine client.
type EngineProvider interface {
	Engine(ctx context.Context, server string) (model.Server, SearchEngine, error)
	Servers(ctx context.Context) ([]model.Server, error)
}
