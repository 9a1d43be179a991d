package setup

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bornholm/corpus-indexer/internal/config"
	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

var SearchEngine = NewRegistry[port.SearchEngine]()

var getEngineProviderFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.EngineProvider, error) {
	provider, err := NewEngineProvider(conf.Servers.URIs)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return provider, nil
})

type engineEntry struct {
	server model.Server
	rawURL string
	once   sync.Once
	engine port.SearchEngine
	err    error
}

// EngineProvider creates the search engine clients of the configured servers
// on first use.
type EngineProvider struct {
	servers map[string]*engineEntry
}

// Engine implements [port.EngineProvider].
func (p *EngineProvider) Engine(ctx context.Context, name string) (model.Server, port.SearchEngine, error) {
	entry, exists := p.servers[name]
	if !exists {
		return model.Server{}, nil, errors.Wrapf(port.ErrNotFound, "server '%s' is not configured", name)
	}

	entry.once.Do(func() {
		entry.engine, entry.err = SearchEngine.From(entry.rawURL)
		if entry.err != nil {
			entry.err = errors.Wrapf(entry.err, "could not create search engine of server '%s'", name)
		}
	})

	if entry.err != nil {
		return model.Server{}, nil, errors.WithStack(entry.err)
	}

	return entry.server, entry.engine, nil
}

// Servers implements [port.EngineProvider].
func (p *EngineProvider) Servers(ctx context.Context) ([]model.Server, error) {
	servers := make([]model.Server, 0, len(p.servers))
	for _, entry := range p.servers {
		servers = append(servers, entry.server)
	}

	slices.SortFunc(servers, func(a, b model.Server) int {
		return strings.Compare(a.Name, b.Name)
	})

	return servers, nil
}

func NewEngineProvider(uris map[string]string) (*EngineProvider, error) {
	provider := &EngineProvider{
		servers: make(map[string]*engineEntry, len(uris)),
	}

	for name, rawURL := range uris {
		server, err := ParseServer(name, rawURL)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		provider.servers[name] = &engineEntry{
			server: server,
			rawURL: rawURL,
		}
	}

	return provider, nil
}

var _ port.EngineProvider = &EngineProvider{}

// ParseServer reads the bulk and lifecycle parameters of a server from the query
// of its uri, ie "elasticsearch://localhost:9200?chunkSize=500&maxChunkBytes=5MB".
func ParseServer(name string, rawURL string) (model.Server, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.Server{}, errors.Wrapf(err, "could not parse uri of server '%s'", name)
	}

	server := model.NewServer(name, u)
	query := u.Query()

	intParams := map[string]*int{
		"chunkSize":          &server.ChunkSize,
		"productionShards":   &server.ProductionShards,
		"productionReplicas": &server.ProductionReplicas,
		"replicas":           &server.Replicas,
	}

	for param, target := range intParams {
		rawValue := query.Get(param)
		if rawValue == "" {
			continue
		}

		value, err := strconv.Atoi(rawValue)
		if err != nil {
			return model.Server{}, errors.Wrapf(err, "could not parse '%s' parameter of server '%s'", param, name)
		}

		*target = value
	}

	durationParams := map[string]*time.Duration{
		"requestTimeout": &server.RequestTimeout,
		"healthTimeout":  &server.HealthTimeout,
	}

	for param, target := range durationParams {
		rawValue := query.Get(param)
		if rawValue == "" {
			continue
		}

		value, err := time.ParseDuration(rawValue)
		if err != nil {
			return model.Server{}, errors.Wrapf(err, "could not parse '%s' parameter of server '%s'", param, name)
		}

		*target = value
	}

	if rawValue := query.Get("maxChunkBytes"); rawValue != "" {
		value, err := humanize.ParseBytes(rawValue)
		if err != nil {
			return model.Server{}, errors.Wrapf(err, "could not parse 'maxChunkBytes' parameter of server '%s'", name)
		}

		server.MaxChunkBytes = int(value)
	}

	if rawValue := query.Get("maxChunksPerSecond"); rawValue != "" {
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return model.Server{}, errors.Wrapf(err, "could not parse 'maxChunksPerSecond' parameter of server '%s'", name)
		}

		server.MaxChunksPerSecond = value
	}

	if server.ChunkSize < 1 {
		return model.Server{}, errors.Errorf("invalid chunk size '%d' for server '%s'", server.ChunkSize, name)
	}

	if server.MaxChunkBytes < 1 {
		return model.Server{}, errors.Errorf("invalid max chunk bytes '%d' for server '%s'", server.MaxChunkBytes, name)
	}

	return server, nil
}
