package model

import (
	"net/url"
	"time"
)

const (
	DefaultChunkSize          = 900
	DefaultMaxChunkBytes      = 1024 * 1024
	DefaultRequestTimeout     = 60 * time.Second
	DefaultHealthTimeout      = 60 * time.Second
	DefaultProductionShards   = 5
	DefaultProductionReplicas = 0
	DefaultReplicas           = 1
)

// Server is a named connection target for a search engine. It is built once from
// configuration and never mutated afterwards.
type Server struct {
	Name string
	URL  *url.URL

	// Bulk chunking
	ChunkSize          int
	MaxChunkBytes      int
	MaxChunksPerSecond float64

	RequestTimeout time.Duration
	HealthTimeout  time.Duration

	// Shards and replicas used while bulk loading a production index
	ProductionShards   int
	ProductionReplicas int
	// Replicas restored once a production index is populated
	Replicas int
}

func NewServer(name string, u *url.URL) Server {
	return Server{
		Name:               name,
		URL:                u,
		ChunkSize:          DefaultChunkSize,
		MaxChunkBytes:      DefaultMaxChunkBytes,
		RequestTimeout:     DefaultRequestTimeout,
		HealthTimeout:      DefaultHealthTimeout,
		ProductionShards:   DefaultProductionShards,
		ProductionReplicas: DefaultProductionReplicas,
		Replicas:           DefaultReplicas,
	}
}
