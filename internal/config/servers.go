package config

import "time"

// Servers maps search engine server names to their URI, ie
// "default=elasticsearch://localhost:9200?chunkSize=500,local=bleve:///var/lib/indexer"
type Servers struct {
	URIs map[string]string `env:"SERVERS,expand" envDefault:"default=memory://" envKeyValSeparator:"="`
}

type Corpora struct {
	// Filesystem URI of the directory holding the corpus definitions
	URI       string        `env:"URI,expand" envDefault:"local://corpora"`
	CacheTTL  time.Duration `env:"CACHE_TTL,expand" envDefault:"1m"`
	CacheSize int           `env:"CACHE_SIZE,expand" envDefault:"256"`
}

type Queue struct {
	URI string `env:"URI,expand" envDefault:"memory://?parallelism=4"`
}

type Lock struct {
	URI string `env:"URI,expand" envDefault:"memory://"`
}
