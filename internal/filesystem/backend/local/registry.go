package local

import (
	"net/url"
	"path/filepath"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
)

func init() {
	backend.RegisterBackendFactory("local", FromDSN)
}

// FromDSN accepts relative (local://data/corpora) and absolute (local:///data/corpora) paths.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	basePath := filepath.Join(dsn.Host, filepath.FromSlash(dsn.Path))
	if dsn.Host == "" {
		basePath = filepath.FromSlash(dsn.Path)
	}

	return New(basePath), nil
}
