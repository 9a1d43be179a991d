package memory

import (
	"net/url"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
)

func init() {
	backend.RegisterBackendFactory("memory", FromDSN)
}

// FromDSN mounts memory://<volume>/<path>.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	return New(Volume(dsn.Host), dsn.Path), nil
}
