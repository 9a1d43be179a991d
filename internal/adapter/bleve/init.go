package bleve

import (
	"net/url"
	"path/filepath"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/setup"
	"github.com/pkg/errors"
)

// Scheme selects an embedded engine, ie "bleve:///var/lib/indices". "bleve://"
// keeps the indices in memory.
const Scheme = "bleve"

func init() {
	setup.SearchEngine.Register(Scheme, func(u *url.URL) (port.SearchEngine, error) {
		root := filepath.Join(u.Host, u.Path)

		engine, err := NewEngine(root)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return engine, nil
	})
}
