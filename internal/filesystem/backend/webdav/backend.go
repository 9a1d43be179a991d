package webdav

import (
	"context"
	"net/http"
	"time"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"
)

type Backend struct {
	url    string
	config *Config
}

type Config struct {
	Username string
	Password string
	Timeout  time.Duration
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	client := gowebdav.NewAuthClient(b.url, gowebdav.NewAutoAuth(b.config.Username, b.config.Password))
	client.SetTimeout(b.config.Timeout)
	client.SetTransport(http.DefaultTransport)

	fs := NewFs(client)

	info, err := fs.Stat("/")
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return errors.Wrapf(filesystem.ErrRootNotFound, "collection '%s'", b.url)
		}

		return errors.Wrapf(err, "could not reach webdav server '%s'", b.url)
	}

	if !info.IsDir() {
		return errors.Errorf("'%s' is not a collection", b.url)
	}

	if err := fn(ctx, afero.NewReadOnlyFs(fs)); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(url string, config *Config) *Backend {
	return &Backend{
		url:    url,
		config: config,
	}
}

var _ filesystem.Backend = &Backend{}
