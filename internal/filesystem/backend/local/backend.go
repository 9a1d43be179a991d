package local

import (
	"context"
	"os"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Backend struct {
	basePath string
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	info, err := os.Stat(b.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s'", b.basePath)
		}

		return errors.WithStack(err)
	}

	if !info.IsDir() {
		return errors.Errorf("'%s' is not a directory", b.basePath)
	}

	fs := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), b.basePath))

	if err := fn(ctx, fs); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(basePath string) *Backend {
	return &Backend{
		basePath: basePath,
	}
}

var _ filesystem.Backend = &Backend{}
