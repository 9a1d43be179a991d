package memory

import (
	"context"
	"sync"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	volumesMutex sync.Mutex
	volumes      = map[string]afero.Fs{}
)

// Volume returns the named in-memory file system, creating it if needed.
// Backends mounting the same name share the same files.
func Volume(name string) afero.Fs {
	volumesMutex.Lock()
	defer volumesMutex.Unlock()

	fs, exists := volumes[name]
	if !exists {
		fs = afero.NewMemMapFs()
		volumes[name] = fs
	}

	return fs
}

type Backend struct {
	fs       afero.Fs
	basePath string
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	var fs afero.Fs = afero.NewReadOnlyFs(b.fs)

	if b.basePath != "" && b.basePath != "/" {
		exists, err := afero.DirExists(b.fs, b.basePath)
		if err != nil {
			return errors.WithStack(err)
		}

		if !exists {
			return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s'", b.basePath)
		}

		fs = afero.NewBasePathFs(fs, b.basePath)
	}

	if err := fn(ctx, fs); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(fs afero.Fs, basePath string) *Backend {
	return &Backend{
		fs:       fs,
		basePath: basePath,
	}
}

var _ filesystem.Backend = &Backend{}
