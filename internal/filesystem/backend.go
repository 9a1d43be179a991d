package filesystem

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrRootNotFound is returned when the root of a backend, a directory or a
// bucket, does not exist.
var ErrRootNotFound = errors.New("backend root not found")

// MountFunc receives a read only view of the backend files.
type MountFunc func(ctx context.Context, fs afero.Fs) error

// Backend gives access to the files of a corpus source or of the corpus
// definitions.
type Backend interface {
	Mount(ctx context.Context, fn MountFunc) error
}
