package minio

import (
	"context"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Backend struct {
	basePath string
	bucket   string
	client   *minio.Client
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return errors.Wrapf(err, "could not check bucket '%s'", b.bucket)
	}

	if !exists {
		return errors.Wrapf(filesystem.ErrRootNotFound, "bucket '%s'", b.bucket)
	}

	var fs afero.Fs = afero.NewReadOnlyFs(NewFs(ctx, b.client, b.bucket))

	if b.basePath != "/" {
		fs = afero.NewBasePathFs(fs, b.basePath)
	}

	if err := fn(ctx, fs); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(client *minio.Client, bucket string, basePath string) *Backend {
	return &Backend{
		bucket:   bucket,
		client:   client,
		basePath: "/" + strings.Trim(basePath, "/"),
	}
}

var _ filesystem.Backend = &Backend{}
