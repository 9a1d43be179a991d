package ftp

import (
	"context"
	"log/slog"
	"os"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Backend struct {
	addr     string
	basePath string
	username string
	password string
	options  []ftp.DialOption
}

// Mount implements [filesystem.Backend]. Every operation on the mounted
// files opens its own control connection.
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	withConn := func(fn func(*ftp.ServerConn) error) error {
		options := append([]ftp.DialOption{
			ftp.DialWithContext(ctx),
		}, b.options...)

		conn, err := ftp.Dial(b.addr, options...)
		if err != nil {
			return errors.Wrapf(err, "could not reach ftp server '%s'", b.addr)
		}

		defer func() {
			if err := conn.Quit(); err != nil {
				slog.ErrorContext(ctx, "could not quit ftp server", slog.Any("error", errors.WithStack(err)))
			}
		}()

		if err := conn.Login(b.username, b.password); err != nil {
			return errors.Wrap(err, "could not login on ftp server")
		}

		return fn(conn)
	}

	var fs afero.Fs = NewFs(withConn)

	if b.basePath != "" {
		info, err := fs.Stat(b.basePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s'", b.basePath)
			}

			return errors.WithStack(err)
		}

		if !info.IsDir() {
			return errors.Errorf("'%s' is not a directory", b.basePath)
		}

		fs = afero.NewBasePathFs(fs, b.basePath)
	}

	if err := fn(ctx, afero.NewReadOnlyFs(fs)); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(addr string, basePath string, username, password string, options ...ftp.DialOption) *Backend {
	return &Backend{
		addr:     addr,
		basePath: basePath,
		username: username,
		password: password,
		options:  options,
	}
}

var _ filesystem.Backend = &Backend{}
