package smb

import (
	"context"
	"log/slog"
	"net"
	"os"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/hirochachacha/go-smb2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Backend struct {
	addr     string
	basePath string
	config   *Config
}

type Config struct {
	Initiator smb2.Initiator
	ShareName string
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return errors.Wrapf(err, "could not reach smb server '%s'", b.addr)
	}

	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.ErrorContext(ctx, "could not close smb connection", slog.Any("error", errors.WithStack(err)))
		}
	}()

	smbDialer := &smb2.Dialer{
		Initiator: b.config.Initiator,
	}

	session, err := smbDialer.DialContext(ctx, conn)
	if err != nil {
		return errors.Wrap(err, "could not open smb session")
	}

	defer func() {
		if err := session.Logoff(); err != nil {
			var contextErr *smb2.ContextError
			if errors.As(err, &contextErr) {
				return
			}

			slog.ErrorContext(ctx, "could not logoff smb session", slog.Any("error", errors.WithStack(err)))
		}
	}()

	share, err := session.Mount(b.config.ShareName)
	if err != nil {
		return errors.Wrapf(err, "could not mount share '%s'", b.config.ShareName)
	}

	share = share.WithContext(ctx)

	defer func() {
		if err := share.Umount(); err != nil {
			slog.ErrorContext(ctx, "could not unmount smb share", slog.Any("error", errors.WithStack(err)))
		}
	}()

	var fs afero.Fs = NewFs(share)

	if b.basePath != "" {
		info, err := fs.Stat(b.basePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s' of share '%s'", b.basePath, b.config.ShareName)
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

func New(addr string, basePath string, config *Config) *Backend {
	return &Backend{
		addr:     addr,
		basePath: basePath,
		config:   config,
	}
}

var _ filesystem.Backend = &Backend{}
