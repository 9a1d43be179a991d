package sftp

import (
	"context"
	"log/slog"
	"net"
	"os"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"github.com/spf13/afero/sftpfs"
	"golang.org/x/crypto/ssh"
)

type Backend struct {
	addr     string
	basePath string
	config   *ssh.ClientConfig
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	dialer := net.Dialer{Timeout: b.config.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return errors.Wrapf(err, "could not reach sftp server '%s'", b.addr)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, b.addr, b.config)
	if err != nil {
		conn.Close()
		return errors.Wrapf(err, "could not open ssh session on '%s'", b.addr)
	}

	sshClient := ssh.NewClient(sshConn, chans, reqs)

	defer func() {
		if err := sshClient.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.ErrorContext(ctx, "could not close ssh connection", slog.Any("error", errors.WithStack(err)))
		}
	}()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err := sftpClient.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.ErrorContext(ctx, "could not close sftp connection", slog.Any("error", errors.WithStack(err)))
		}
	}()

	if b.basePath != "" {
		info, err := sftpClient.Stat(b.basePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s'", b.basePath)
			}

			return errors.WithStack(err)
		}

		if !info.IsDir() {
			return errors.Errorf("'%s' is not a directory", b.basePath)
		}
	}

	var fs afero.Fs = sftpfs.New(sftpClient)

	if b.basePath != "" {
		fs = afero.NewBasePathFs(fs, b.basePath)
	}

	if err := fn(ctx, afero.NewReadOnlyFs(fs)); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func New(addr string, basePath string, config *ssh.ClientConfig) *Backend {
	return &Backend{
		addr:     addr,
		config:   config,
		basePath: basePath,
	}
}

var _ filesystem.Backend = &Backend{}
