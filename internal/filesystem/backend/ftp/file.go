package ftp

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// File is a read only ftp entry. Its content is retrieved on first read.
type File struct {
	withConn withConnFunc
	name     string
	info     *FileInfo

	readOnce sync.Once
	readErr  error
	reader   *bytes.Reader

	entries   []os.FileInfo
	dirOffset int
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.info, nil
}

func (f *File) Close() error {
	f.reader = nil
	f.entries = nil
	return nil
}

// Read implements [afero.File].
func (f *File) Read(p []byte) (int, error) {
	reader, err := f.open()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return reader.Read(p)
}

// ReadAt implements [afero.File].
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	reader, err := f.open()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return reader.ReadAt(p, off)
}

// Seek implements [afero.File].
func (f *File) Seek(offset int64, whence int) (int64, error) {
	reader, err := f.open()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return reader.Seek(offset, whence)
}

// Readdir implements [afero.File].
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.info.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: f.name, Err: syscall.ENOTDIR}
	}

	if f.entries == nil {
		err := f.withConn(func(conn *ftp.ServerConn) error {
			entries, err := conn.List(remotePath(f.name))
			if err != nil {
				return errors.WithStack(err)
			}

			f.entries = make([]os.FileInfo, 0, len(entries))
			for _, entry := range entries {
				if entry.Name == "." || entry.Name == ".." {
					continue
				}

				f.entries = append(f.entries, &FileInfo{entry})
			}

			return nil
		})
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	remaining := f.entries[f.dirOffset:]

	if count <= 0 {
		f.dirOffset = len(f.entries)
		return remaining, nil
	}

	if len(remaining) == 0 {
		return nil, io.EOF
	}

	count = min(count, len(remaining))
	f.dirOffset += count

	return remaining[:count], nil
}

// Readdirnames implements [afero.File].
func (f *File) Readdirnames(n int) ([]string, error) {
	infos, err := f.Readdir(n)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}

	return names, nil
}

func (f *File) Sync() error {
	return nil
}

func (f *File) Truncate(size int64) error {
	return syscall.EPERM
}

func (f *File) Write(p []byte) (int, error) {
	return 0, syscall.EPERM
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	return 0, syscall.EPERM
}

func (f *File) WriteString(s string) (int, error) {
	return 0, syscall.EPERM
}

func (f *File) open() (*bytes.Reader, error) {
	if f.info.IsDir() {
		return nil, &os.PathError{Op: "read", Path: f.name, Err: syscall.EISDIR}
	}

	f.readOnce.Do(func() {
		f.readErr = f.withConn(func(conn *ftp.ServerConn) error {
			res, err := conn.Retr(remotePath(f.name))
			if err != nil {
				return errors.WithStack(err)
			}

			defer func() {
				if err := res.Close(); err != nil {
					slog.Error("could not close ftp response", slog.Any("error", errors.WithStack(err)))
				}
			}()

			data, err := io.ReadAll(res)
			if err != nil {
				return errors.WithStack(err)
			}

			f.reader = bytes.NewReader(data)

			return nil
		})
	})
	if f.readErr != nil {
		return nil, errors.WithStack(f.readErr)
	}

	if f.reader == nil {
		return nil, errors.WithStack(os.ErrClosed)
	}

	return f.reader, nil
}

var _ afero.File = &File{}
