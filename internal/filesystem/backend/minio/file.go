package minio

import (
	"io"
	"os"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// File is either an object opened for reading or a directory.
type File struct {
	fs     *Fs
	key    string
	name   string
	info   *FileInfo
	object *minio.Object

	entries []os.FileInfo
	listed  bool
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.info, nil
}

func (f *File) Close() error {
	if f.object == nil {
		return nil
	}

	return errors.WithStack(f.object.Close())
}

func (f *File) Read(p []byte) (int, error) {
	if f.object == nil {
		return 0, syscall.EISDIR
	}

	return f.object.Read(p)
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.object == nil {
		return 0, syscall.EISDIR
	}

	return f.object.ReadAt(p, off)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.object == nil {
		return 0, syscall.EISDIR
	}

	return f.object.Seek(offset, whence)
}

// Readdir implements [afero.File]. Entries are listed once per opened directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.info.IsDir() {
		return nil, syscall.ENOTDIR
	}

	if !f.listed {
		entries, err := f.fs.list(f.key)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		f.entries = entries
		f.listed = true
	}

	if count <= 0 {
		entries := f.entries
		f.entries = nil
		return entries, nil
	}

	if len(f.entries) == 0 {
		return nil, io.EOF
	}

	n := min(count, len(f.entries))
	entries := f.entries[:n]
	f.entries = f.entries[n:]

	return entries, nil
}

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

var _ afero.File = &File{}
