package webdav

import (
	"os"
	"path"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"
)

// Fs is a read only view of a webdav collection.
type Fs struct {
	client *gowebdav.Client
}

func (f *Fs) Chmod(name string, mode os.FileMode) error {
	return syscall.EPERM
}

func (f *Fs) Chown(name string, uid int, gid int) error {
	return syscall.EPERM
}

func (f *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return syscall.EPERM
}

func (f *Fs) Create(name string) (afero.File, error) {
	return nil, syscall.EPERM
}

func (f *Fs) Mkdir(name string, perm os.FileMode) error {
	return syscall.EPERM
}

func (f *Fs) MkdirAll(path string, perm os.FileMode) error {
	return syscall.EPERM
}

func (f *Fs) Remove(name string) error {
	return syscall.EPERM
}

func (f *Fs) RemoveAll(path string) error {
	return syscall.EPERM
}

func (f *Fs) Rename(oldname string, newname string) error {
	return syscall.EPERM
}

func (f *Fs) Name() string {
	return "webdav"
}

// Open implements [afero.Fs].
func (f *Fs) Open(name string) (afero.File, error) {
	info, err := f.stat(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &File{client: f.client, name: name, info: info}, nil
}

// OpenFile implements [afero.Fs].
func (f *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, syscall.EPERM
	}

	return f.Open(name)
}

// Stat implements [afero.Fs].
func (f *Fs) Stat(name string) (os.FileInfo, error) {
	info, err := f.stat(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

func (f *Fs) stat(name string) (*FileInfo, error) {
	stat, err := f.client.Stat(name)
	if err != nil {
		// Collections requested without a trailing slash are answered with a 200
		if isWebDavErr(err, "PROPFIND", 200) {
			stat, err = f.client.Stat(gowebdav.FixSlashes(name))
		}
	}
	if err != nil {
		if isWebDavErr(err, "PROPFIND", 404) {
			return nil, &os.PathError{Op: "stat", Path: name, Err: afero.ErrFileNotFound}
		}

		return nil, errors.WithStack(err)
	}

	return fromFileInfo(name, stat), nil
}

func NewFs(client *gowebdav.Client) *Fs {
	return &Fs{client: client}
}

var _ afero.Fs = &Fs{}

func basename(name string) string {
	base := path.Base(name)
	if base == "." || base == "/" {
		return "/"
	}

	return base
}
