package smb

import (
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/hirochachacha/go-smb2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Fs is a read only view of a smb share.
type Fs struct {
	share *smb2.Share
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) Chown(name string, uid int, gid int) error {
	return syscall.EPERM
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return syscall.EPERM
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, syscall.EPERM
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return syscall.EPERM
}

func (fs *Fs) Remove(name string) error {
	return syscall.EPERM
}

func (fs *Fs) RemoveAll(path string) error {
	return syscall.EPERM
}

func (fs *Fs) Rename(oldname string, newname string) error {
	return syscall.EPERM
}

func (fs *Fs) Name() string {
	return "smb"
}

// Open implements [afero.Fs].
func (fs *Fs) Open(name string) (afero.File, error) {
	file, err := fs.share.Open(sharePath(name))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return file, nil
}

// OpenFile implements [afero.Fs].
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, syscall.EPERM
	}

	return fs.Open(name)
}

// Stat implements [afero.Fs].
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	info, err := fs.share.Stat(sharePath(name))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

func NewFs(share *smb2.Share) *Fs {
	return &Fs{share}
}

var _ afero.Fs = &Fs{}

// sharePath resolves names relative to the root of the share.
func sharePath(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}

	return name
}
