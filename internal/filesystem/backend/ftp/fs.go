package ftp

import (
	"os"
	"syscall"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type withConnFunc func(fn func(*ftp.ServerConn) error) error

// Fs is a read only view of a ftp server.
type Fs struct {
	withConn withConnFunc
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
	return "ftp"
}

// Open implements [afero.Fs].
func (fs *Fs) Open(name string) (afero.File, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &File{withConn: fs.withConn, name: name, info: info.(*FileInfo)}, nil
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
	var info *FileInfo

	err := fs.withConn(func(conn *ftp.ServerConn) error {
		var err error
		info, err = getFileInfo(conn, name)
		return err
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

func NewFs(withConn withConnFunc) *Fs {
	return &Fs{
		withConn: withConn,
	}
}

var _ afero.Fs = &Fs{}
