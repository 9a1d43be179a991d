package minio

import (
	"context"
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const separator = "/"

// Fs is a read only view of a bucket. Directories are derived from object key prefixes.
type Fs struct {
	ctx    context.Context
	client *minio.Client
	bucket string
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
	return "minio"
}

// Open implements [afero.Fs].
func (f *Fs) Open(name string) (afero.File, error) {
	key := objectKey(name)

	info, err := f.stat(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	file := &File{
		fs:   f,
		key:  key,
		name: name,
		info: info,
	}

	if info.IsDir() {
		return file, nil
	}

	object, err := f.client.GetObject(f.ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	file.object = object

	return file, nil
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
	info, err := f.stat(objectKey(name))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

func (f *Fs) stat(key string) (*FileInfo, error) {
	if key == "" {
		return &FileInfo{name: separator, isDir: true, mode: os.ModeDir | 0o555}, nil
	}

	stat, err := f.client.StatObject(f.ctx, f.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return &FileInfo{
			name:    path.Base(key),
			size:    stat.Size,
			modTime: stat.LastModified,
			mode:    0o444,
		}, nil
	}

	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return nil, errors.WithStack(err)
	}

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()

	objects := f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{
		Prefix:  key + separator,
		MaxKeys: 1,
	})

	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.WithStack(obj.Err)
		}

		return &FileInfo{name: path.Base(key), isDir: true, mode: os.ModeDir | 0o555}, nil
	}

	return nil, errors.Wrapf(afero.ErrFileNotFound, "could not find file '%s'", key)
}

func (f *Fs) list(key string) ([]os.FileInfo, error) {
	prefix := ""
	if key != "" {
		prefix = key + separator
	}

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()

	objects := f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	})

	infos := make([]os.FileInfo, 0)
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.WithStack(obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}

		if strings.HasSuffix(name, separator) {
			infos = append(infos, &FileInfo{name: strings.TrimSuffix(name, separator), isDir: true, mode: os.ModeDir | 0o555})
			continue
		}

		infos = append(infos, &FileInfo{name: name, size: obj.Size, modTime: obj.LastModified, mode: 0o444})
	}

	return infos, nil
}

func objectKey(name string) string {
	key := strings.Trim(path.Clean(strings.ReplaceAll(name, "\\", separator)), separator)
	if key == "." {
		return ""
	}

	return key
}

func NewFs(ctx context.Context, client *minio.Client, bucket string) *Fs {
	return &Fs{ctx, client, bucket}
}

var _ afero.Fs = &Fs{}
