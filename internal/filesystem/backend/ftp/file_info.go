package ftp

import (
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

type FileInfo struct {
	entry *ftp.Entry
}

func (i *FileInfo) IsDir() bool {
	return i.entry.Type == ftp.EntryTypeFolder
}

func (i *FileInfo) ModTime() time.Time {
	return i.entry.Time
}

func (i *FileInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return fs.ModeDir | 0o555
	}

	return 0o444
}

func (i *FileInfo) Name() string {
	return i.entry.Name
}

func (i *FileInfo) Size() int64 {
	return int64(i.entry.Size)
}

func (*FileInfo) Sys() any {
	return nil
}

var _ fs.FileInfo = &FileInfo{}

// getFileInfo relies on MLST when the server supports it and falls back on
// listing the parent directory.
func getFileInfo(conn *ftp.ServerConn, name string) (*FileInfo, error) {
	name = remotePath(name)

	if name == "." {
		return &FileInfo{&ftp.Entry{Name: ".", Type: ftp.EntryTypeFolder}}, nil
	}

	entry, err := conn.GetEntry(name)
	if err != nil && !isNotImplementedErr(err) && !isFileUnavailableErr(err) {
		return nil, errors.WithStack(err)
	}

	if entry != nil {
		entry.Name = path.Base(entry.Name)
		return &FileInfo{entry}, nil
	}

	siblings, err := conn.List(path.Dir(name))
	if err != nil {
		if isFileUnavailableErr(err) {
			return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
		}

		return nil, errors.WithStack(err)
	}

	base := path.Base(name)

	for _, s := range siblings {
		if s != nil && s.Name == base {
			return &FileInfo{s}, nil
		}
	}

	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// remotePath resolves names relative to the login directory.
func remotePath(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}

	return name
}
