package webdav

import (
	"io/fs"
	"time"
)

type FileInfo struct {
	isDir   bool
	modTime time.Time
	mode    fs.FileMode
	name    string
	size    int64
}

func (fi *FileInfo) IsDir() bool {
	return fi.isDir
}

func (fi *FileInfo) ModTime() time.Time {
	return fi.modTime
}

func (fi *FileInfo) Mode() fs.FileMode {
	return fi.mode
}

func (fi *FileInfo) Name() string {
	return fi.name
}

func (fi *FileInfo) Size() int64 {
	return fi.size
}

func (fi *FileInfo) Sys() any {
	return nil
}

var _ fs.FileInfo = &FileInfo{}

func fromFileInfo(path string, stat fs.FileInfo) *FileInfo {
	info := &FileInfo{
		isDir:   stat.IsDir(),
		modTime: stat.ModTime().UTC().Round(0),
		name:    stat.Name(),
		size:    stat.Size(),
		mode:    0o444,
	}

	if info.isDir {
		info.mode = fs.ModeDir | 0o555
	}

	if info.name == "" {
		info.name = basename(path)
	}

	return info
}
