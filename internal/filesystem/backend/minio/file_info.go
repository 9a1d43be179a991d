package minio

import (
	"io/fs"
	"time"
)

type FileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    fs.FileMode
	isDir   bool
}

func (f *FileInfo) IsDir() bool        { return f.isDir }
func (f *FileInfo) ModTime() time.Time { return f.modTime }
func (f *FileInfo) Mode() fs.FileMode  { return f.mode }
func (f *FileInfo) Name() string       { return f.name }
func (f *FileInfo) Size() int64        { return f.size }
func (f *FileInfo) Sys() any           { return nil }

var _ fs.FileInfo = &FileInfo{}
