package webdav

import (
	"errors"
	"io/fs"

	"github.com/studio-b12/gowebdav"
)

func isWebDavErr(err error, op string, status int) bool {
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Op != op {
		return false
	}

	var statusErr gowebdav.StatusError
	if errors.As(pathErr.Err, &statusErr) {
		return statusErr.Status == status
	}

	return false
}
