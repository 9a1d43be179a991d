package ftp

import (
	"net/url"
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

func init() {
	backend.RegisterBackendFactory("ftp", FromDSN)
}

// FromDSN configures a backend from ftp://<user>:<password>@<host>:<port>/<path>?timeout=10s.
// The path is relative to the login directory. Without credentials, an
// anonymous login is attempted.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	addr := dsn.Host
	if dsn.Port() == "" {
		addr += ":21"
	}

	basePath := strings.TrimPrefix(dsn.Path, "/")

	options := make([]ftp.DialOption, 0)

	configurations := []ConfigureFunc{
		configureTimeout,
	}

	for _, configure := range configurations {
		if err := configure(dsn, &options); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	username, password := anonymous, anonymous
	if dsn.User != nil {
		username = dsn.User.Username()
		password, _ = dsn.User.Password()
	}

	return New(addr, basePath, username, password, options...), nil
}

const anonymous = "anonymous"

type ConfigureFunc func(dsn *url.URL, options *[]ftp.DialOption) error

const paramTimeout = "timeout"

func configureTimeout(dsn *url.URL, options *[]ftp.DialOption) error {
	query := dsn.Query()

	if !query.Has(paramTimeout) {
		return nil
	}

	rawTimeout := query.Get(paramTimeout)
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return errors.Wrapf(err, "could not parse query value '%s' as duration", rawTimeout)
	}

	*options = append(*options, ftp.DialWithTimeout(timeout))

	return nil
}
