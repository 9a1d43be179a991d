package smb

import (
	"net/url"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/hirochachacha/go-smb2"
	"github.com/pkg/errors"
)

func init() {
	backend.RegisterBackendFactory("smb", FromDSN)
}

// FromDSN configures a backend from
// smb://<user>:<password>@<host>:<port>/<path>?share=<share>&domain=<domain>.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	addr := dsn.Host
	if dsn.Port() == "" {
		addr += ":445"
	}

	basePath := strings.Trim(dsn.Path, "/")

	config := &Config{}

	configurations := []ConfigureFunc{
		configureShareName,
		configureInitiator,
	}

	for _, configure := range configurations {
		if err := configure(dsn, config); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return New(addr, basePath, config), nil
}

type ConfigureFunc func(dsn *url.URL, conf *Config) error

const paramShare = "share"

func configureShareName(dsn *url.URL, config *Config) error {
	query := dsn.Query()

	if !query.Has(paramShare) {
		return errors.Errorf("url parameter '%s' is required", paramShare)
	}

	config.ShareName = query.Get(paramShare)

	return nil
}

func configureInitiator(dsn *url.URL, config *Config) error {
	initiator := &smb2.NTLMInitiator{}

	if dsn.User != nil {
		initiator.User = dsn.User.Username()
		initiator.Password, _ = dsn.User.Password()
	}

	query := dsn.Query()

	initiator.Domain = query.Get("domain")
	initiator.Workstation = query.Get("workstation")
	initiator.TargetSPN = query.Get("targetSPN")

	config.Initiator = initiator

	return nil
}
