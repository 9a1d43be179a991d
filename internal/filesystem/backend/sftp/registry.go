package sftp

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

func init() {
	backend.RegisterBackendFactory("sftp", FromDSN)
}

const defaultTimeout = 30 * time.Second

// FromDSN configures a backend from
// sftp://<user>:<password>@<host>:<port>/<path>?hostKey=<file|insecure-ignore>&privateKey=<file>&timeout=10s.
// The path is relative to the login directory of the user.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	addr := dsn.Host
	if dsn.Port() == "" {
		addr += ":22"
	}

	basePath := strings.TrimPrefix(dsn.Path, "/")

	config := &ssh.ClientConfig{
		User:    dsn.User.Username(),
		Timeout: defaultTimeout,
	}

	configurations := []ConfigureFunc{
		configureAuthMethods,
		configureTimeout,
		configureHostKeyCallback,
	}

	for _, configure := range configurations {
		if err := configure(dsn, config); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return New(addr, basePath, config), nil
}

type ConfigureFunc func(dsn *url.URL, config *ssh.ClientConfig) error

const (
	paramPrivateKey           = "privateKey"
	paramPrivateKeyPassphrase = "privateKeyPassphrase"
)

func configureAuthMethods(dsn *url.URL, config *ssh.ClientConfig) error {
	authMethods := make([]ssh.AuthMethod, 0)

	query := dsn.Query()

	if query.Has(paramPrivateKey) {
		privateKeyPath := query.Get(paramPrivateKey)
		rawPrivateKey, err := os.ReadFile(privateKeyPath)
		if err != nil {
			return errors.Wrapf(err, "could not read ssh private key '%s'", privateKeyPath)
		}

		passphrase := query.Get(paramPrivateKeyPassphrase)

		var signer ssh.Signer
		if passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(rawPrivateKey, []byte(passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(rawPrivateKey)
		}
		if err != nil {
			return errors.Wrapf(err, "could not parse ssh private key '%s'", privateKeyPath)
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	if password, exists := dsn.User.Password(); exists {
		authMethods = append(authMethods, ssh.Password(password))
	}

	if len(authMethods) == 0 {
		return errors.Errorf("a password or the '%s' parameter is required", paramPrivateKey)
	}

	config.Auth = authMethods

	return nil
}

const paramTimeout = "timeout"

func configureTimeout(dsn *url.URL, config *ssh.ClientConfig) error {
	query := dsn.Query()

	if !query.Has(paramTimeout) {
		return nil
	}

	rawTimeout := query.Get(paramTimeout)
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return errors.Wrapf(err, "could not parse query value '%s' as duration", rawTimeout)
	}

	config.Timeout = timeout

	return nil
}

const (
	paramHostKey  = "hostKey"
	ignoreHostKey = "insecure-ignore"
)

func configureHostKeyCallback(dsn *url.URL, config *ssh.ClientConfig) error {
	query := dsn.Query()

	if !query.Has(paramHostKey) {
		return errors.Errorf("url parameter '%s' is required", paramHostKey)
	}

	hostKey := query.Get(paramHostKey)

	if hostKey == ignoreHostKey {
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey()
		return nil
	}

	rawPubKey, err := os.ReadFile(hostKey)
	if err != nil {
		return errors.Wrapf(err, "could not read host key '%s'", hostKey)
	}

	// Keys are accepted in the authorized_keys format, as found in *.pub files
	pubKey, _, _, _, err := ssh.ParseAuthorizedKey(rawPubKey)
	if err != nil {
		return errors.Wrapf(err, "could not parse host key '%s'", hostKey)
	}

	config.HostKeyCallback = ssh.FixedHostKey(pubKey)

	return nil
}
