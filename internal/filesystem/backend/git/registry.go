package git

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/corpus-indexer/internal/filesystem/backend"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/pkg/errors"
)

func init() {
	backend.RegisterBackendFactory("git", FromDSN)
}

type Config struct {
	RepoURL  *url.URL
	Branch   string
	SubPath  string
	CacheDir string
	Auth     transport.AuthMethod
}

// FromDSN configures a backend from
// git://<user>:<token>@<host>/<repository>?gitScheme=https&gitBranch=main&gitPath=corpora&cacheDir=/var/cache/indexer.
func FromDSN(dsn *url.URL) (filesystem.Backend, error) {
	conf := &Config{
		RepoURL: dsn.JoinPath(),
	}

	configurations := []ConfigureFunc{
		configureCredentials,
		configureRepoURL,
		configureBranch,
		configureSubPath,
		configureCacheDir,
	}

	for _, configure := range configurations {
		if err := configure(conf); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return New(conf.RepoURL.String(), conf.Branch, conf.SubPath, conf.CacheDir, conf.Auth), nil
}

type ConfigureFunc func(conf *Config) error

func configureCredentials(conf *Config) error {
	user := conf.RepoURL.User
	if user == nil {
		return nil
	}

	password, _ := user.Password()

	conf.Auth = &githttp.BasicAuth{
		Username: user.Username(),
		Password: password,
	}

	conf.RepoURL.User = nil

	return nil
}

const paramGitScheme = "gitScheme"

func configureRepoURL(conf *Config) error {
	gitScheme := "https"

	query := conf.RepoURL.Query()
	if query.Has(paramGitScheme) {
		gitScheme = query.Get(paramGitScheme)
		query.Del(paramGitScheme)
		conf.RepoURL.RawQuery = query.Encode()
	}

	conf.RepoURL.Scheme = gitScheme

	return nil
}

const paramGitBranch = "gitBranch"

func configureBranch(conf *Config) error {
	query := conf.RepoURL.Query()
	if query.Has(paramGitBranch) {
		conf.Branch = query.Get(paramGitBranch)
		query.Del(paramGitBranch)
		conf.RepoURL.RawQuery = query.Encode()
	}

	return nil
}

const paramGitPath = "gitPath"

func configureSubPath(conf *Config) error {
	query := conf.RepoURL.Query()
	if query.Has(paramGitPath) {
		conf.SubPath = strings.Trim(query.Get(paramGitPath), "/")
		query.Del(paramGitPath)
		conf.RepoURL.RawQuery = query.Encode()
	}

	return nil
}

const paramCacheDir = "cacheDir"

func configureCacheDir(conf *Config) error {
	conf.CacheDir = filepath.Join(os.TempDir(), "corpus-indexer")

	query := conf.RepoURL.Query()
	if query.Has(paramCacheDir) {
		conf.CacheDir = query.Get(paramCacheDir)
		query.Del(paramCacheDir)
		conf.RepoURL.RawQuery = query.Encode()
	}

	return nil
}
