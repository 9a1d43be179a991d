package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/bornholm/go-x/slogx"
	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const lockRetryDelay = 250 * time.Millisecond

// Backend exposes the worktree of a git repository. The repository is cloned
// once in the cache directory and pulled on every mount.
type Backend struct {
	repoURL  string
	branch   string
	subPath  string
	cacheDir string
	auth     transport.AuthMethod
}

// Mount implements [filesystem.Backend].
func (b *Backend) Mount(ctx context.Context, fn filesystem.MountFunc) error {
	path := b.repoPath()

	if err := os.MkdirAll(b.cacheDir, 0o755); err != nil {
		return errors.WithStack(err)
	}

	// Concurrent mounts of the same repository share its clone
	lock := flock.New(path + ".lock")

	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return errors.Wrapf(err, "could not lock repository clone '%s'", path)
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.ErrorContext(ctx, "could not unlock repository clone", slog.Any("error", errors.WithStack(err)))
		}
	}()

	var ref plumbing.ReferenceName
	if b.branch != "" {
		ref = plumbing.NewBranchReferenceName(b.branch)
	}

	ctx = slogx.WithAttrs(ctx, slog.String("repository", b.repoURL), slog.String("branch", b.branch))

	if err := b.sync(ctx, path, ref); err != nil {
		if errors.Is(err, transport.ErrRepositoryNotFound) || errors.Is(err, plumbing.ErrReferenceNotFound) {
			return errors.Wrapf(filesystem.ErrRootNotFound, "repository '%s': %s", b.repoURL, err.Error())
		}

		return errors.WithStack(err)
	}

	root := path
	if b.subPath != "" {
		root = filepath.Join(path, filepath.FromSlash(b.subPath))

		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return errors.Wrapf(filesystem.ErrRootNotFound, "directory '%s' in repository '%s'", b.subPath, b.repoURL)
			}

			return errors.WithStack(err)
		}

		if !info.IsDir() {
			return errors.Errorf("'%s' is not a directory", b.subPath)
		}
	}

	fs := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), root))

	if err := fn(ctx, fs); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (b *Backend) sync(ctx context.Context, path string, ref plumbing.ReferenceName) error {
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.DebugContext(ctx, "cloning repository", slog.String("path", path))

		_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
			URL:           b.repoURL,
			Auth:          b.auth,
			SingleBranch:  true,
			ReferenceName: ref,
		})
		if err != nil {
			if removeErr := os.RemoveAll(path); removeErr != nil {
				slog.ErrorContext(ctx, "could not remove partial clone", slog.Any("error", errors.WithStack(removeErr)))
			}

			return errors.WithStack(err)
		}

		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not open repository clone '%s'", path)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.WithStack(err)
	}

	slog.DebugContext(ctx, "pulling repository", slog.String("path", path))

	err = worktree.PullContext(ctx, &git.PullOptions{
		Auth:          b.auth,
		SingleBranch:  true,
		ReferenceName: ref,
		Force:         true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.Wrap(err, "could not pull repository")
	}

	return nil
}

func (b *Backend) repoPath() string {
	hash := xxhash.Sum64String(b.repoURL + "#" + b.branch)
	return filepath.Join(b.cacheDir, "git-"+strconv.FormatUint(hash, 16))
}

func New(repoURL string, branch string, subPath string, cacheDir string, auth transport.AuthMethod) *Backend {
	return &Backend{
		repoURL:  repoURL,
		branch:   branch,
		subPath:  subPath,
		cacheDir: cacheDir,
		auth:     auth,
	}
}

var _ filesystem.Backend = &Backend{}
