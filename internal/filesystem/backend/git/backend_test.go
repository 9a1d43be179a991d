package git

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func commitFile(t *testing.T, repo *git.Repository, dir string, name string, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	_, err = worktree.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "corpus", Email: "corpus@example.net", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestBackend(t *testing.T) {
	ctx := context.Background()

	source := t.TempDir()

	repo, err := git.PlainInit(source, false)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	commitFile(t, repo, source, "corpora/demo.yaml", "name: demo\n")

	dsn := &url.URL{
		Scheme:   "git",
		Path:     filepath.ToSlash(source),
		RawQuery: url.Values{"gitScheme": {"file"}, "gitPath": {"corpora"}, "cacheDir": {t.TempDir()}}.Encode(),
	}

	b, err := FromDSN(dsn)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	readNames := func() []string {
		var names []string

		err := b.Mount(ctx, func(ctx context.Context, fs afero.Fs) error {
			entries, err := afero.ReadDir(fs, "/")
			if err != nil {
				return errors.WithStack(err)
			}

			for _, e := range entries {
				names = append(names, e.Name())
			}

			if err := afero.WriteFile(fs, "other.yaml", []byte{}, 0o644); err == nil {
				t.Errorf("expected write to fail")
			}

			return nil
		})
		if err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		return names
	}

	if e, g := []string{"demo.yaml"}, readNames(); !slices.Equal(e, g) {
		t.Errorf("names: expected %v, got %v", e, g)
	}

	commitFile(t, repo, source, "corpora/other.yaml", "name: other\n")

	// The clone is pulled on the next mount
	if e, g := []string{"demo.yaml", "other.yaml"}, readNames(); !slices.Equal(e, g) {
		t.Errorf("names: expected %v, got %v", e, g)
	}
}

func TestBackendMissingRoot(t *testing.T) {
	ctx := context.Background()

	source := t.TempDir()

	repo, err := git.PlainInit(source, false)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	commitFile(t, repo, source, "corpora/demo.yaml", "name: demo\n")

	b := New("file://"+filepath.ToSlash(source), "", "missing", t.TempDir(), nil)

	err = b.Mount(ctx, func(ctx context.Context, fs afero.Fs) error {
		t.Errorf("mount function should not be called")
		return nil
	})
	if !errors.Is(err, filesystem.ErrRootNotFound) {
		t.Errorf("err: expected '%v', got '%+v'", filesystem.ErrRootNotFound, err)
	}

	b = New("file://"+filepath.ToSlash(source), "unknown", "", t.TempDir(), nil)

	err = b.Mount(ctx, func(ctx context.Context, fs afero.Fs) error {
		t.Errorf("mount function should not be called")
		return nil
	})
	if err == nil {
		t.Errorf("expected an unknown branch to fail")
	}
}
