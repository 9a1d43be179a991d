package yaml

import (
	"context"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type corpusDefinition struct {
	Name      string              `yaml:"name"`
	Title     string              `yaml:"title"`
	Server    string              `yaml:"server"`
	Index     string              `yaml:"index"`
	Alias     string              `yaml:"alias"`
	Settings  map[string]any      `yaml:"settings"`
	Mappings  map[string]any      `yaml:"mappings"`
	DateField string              `yaml:"dateField"`
	MinDate   string              `yaml:"minDate"`
	MaxDate   string              `yaml:"maxDate"`
	Update    *model.UpdateScript `yaml:"update"`
	Source    model.SourceConfig  `yaml:"source"`
}

// CorpusStore reads corpus definitions from the YAML files (*.yaml, *.yml) of a
// directory. The file name is used as corpus name when the definition has none.
type CorpusStore struct {
	backend filesystem.Backend
}

// GetCorpus implements [port.CorpusStore].
func (s *CorpusStore) GetCorpus(ctx context.Context, name model.CorpusName) (*model.Corpus, error) {
	corpora, err := s.ListCorpora(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	idx := slices.IndexFunc(corpora, func(c *model.Corpus) bool {
		return c.Name == name
	})
	if idx == -1 {
		return nil, errors.Wrapf(port.ErrNotFound, "corpus '%s'", name)
	}

	return corpora[idx], nil
}

// ListCorpora implements [port.CorpusStore].
func (s *CorpusStore) ListCorpora(ctx context.Context) ([]*model.Corpus, error) {
	corpora := make([]*model.Corpus, 0)

	err := s.backend.Mount(ctx, func(ctx context.Context, fsys afero.Fs) error {
		entries, err := afero.ReadDir(fsys, "/")
		if err != nil {
			return errors.WithStack(err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !isDefinition(entry) {
				continue
			}

			corpus, err := s.load(fsys, "/"+entry.Name())
			if err != nil {
				return errors.Wrapf(err, "could not load corpus definition '%s'", entry.Name())
			}

			corpora = append(corpora, corpus)
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	slices.SortFunc(corpora, func(a, b *model.Corpus) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	return corpora, nil
}

func isDefinition(info fs.FileInfo) bool {
	ext := path.Ext(info.Name())
	return ext == ".yaml" || ext == ".yml"
}

func (s *CorpusStore) load(fsys afero.Fs, filename string) (*model.Corpus, error) {
	data, err := afero.ReadFile(fsys, filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var def corpusDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.WithStack(err)
	}

	if def.Name == "" {
		base := path.Base(filename)
		def.Name = strings.TrimSuffix(base, path.Ext(base))
	}

	corpus := &model.Corpus{
		Name:      model.CorpusName(def.Name),
		Title:     def.Title,
		Server:    def.Server,
		IndexName: def.Index,
		Alias:     def.Alias,
		Settings:  def.Settings,
		Mappings:  def.Mappings,
		DateField: def.DateField,
		Update:    def.Update,
		Source:    def.Source,
	}

	if corpus.IndexName == "" {
		corpus.IndexName = def.Name
	}

	if corpus.MinDate, err = parseDate(def.MinDate); err != nil {
		return nil, errors.Wrap(err, "invalid 'minDate'")
	}

	if corpus.MaxDate, err = parseDate(def.MaxDate); err != nil {
		return nil, errors.Wrap(err, "invalid 'maxDate'")
	}

	return corpus, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.WithStack(err)
	}

	return date, nil
}

func NewCorpusStore(backend filesystem.Backend) *CorpusStore {
	return &CorpusStore{
		backend: backend,
	}
}

var _ port.CorpusStore = &CorpusStore{}
