package model

import (
	"regexp"
	"time"

	"github.com/pkg/errors"
)

type CorpusName string

const (
	DefaultDateField     = "date"
	DefaultIDField       = "id"
	DefaultSourcePattern = "*.jsonl"
)

// UpdateScript is applied to existing documents of an index by an update task.
type UpdateScript struct {
	// Optional query restricting the updated documents, in the engine query language
	Query  map[string]any `json:"query,omitempty" yaml:"query,omitempty"`
	Source string         `json:"source,omitempty" yaml:"source,omitempty"`
	Lang   string         `json:"lang,omitempty" yaml:"lang,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// SourceConfig locates the source files of a corpus.
type SourceConfig struct {
	URI     string `json:"uri" yaml:"uri"`
	Pattern string `json:"pattern" yaml:"pattern"`
	// Document field holding the document identifier, "id" by default
	IDField string `json:"idField,omitempty" yaml:"idField,omitempty"`
	// Layout of the date prefix of source file names, used to skip whole files
	// outside of the requested date range
	DateLayout string `json:"dateLayout,omitempty" yaml:"dateLayout,omitempty"`
}

type Corpus struct {
	Name   CorpusName
	Title  string
	Server string

	IndexName string
	Alias     string

	Settings map[string]any
	Mappings map[string]any

	DateField string
	MinDate   time.Time
	MaxDate   time.Time

	Update *UpdateScript
	Source SourceConfig
}

// AliasName returns the alias used to expose the corpus, defaulting to the base index name.
func (c *Corpus) AliasName() string {
	if c.Alias != "" {
		return c.Alias
	}

	return c.IndexName
}

func (c *Corpus) DateFieldName() string {
	if c.DateField != "" {
		return c.DateField
	}

	return DefaultDateField
}

var indexNameRegExp = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

var ErrCorpusNotReady = errors.New("corpus not ready to index")

// ReadyToIndex checks that the corpus definition is complete enough to plan index jobs.
func (c *Corpus) ReadyToIndex() error {
	if c.Name == "" {
		return errors.Wrap(ErrCorpusNotReady, "corpus has no name")
	}

	if !indexNameRegExp.MatchString(c.IndexName) {
		return errors.Wrapf(ErrCorpusNotReady, "invalid index name '%s'", c.IndexName)
	}

	if c.Alias != "" && !indexNameRegExp.MatchString(c.Alias) {
		return errors.Wrapf(ErrCorpusNotReady, "invalid alias '%s'", c.Alias)
	}

	if c.Server == "" {
		return errors.Wrap(ErrCorpusNotReady, "no server configured")
	}

	if len(c.Mappings) == 0 {
		return errors.Wrap(ErrCorpusNotReady, "no mappings defined")
	}

	if c.MinDate.IsZero() || c.MaxDate.IsZero() {
		return errors.Wrap(ErrCorpusNotReady, "document date range is not defined")
	}

	if c.MaxDate.Before(c.MinDate) {
		return errors.Wrapf(ErrCorpusNotReady, "max date %s is before min date %s", c.MaxDate.Format(time.DateOnly), c.MinDate.Format(time.DateOnly))
	}

	if c.Source.URI == "" {
		return errors.Wrap(ErrCorpusNotReady, "no document source configured")
	}

	return nil
}
