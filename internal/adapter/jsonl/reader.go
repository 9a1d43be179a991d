package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"iter"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/filesystem"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/redmatter/go-globre/v2"
	"github.com/spf13/afero"
)

var errStopped = errors.New("stopped")

// Reader reads documents from JSON lines files, one document per line.
type Reader struct {
	backend    filesystem.Backend
	pattern    *regexp.Regexp
	nested     bool
	dateLayout string
	idField    string
	dateField  string
}

// Sources implements [port.Reader].
func (r *Reader) Sources(ctx context.Context, minDate time.Time, maxDate time.Time) ([]model.SourceRef, error) {
	sources := make([]model.SourceRef, 0)

	err := r.backend.Mount(ctx, func(ctx context.Context, fsys afero.Fs) error {
		return afero.Walk(fsys, "/", func(filePath string, info fs.FileInfo, err error) error {
			if err != nil {
				return errors.WithStack(err)
			}

			if err := ctx.Err(); err != nil {
				return errors.WithStack(err)
			}

			if info.IsDir() {
				return nil
			}

			if !r.matches(filePath) {
				return nil
			}

			ref := model.SourceRef{Path: filePath}

			if r.dateLayout != "" {
				date, ok := r.sourceDate(info.Name())
				if !ok || !r.overlaps(date, minDate, maxDate) {
					return nil
				}

				ref.Date = date
			}

			sources = append(sources, ref)

			return nil
		})
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	slices.SortFunc(sources, func(a, b model.SourceRef) int {
		return strings.Compare(a.Path, b.Path)
	})

	return sources, nil
}

// matches checks the path relative to the source root against the pattern.
// Patterns without separator are checked against the file name only.
func (r *Reader) matches(filePath string) bool {
	if !r.nested {
		return r.pattern.MatchString(path.Base(filePath))
	}

	return r.pattern.MatchString(strings.TrimPrefix(filePath, "/"))
}

func (r *Reader) sourceDate(name string) (time.Time, bool) {
	if len(name) < len(r.dateLayout) {
		return time.Time{}, false
	}

	date, err := time.Parse(r.dateLayout, name[:len(r.dateLayout)])
	if err != nil {
		return time.Time{}, false
	}

	return date, true
}

// overlaps reports whether a file dated with the layout precision may hold
// documents of the range.
func (r *Reader) overlaps(date time.Time, minDate time.Time, maxDate time.Time) bool {
	if !minDate.IsZero() {
		truncated, err := time.Parse(r.dateLayout, minDate.Format(r.dateLayout))
		if err == nil && date.Before(truncated) {
			return false
		}
	}

	if !maxDate.IsZero() && date.After(maxDate) {
		return false
	}

	return true
}

// Documents implements [port.Reader].
func (r *Reader) Documents(ctx context.Context, sources []model.SourceRef) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		err := r.backend.Mount(ctx, func(ctx context.Context, fsys afero.Fs) error {
			for _, source := range sources {
				if err := ctx.Err(); err != nil {
					return errors.WithStack(err)
				}

				if err := r.readSource(fsys, source, yield); err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(model.Document{}, errors.WithStack(err))
		}
	}
}

func (r *Reader) readSource(fsys afero.Fs, source model.SourceRef, yield func(model.Document, error) bool) error {
	file, err := fsys.Open(source.Path)
	if err != nil {
		return errors.Wrapf(err, "could not open source '%s'", source.Path)
	}

	defer file.Close()

	reader := bufio.NewReader(file)

	for line := 1; ; line++ {
		data, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return errors.Wrapf(readErr, "could not read source '%s'", source.Path)
		}

		data = bytes.TrimSpace(data)

		if len(data) > 0 {
			doc, err := r.parse(data, source.Path, line)
			if err != nil {
				err = &port.DocumentError{Source: source.Path, Line: line, Err: err}
			}

			if !yield(doc, err) {
				return errStopped
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

func (r *Reader) parse(data []byte, source string, line int) (model.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return model.Document{}, errors.WithStack(err)
	}

	doc := model.Document{
		Body: json.RawMessage(slices.Clone(data)),
	}

	id, err := fieldString(fields[r.idField])
	if err != nil {
		return model.Document{}, errors.Wrapf(err, "invalid field '%s'", r.idField)
	}

	if id == "" {
		id = derivedID(source, line)
	}

	doc.ID = id

	rawDate, err := fieldString(fields[r.dateField])
	if err != nil {
		return model.Document{}, errors.Wrapf(err, "invalid field '%s'", r.dateField)
	}

	if rawDate != "" {
		date, err := parseDate(rawDate)
		if err != nil {
			return model.Document{}, errors.Wrapf(err, "invalid field '%s'", r.dateField)
		}

		doc.Date = date
	}

	return doc, nil
}

func fieldString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", errors.WithStack(err)
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", errors.Errorf("unexpected value type '%T'", value)
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}

	return time.Time{}, errors.Errorf("unexpected date format '%s'", raw)
}

// derivedID identifies a document without identifier by its position, so that
// populating an index twice does not duplicate it.
func derivedID(source string, line int) string {
	return strconv.FormatUint(xxhash.Sum64String(source+":"+strconv.Itoa(line)), 36)
}

func NewReader(backend filesystem.Backend, pattern string, dateLayout string, idField string, dateField string) (*Reader, error) {
	expr := globre.RegexFromGlob(
		pattern,
		globre.ExtendedSyntaxEnabled(true),
		globre.GlobStarEnabled(true),
		globre.WithDelimiter('/'),
	)

	if !strings.HasPrefix(expr, "^") {
		expr = "^" + expr + "$"
	}

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse source pattern '%s'", pattern)
	}

	return &Reader{
		backend:    backend,
		pattern:    compiled,
		nested:     strings.Contains(pattern, "/"),
		dateLayout: dateLayout,
		idField:    idField,
		dateField:  dateField,
	}, nil
}

var _ port.Reader = &Reader{}
