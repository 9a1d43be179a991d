package service

import (
	"fmt"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/pkg/errors"
)

var ErrInvalidRequest = errors.New("invalid request")

// UserFacingError carries a message that can be shown as-is to an operator.
type UserFacingError interface {
	error
	UserMessage() string
}

type invalidRequestError struct {
	message string
}

func (e *invalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest.Error(), e.message)
}

func (e *invalidRequestError) UserMessage() string {
	return e.message
}

func (e *invalidRequestError) Is(err error) bool {
	return err == ErrInvalidRequest
}

func newInvalidRequestError(format string, args ...any) error {
	return errors.WithStack(&invalidRequestError{message: fmt.Sprintf(format, args...)})
}

// IndexRequest holds the parameters of an index job.
type IndexRequest struct {
	Corpus    model.CorpusName `json:"corpus"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`

	// Only create the index and its mappings
	MappingsOnly bool `json:"mappingsOnly"`
	// Add documents to the existing index
	Add bool `json:"add"`
	// Delete an existing index with the same name before creating it
	Clear bool `json:"clear"`
	// Use versioned index names and production settings
	Prod bool `json:"prod"`
	// Point the corpus alias to the new index once done
	Rollover bool `json:"rollover"`
	// Run the corpus update script on the existing index
	Update bool `json:"update"`
}

// CreateNew reports whether the request builds a new index.
func (r IndexRequest) CreateNew() bool {
	return !(r.Add || r.Update)
}

func (r IndexRequest) Validate() error {
	if r.Corpus == "" {
		return newInvalidRequestError("a corpus is required")
	}

	hasDates := r.StartDate != nil || r.EndDate != nil

	if hasDates && r.MappingsOnly {
		return newInvalidRequestError("start/end dates cannot be used with mappings only")
	}

	if r.Add && r.Clear {
		return newInvalidRequestError("cannot both add documents to an index and delete it")
	}

	if r.Update && (r.MappingsOnly || r.Add || r.Clear) {
		return newInvalidRequestError("update cannot be combined with mappings only, add or delete")
	}

	if r.Rollover && !r.Prod {
		return newInvalidRequestError("rollover requires production mode")
	}

	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return newInvalidRequestError("end date %s is before start date %s", r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}

	return nil
}

// PruneRequest asks for the deletion of obsolete versioned indices of a corpus.
type PruneRequest struct {
	Corpus model.CorpusName `json:"corpus"`
	// Number of most recent versions to keep, aliased indices are always kept
	Keep int `json:"keep"`
}

func (r PruneRequest) Validate() error {
	if r.Corpus == "" {
		return newInvalidRequestError("a corpus is required")
	}

	if r.Keep < 0 {
		return newInvalidRequestError("the number of kept versions cannot be negative")
	}

	return nil
}
