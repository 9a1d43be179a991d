package service

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestIndexRequestValidate(t *testing.T) {
	start := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		Name    string
		Request IndexRequest
		Valid   bool
	}

	testCases := []testCase{
		{Name: "default", Request: IndexRequest{Corpus: "demo"}, Valid: true},
		{Name: "no corpus", Request: IndexRequest{}, Valid: false},
		{Name: "dates", Request: IndexRequest{Corpus: "demo", StartDate: &start, EndDate: &end}, Valid: true},
		{Name: "dates with mappings only", Request: IndexRequest{Corpus: "demo", StartDate: &start, MappingsOnly: true}, Valid: false},
		{Name: "add with delete", Request: IndexRequest{Corpus: "demo", Add: true, Clear: true}, Valid: false},
		{Name: "update with mappings only", Request: IndexRequest{Corpus: "demo", Update: true, MappingsOnly: true}, Valid: false},
		{Name: "update with add", Request: IndexRequest{Corpus: "demo", Update: true, Add: true}, Valid: false},
		{Name: "update with delete", Request: IndexRequest{Corpus: "demo", Update: true, Clear: true}, Valid: false},
		{Name: "update", Request: IndexRequest{Corpus: "demo", Update: true, Prod: true}, Valid: true},
		{Name: "rollover without prod", Request: IndexRequest{Corpus: "demo", Rollover: true}, Valid: false},
		{Name: "rollover", Request: IndexRequest{Corpus: "demo", Rollover: true, Prod: true}, Valid: true},
		{Name: "inverted dates", Request: IndexRequest{Corpus: "demo", StartDate: &end, EndDate: &start}, Valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Request.Validate()

			if tc.Valid {
				if err != nil {
					t.Fatalf("%+v", errors.WithStack(err))
				}
				return
			}

			if err == nil {
				t.Fatal("expected an error")
			}

			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got '%v'", err)
			}

			var userFacing UserFacingError
			if !errors.As(err, &userFacing) || userFacing.UserMessage() == "" {
				t.Errorf("expected a user facing error, got '%T'", err)
			}
		})
	}
}
