package querydsl

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
)

func TestMatch(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(`{
		"title": "Le Monde",
		"year": 1950,
		"tags": ["press", "daily"],
		"author": {"name": "Beuve-Méry"},
		"empty": []
	}`), &doc); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	type testCase struct {
		Name          string
		Query         string
		Expected      bool
		ExpectedError bool
	}

	testCases := []testCase{
		{Name: "empty", Query: `{}`, Expected: true},
		{Name: "match all", Query: `{"match_all":{}}`, Expected: true},
		{Name: "term", Query: `{"term":{"title":"Le Monde"}}`, Expected: true},
		{Name: "term mismatch", Query: `{"term":{"title":"Le Figaro"}}`, Expected: false},
		{Name: "term long form", Query: `{"term":{"year":{"value":1950}}}`, Expected: true},
		{Name: "term number as string", Query: `{"term":{"year":"1950"}}`, Expected: true},
		{Name: "term in list", Query: `{"term":{"tags":"daily"}}`, Expected: true},
		{Name: "term nested", Query: `{"term":{"author.name":"Beuve-Méry"}}`, Expected: true},
		{Name: "term missing field", Query: `{"term":{"missing":"x"}}`, Expected: false},
		{Name: "terms", Query: `{"terms":{"year":[1949,1950]}}`, Expected: true},
		{Name: "terms mismatch", Query: `{"terms":{"tags":["weekly"]}}`, Expected: false},
		{Name: "exists", Query: `{"exists":{"field":"author.name"}}`, Expected: true},
		{Name: "exists empty list", Query: `{"exists":{"field":"empty"}}`, Expected: false},
		{Name: "bool must", Query: `{"bool":{"must":[{"term":{"year":1950}},{"term":{"tags":"press"}}]}}`, Expected: true},
		{Name: "bool must mismatch", Query: `{"bool":{"must":[{"term":{"year":1950}},{"term":{"tags":"weekly"}}]}}`, Expected: false},
		{Name: "bool filter object", Query: `{"bool":{"filter":{"term":{"year":1950}}}}`, Expected: true},
		{Name: "bool must not", Query: `{"bool":{"must_not":{"term":{"year":1950}}}}`, Expected: false},
		{Name: "bool should", Query: `{"bool":{"should":[{"term":{"year":1949}},{"term":{"year":1950}}]}}`, Expected: true},
		{Name: "bool should mismatch", Query: `{"bool":{"should":[{"term":{"year":1949}}]}}`, Expected: false},
		{Name: "bool should with filter", Query: `{"bool":{"filter":{"term":{"year":1950}},"should":[{"term":{"year":1949}}]}}`, Expected: true},
		{Name: "unsupported clause", Query: `{"match":{"title":"monde"}}`, ExpectedError: true},
		{Name: "multiple clauses", Query: `{"term":{"year":1950},"exists":{"field":"title"}}`, ExpectedError: true},
		{Name: "invalid terms", Query: `{"terms":{"year":1950}}`, ExpectedError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var query map[string]any
			if err := json.Unmarshal([]byte(tc.Query), &query); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			matched, err := Match(doc, query)

			if tc.ExpectedError {
				if err == nil {
					t.Errorf("expected an error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.Expected, matched; e != g {
				t.Errorf("matched: expected '%v', got '%v'", e, g)
			}
		})
	}
}

func TestMatchUnsupported(t *testing.T) {
	_, err := Match(map[string]any{}, map[string]any{"wildcard": map[string]any{"title": "le*"}})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
