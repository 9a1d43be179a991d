// Package querydsl evaluates a subset of the Elasticsearch query language
// against decoded documents, for engines without a native equivalent.
//
// Supported clauses are match_all, term, terms, exists and bool (must,
// filter, should and must_not).
package querydsl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnsupported = errors.New("unsupported query")

// Match reports whether doc is selected by query. An empty query selects
// every document.
func Match(doc map[string]any, query map[string]any) (bool, error) {
	if len(query) == 0 {
		return true, nil
	}

	if len(query) > 1 {
		return false, errors.Wrapf(ErrUnsupported, "expected a single clause, got %d", len(query))
	}

	for kind, raw := range query {
		switch kind {
		case "match_all":
			return true, nil
		case "term":
			return matchTerm(doc, raw)
		case "terms":
			return matchTerms(doc, raw)
		case "exists":
			return matchExists(doc, raw)
		case "bool":
			return matchBool(doc, raw)
		default:
			return false, errors.Wrapf(ErrUnsupported, "clause '%s'", kind)
		}
	}

	return false, nil
}

func matchTerm(doc map[string]any, raw any) (bool, error) {
	field, expected, err := singleField(raw)
	if err != nil {
		return false, errors.Wrap(err, "invalid term clause")
	}

	// Long form: {"field": {"value": ...}}
	if options, ok := expected.(map[string]any); ok {
		value, exists := options["value"]
		if !exists {
			return false, errors.Errorf("invalid term clause: missing value for field '%s'", field)
		}
		expected = value
	}

	return contains(lookup(doc, field), expected), nil
}

func matchTerms(doc map[string]any, raw any) (bool, error) {
	field, values, err := singleField(raw)
	if err != nil {
		return false, errors.Wrap(err, "invalid terms clause")
	}

	expected, ok := values.([]any)
	if !ok {
		return false, errors.Errorf("invalid terms clause: expected a list of values for field '%s'", field)
	}

	actual := lookup(doc, field)

	for _, e := range expected {
		if contains(actual, e) {
			return true, nil
		}
	}

	return false, nil
}

func matchExists(doc map[string]any, raw any) (bool, error) {
	options, ok := raw.(map[string]any)
	if !ok {
		return false, errors.New("invalid exists clause")
	}

	field, ok := options["field"].(string)
	if !ok {
		return false, errors.New("invalid exists clause: missing field")
	}

	value := lookup(doc, field)
	if list, ok := value.([]any); ok {
		return len(list) > 0, nil
	}

	return value != nil, nil
}

func matchBool(doc map[string]any, raw any) (bool, error) {
	options, ok := raw.(map[string]any)
	if !ok {
		return false, errors.New("invalid bool clause")
	}

	for occur := range options {
		switch occur {
		case "must", "filter", "should", "must_not", "minimum_should_match":
		default:
			return false, errors.Wrapf(ErrUnsupported, "bool occurrence '%s'", occur)
		}
	}

	for _, occur := range []string{"must", "filter"} {
		clauses, err := clauseList(options[occur])
		if err != nil {
			return false, errors.Wrapf(err, "invalid bool.%s", occur)
		}

		for _, c := range clauses {
			matched, err := Match(doc, c)
			if err != nil || !matched {
				return false, err
			}
		}
	}

	clauses, err := clauseList(options["must_not"])
	if err != nil {
		return false, errors.Wrap(err, "invalid bool.must_not")
	}

	for _, c := range clauses {
		matched, err := Match(doc, c)
		if err != nil || matched {
			return false, err
		}
	}

	clauses, err = clauseList(options["should"])
	if err != nil {
		return false, errors.Wrap(err, "invalid bool.should")
	}

	if len(clauses) == 0 {
		return true, nil
	}

	for _, c := range clauses {
		matched, err := Match(doc, c)
		if err != nil {
			return false, err
		}

		if matched {
			return true, nil
		}
	}

	// Without must or filter clauses, at least one should clause has to match
	_, hasMust := options["must"]
	_, hasFilter := options["filter"]

	return hasMust || hasFilter, nil
}

func clauseList(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		clauses := make([]map[string]any, 0, len(v))
		for _, item := range v {
			clause, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Errorf("unexpected clause %v", item)
			}
			clauses = append(clauses, clause)
		}
		return clauses, nil
	case []map[string]any:
		return v, nil
	default:
		return nil, errors.Errorf("unexpected clauses %v", raw)
	}
}

func singleField(raw any) (string, any, error) {
	options, ok := raw.(map[string]any)
	if !ok || len(options) != 1 {
		return "", nil, errors.New("expected a single field")
	}

	for field, value := range options {
		return field, value, nil
	}

	return "", nil, nil
}

// lookup resolves dotted paths such as "author.name".
func lookup(doc map[string]any, field string) any {
	var current any = doc

	for part := range strings.SplitSeq(field, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current = object[part]
	}

	return current
}

func contains(actual any, expected any) bool {
	if list, ok := actual.([]any); ok {
		for _, item := range list {
			if equal(item, expected) {
				return true
			}
		}
		return false
	}

	return actual != nil && equal(actual, expected)
}

// equal compares scalars regardless of their decoded numeric type.
func equal(a any, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
