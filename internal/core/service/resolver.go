package service

import (
	"context"
	"slices"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

// Resolver answers read-only questions about index versions and aliases.
type Resolver struct {
	engines port.EngineProvider
}

// CurrentIndexName returns the name of the index currently serving the corpus:
// the index carrying the corpus alias or, when none does, the most recent index
// built for the corpus. The highest version wins when several indices match.
func (r *Resolver) CurrentIndexName(ctx context.Context, corpus *model.Corpus) (string, error) {
	_, engine, err := r.engines.Engine(ctx, corpus.Server)
	if err != nil {
		return "", errors.WithStack(err)
	}

	aliased, err := engine.GetAlias(ctx, corpus.AliasName())
	if err != nil {
		return "", errors.Wrapf(err, "could not resolve alias '%s'", corpus.AliasName())
	}

	if name, ok := highestVersion(aliased); ok {
		return name, nil
	}

	candidates, err := engine.GetIndices(ctx, corpus.IndexName+"-*")
	if err != nil {
		return "", errors.Wrapf(err, "could not list indices of '%s'", corpus.IndexName)
	}

	candidates = slices.DeleteFunc(candidates, func(name string) bool {
		return !model.IsVersionOf(name, corpus.IndexName)
	})

	if name, ok := highestVersion(candidates); ok {
		return name, nil
	}

	exists, err := engine.IndexExists(ctx, corpus.IndexName)
	if err != nil {
		return "", errors.WithStack(err)
	}

	if exists {
		return corpus.IndexName, nil
	}

	return "", errors.Wrapf(port.ErrNotFound, "no index found for corpus '%s'", corpus.Name)
}

// NewVersionNumber returns the version number to use for a new versioned index of base.
func (r *Resolver) NewVersionNumber(ctx context.Context, engine port.SearchEngine, alias string, base string) (int, error) {
	names, err := engine.GetIndices(ctx, base+"-*")
	if err != nil {
		return 0, errors.Wrapf(err, "could not list indices of '%s'", base)
	}

	names = slices.DeleteFunc(names, func(name string) bool {
		return !model.IsVersionOf(name, base)
	})

	if alias != "" {
		aliased, err := engine.GetAlias(ctx, alias)
		if err != nil {
			return 0, errors.Wrapf(err, "could not resolve alias '%s'", alias)
		}

		names = append(names, aliased...)
	}

	highest := 0
	for _, name := range names {
		if version, ok := model.IndexVersion(name); ok && version > highest {
			highest = version
		}
	}

	return highest + 1, nil
}

// IndicesWithAlias returns the indices of the server currently carrying the alias.
func (r *Resolver) IndicesWithAlias(ctx context.Context, server string, alias string) ([]model.Index, error) {
	_, engine, err := r.engines.Engine(ctx, server)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	names, err := engine.GetAlias(ctx, alias)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve alias '%s'", alias)
	}

	slices.Sort(names)
	names = slices.Compact(names)

	indices := make([]model.Index, 0, len(names))
	for _, name := range names {
		indices = append(indices, model.Index{
			Server:    server,
			Name:      name,
			Available: true,
		})
	}

	return indices, nil
}

func highestVersion(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}

	return slices.MaxFunc(names, compareIndexNames), true
}

func compareIndexNames(a, b string) int {
	va, aok := model.IndexVersion(a)
	vb, bok := model.IndexVersion(b)

	switch {
	case aok && bok && va != vb:
		if va < vb {
			return -1
		}
		return 1
	case aok && !bok:
		return 1
	case !aok && bok:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func NewResolver(engines port.EngineProvider) *Resolver {
	return &Resolver{
		engines: engines,
	}
}
