package api

import (
	"net/url"
	"strconv"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
)

const maxQueryLimit = 100

// getQueryJobsOptions reads the pagination and corpus filter of a job listing.
func getQueryJobsOptions(query url.Values) port.QueryJobsOptions {
	page := max(getQueryInt(query, "page", 0), 0)

	limit := getQueryInt(query, "limit", 20)
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	opts := port.QueryJobsOptions{
		Page:  &page,
		Limit: &limit,
	}

	if raw := query.Get("corpus"); raw != "" {
		corpus := model.CorpusName(raw)
		opts.Corpus = &corpus
	}

	return opts
}

func getQueryInt(query url.Values, name string, defaultValue int) int {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return defaultValue
	}

	return int(value)
}
