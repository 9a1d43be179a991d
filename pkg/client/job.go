package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/pkg/errors"
)

func (c *Client) Index(ctx context.Context, req api.IndexJobRequest) (*api.Job, error) {
	var res api.JobResponse
	if err := c.jsonRequest(ctx, "POST", "/jobs", nil, req, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Job, nil
}

func (c *Client) Prune(ctx context.Context, req service.PruneRequest) (*api.Job, error) {
	var res api.JobResponse
	if err := c.jsonRequest(ctx, "POST", "/prune", nil, req, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Job, nil
}

func (c *Client) GetJob(ctx context.Context, id model.JobID) (*api.Job, error) {
	var res api.JobResponse
	if err := c.jsonRequest(ctx, "GET", "/jobs/"+url.PathEscape(string(id)), nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Job, nil
}

func (c *Client) CancelJob(ctx context.Context, id model.JobID) (*api.Job, error) {
	var res api.JobResponse
	if err := c.jsonRequest(ctx, "POST", "/jobs/"+url.PathEscape(string(id))+"/cancel", nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Job, nil
}

type ListJobsOptions struct {
	Corpus string
	Page   int
	Limit  int
}

func (c *Client) ListJobs(ctx context.Context, opts ListJobsOptions) ([]*api.Job, error) {
	query := url.Values{}

	if opts.Corpus != "" {
		query.Set("corpus", opts.Corpus)
	}

	query.Set("page", strconv.Itoa(opts.Page))

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var res api.ListJobsResponse
	if err := c.jsonRequest(ctx, "GET", "/jobs", query, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Jobs, nil
}

func (c *Client) ListIndices(ctx context.Context, server string) ([]api.Index, error) {
	query := url.Values{}
	if server != "" {
		query.Set("server", server)
	}

	var res api.ListIndicesResponse
	if err := c.jsonRequest(ctx, "GET", "/indices", query, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return res.Indices, nil
}

type WaitForOptions struct {
	PollInterval time.Duration
}

type WaitForOptionFunc func(opts *WaitForOptions)

func WithWaitForPollInterval(interval time.Duration) WaitForOptionFunc {
	return func(opts *WaitForOptions) {
		opts.PollInterval = interval
	}
}

func NewWaitForOptions(funcs ...WaitForOptionFunc) *WaitForOptions {
	opts := &WaitForOptions{
		PollInterval: time.Second * 2,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

// WaitFor polls the job until it reaches a terminal status.
func (c *Client) WaitFor(ctx context.Context, id model.JobID, funcs ...WaitForOptionFunc) (*api.Job, error) {
	opts := NewWaitForOptions(funcs...)

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(ctx, id)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}
