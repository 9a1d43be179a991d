package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/core/service/servicetest"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/bornholm/corpus-indexer/pkg/client"
	"github.com/pkg/errors"
)

func newTestClient(t *testing.T) (*servicetest.Env, *client.Client) {
	env := servicetest.NewEnv(t)
	env.Corpora.Put(servicetest.Corpus("demo"))
	env.Readers.Set("demo", &servicetest.Reader{Total: 20, Start: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)})

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api.NewHandler(env.Manager, []string{servicetest.ServerName})))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	baseURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	c := client.New(client.WithBaseURL(baseURL))
	t.Cleanup(func() { c.Close() })

	return env, c
}

func TestClient(t *testing.T) {
	_, c := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job, err := c.Index(ctx, api.IndexJobRequest{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	job, err = c.WaitFor(ctx, job.ID, client.WithWaitForPollInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.TaskStatusDone, job.Status; e != g {
		t.Fatalf("job.Status: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(20), job.Tasks[1].Stats.DocumentsIndexed; e != g {
		t.Errorf("DocumentsIndexed: expected '%v', got '%v'", e, g)
	}

	jobs, err := c.ListJobs(ctx, client.ListJobsOptions{Corpus: "demo"})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(jobs); e != g {
		t.Errorf("len(jobs): expected '%v', got '%v'", e, g)
	}

	indices, err := c.ListIndices(ctx, servicetest.ServerName)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(indices); e != g {
		t.Fatalf("len(indices): expected '%v', got '%v'", e, g)
	}

	prune, err := c.Prune(ctx, service.PruneRequest{Corpus: "demo", Keep: 1})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := c.WaitFor(ctx, prune.ID, client.WithWaitForPollInterval(20*time.Millisecond)); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}
}

func TestClientError(t *testing.T) {
	_, c := newTestClient(t)

	ctx := context.Background()

	_, err := c.GetJob(ctx, "unknown")

	var clientErr *client.Error
	if !errors.As(err, &clientErr) {
		t.Fatalf("err: expected a *client.Error, got '%+v'", err)
	}

	if e, g := http.StatusNotFound, clientErr.StatusCode; e != g {
		t.Errorf("clientErr.StatusCode: expected '%v', got '%v'", e, g)
	}

	if clientErr.Message == "" {
		t.Errorf("expected an error message")
	}

	_, err = c.Index(ctx, api.IndexJobRequest{Corpus: "demo", StartDate: "yesterday"})
	if !errors.As(err, &clientErr) {
		t.Fatalf("err: expected a *client.Error, got '%+v'", err)
	}

	if e, g := http.StatusBadRequest, clientErr.StatusCode; e != g {
		t.Errorf("clientErr.StatusCode: expected '%v', got '%v'", e, g)
	}
}

func TestRateLimitTransport(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := &http.Client{
		Transport: &client.RateLimitTransport{
			MaxRetries:  3,
			DefaultWait: 10 * time.Millisecond,
		},
	}

	res, err := httpClient.Get(server.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	res.Body.Close()

	if e, g := http.StatusOK, res.StatusCode; e != g {
		t.Errorf("res.StatusCode: expected '%v', got '%v'", e, g)
	}

	if e, g := int32(3), calls.Load(); e != g {
		t.Errorf("calls: expected '%v', got '%v'", e, g)
	}

	calls.Store(0)

	httpClient.Transport.(*client.RateLimitTransport).MaxRetries = 1

	res, err = httpClient.Get(server.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	res.Body.Close()

	if e, g := http.StatusTooManyRequests, res.StatusCode; e != g {
		t.Errorf("res.StatusCode: expected '%v', got '%v'", e, g)
	}
}

func TestClientBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "indexer" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[]}`))
	}))
	defer server.Close()

	baseURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	baseURL.User = url.UserPassword("indexer", "secret")

	c := client.New(client.WithBaseURL(baseURL))
	defer c.Close()

	if _, err := c.ListJobs(context.Background(), client.ListJobsOptions{}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if baseURL.User == nil {
		t.Errorf("base url given by the caller should not be modified")
	}
}
