package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/internal/core/service/servicetest"
	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/pkg/errors"
)

var demoStart = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*servicetest.Env, *httptest.Server) {
	env := servicetest.NewEnv(t)
	env.Corpora.Put(servicetest.Corpus("demo"))
	env.Readers.Set("demo", &servicetest.Reader{Total: 50, Start: demoStart})

	handler := api.NewHandler(env.Manager, []string{servicetest.ServerName})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return env, server
}

func doJSON(t *testing.T, method string, url string, payload any, result any) int {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defer res.Body.Close()

	if result != nil {
		if err := json.NewDecoder(res.Body).Decode(result); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	return res.StatusCode
}

func TestHandlerJobLifecycle(t *testing.T) {
	env, server := newTestServer(t)

	var created api.JobResponse
	status := doJSON(t, http.MethodPost, server.URL+"/jobs", api.IndexJobRequest{Corpus: "demo", StartDate: "1950-01-01", EndDate: "1950-01-10"}, &created)

	if e, g := http.StatusAccepted, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if created.Job == nil || created.Job.ID == "" {
		t.Fatalf("expected a job, got '%v'", created.Job)
	}

	if e, g := 4, len(created.Job.Tasks); e != g {
		t.Errorf("len(created.Job.Tasks): expected '%v', got '%v'", e, g)
	}

	env.Wait(t, created.Job.ID)

	var shown api.JobResponse
	status = doJSON(t, http.MethodGet, server.URL+"/jobs/"+string(created.Job.ID), nil, &shown)

	if e, g := http.StatusOK, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if e, g := model.TaskStatusDone, shown.Job.Status; e != g {
		t.Errorf("shown.Job.Status: expected '%v', got '%v'", e, g)
	}

	if e, g := int64(10), shown.Job.Tasks[1].Stats.DocumentsIndexed; e != g {
		t.Errorf("DocumentsIndexed: expected '%v', got '%v'", e, g)
	}

	if shown.Job.Tasks[1].StartedAt == nil || shown.Job.Tasks[1].FinishedAt == nil {
		t.Errorf("task timestamps should be set")
	}

	var list api.ListJobsResponse
	status = doJSON(t, http.MethodGet, server.URL+"/jobs?corpus=demo", nil, &list)

	if e, g := http.StatusOK, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if e, g := 1, len(list.Jobs); e != g {
		t.Fatalf("len(list.Jobs): expected '%v', got '%v'", e, g)
	}

	status = doJSON(t, http.MethodGet, server.URL+"/jobs?corpus=other", nil, &list)

	if e, g := http.StatusOK, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if e, g := 0, len(list.Jobs); e != g {
		t.Errorf("len(list.Jobs): expected '%v', got '%v'", e, g)
	}

	// Cancelling a finished job leaves it untouched
	var cancelled api.JobResponse
	status = doJSON(t, http.MethodPost, server.URL+"/jobs/"+string(created.Job.ID)+"/cancel", nil, &cancelled)

	if e, g := http.StatusOK, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if e, g := model.TaskStatusDone, cancelled.Job.Status; e != g {
		t.Errorf("cancelled.Job.Status: expected '%v', got '%v'", e, g)
	}

	var indices api.ListIndicesResponse
	status = doJSON(t, http.MethodGet, server.URL+"/indices", nil, &indices)

	if e, g := http.StatusOK, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	if e, g := 1, len(indices.Indices); e != g {
		t.Fatalf("len(indices.Indices): expected '%v', got '%v'", e, g)
	}

	if e, g := "demo", indices.Indices[0].Name; e != g {
		t.Errorf("indices.Indices[0].Name: expected '%v', got '%v'", e, g)
	}

	if !indices.Indices[0].Available {
		t.Errorf("index should be available")
	}
}

func TestHandlerErrors(t *testing.T) {
	env, server := newTestServer(t)

	draft := servicetest.Corpus("draft")
	draft.Mappings = nil
	env.Corpora.Put(draft)

	blocking := servicetest.Corpus("blocking")
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	env.Corpora.Put(blocking)
	env.Readers.Set("blocking", &servicetest.Reader{Total: 10, Start: demoStart, Block: block})

	ctx := context.Background()
	if _, err := env.Manager.Index(ctx, service.IndexRequest{Corpus: "blocking"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	type testCase struct {
		Name     string
		Method   string
		Path     string
		Payload  any
		Expected int
	}

	testCases := []testCase{
		{Name: "invalid date", Method: http.MethodPost, Path: "/jobs", Payload: api.IndexJobRequest{Corpus: "demo", StartDate: "01/02/1950"}, Expected: http.StatusBadRequest},
		{Name: "conflicting options", Method: http.MethodPost, Path: "/jobs", Payload: api.IndexJobRequest{Corpus: "demo", Add: true, Clear: true}, Expected: http.StatusBadRequest},
		{Name: "invalid body", Method: http.MethodPost, Path: "/jobs", Payload: "not an object", Expected: http.StatusBadRequest},
		{Name: "unknown corpus", Method: http.MethodPost, Path: "/jobs", Payload: api.IndexJobRequest{Corpus: "unknown"}, Expected: http.StatusNotFound},
		{Name: "corpus not ready", Method: http.MethodPost, Path: "/jobs", Payload: api.IndexJobRequest{Corpus: "draft"}, Expected: http.StatusUnprocessableEntity},
		{Name: "busy corpus", Method: http.MethodPost, Path: "/jobs", Payload: api.IndexJobRequest{Corpus: "blocking"}, Expected: http.StatusConflict},
		{Name: "busy corpus prune", Method: http.MethodPost, Path: "/prune", Payload: map[string]any{"corpus": "blocking", "keep": 1}, Expected: http.StatusConflict},
		{Name: "unknown job", Method: http.MethodGet, Path: "/jobs/unknown", Expected: http.StatusNotFound},
		{Name: "cancel unknown job", Method: http.MethodPost, Path: "/jobs/unknown/cancel", Expected: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			var res api.ErrorResponse

			status := doJSON(t, tc.Method, server.URL+tc.Path, tc.Payload, &res)

			if e, g := tc.Expected, status; e != g {
				t.Fatalf("status: expected '%v', got '%v' (%s)", e, g, res.Error)
			}

			if res.Error == "" {
				t.Errorf("expected an error message")
			}
		})
	}
}

func TestHandlerPrune(t *testing.T) {
	env, server := newTestServer(t)

	ctx := context.Background()

	for _, name := range []string{"demo-1", "demo-2", "demo-3"} {
		if err := env.Engine.CreateIndex(ctx, name, port.IndexDefinition{}); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	var res api.JobResponse
	status := doJSON(t, http.MethodPost, server.URL+"/prune", map[string]any{"corpus": "demo", "keep": 1}, &res)

	if e, g := http.StatusAccepted, status; e != g {
		t.Fatalf("status: expected '%v', got '%v'", e, g)
	}

	job := env.Wait(t, res.Job.ID)

	if e, g := model.TaskStatusDone, job.Status(); e != g {
		t.Fatalf("job.Status(): expected '%v', got '%v'", e, g)
	}

	names, err := env.Engine.GetIndices(ctx, "demo-*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(names); e != g {
		t.Fatalf("len(names): expected '%v', got '%v'", e, g)
	}

	if e, g := "demo-3", names[0]; e != g {
		t.Errorf("names[0]: expected '%v', got '%v'", e, g)
	}
}
