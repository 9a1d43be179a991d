package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/pkg/errors"
)

func TestWaitForHealth(t *testing.T) {
	type testCase struct {
		Name          string
		StatusCode    int
		Body          string
		Wanted        port.HealthStatus
		ExpectedError bool
	}

	testCases := []testCase{
		{
			Name:       "green when yellow is required",
			StatusCode: http.StatusOK,
			Body:       `{"status":"green","timed_out":false}`,
			Wanted:     port.HealthYellow,
		},
		{
			Name:       "yellow when yellow is required",
			StatusCode: http.StatusOK,
			Body:       `{"status":"yellow","timed_out":false}`,
			Wanted:     port.HealthYellow,
		},
		{
			Name:          "red when yellow is required",
			StatusCode:    http.StatusOK,
			Body:          `{"status":"red","timed_out":false}`,
			Wanted:        port.HealthYellow,
			ExpectedError: true,
		},
		{
			Name:          "timed out",
			StatusCode:    http.StatusRequestTimeout,
			Body:          `{"status":"red","timed_out":true}`,
			Wanted:        port.HealthYellow,
			ExpectedError: true,
		},
		{
			Name:          "bad gateway",
			StatusCode:    http.StatusBadGateway,
			Body:          `{"error":{"type":"proxy_error","reason":"upstream unavailable"}}`,
			Wanted:        port.HealthYellow,
			ExpectedError: true,
		},
		{
			Name:          "unauthorized",
			StatusCode:    http.StatusUnauthorized,
			Body:          `{"error":{"type":"security_exception","reason":"missing authentication credentials"}}`,
			Wanted:        port.HealthYellow,
			ExpectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Elastic-Product", "Elasticsearch")
				w.Header().Set("Content-Type", "application/json")

				switch r.URL.Path {
				case "/":
					w.Write([]byte(`{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`))
				case "/_cluster/health":
					if e, g := string(tc.Wanted), r.URL.Query().Get("wait_for_status"); e != g {
						t.Errorf("wait_for_status: expected '%v', got '%v'", e, g)
					}

					w.WriteHeader(tc.StatusCode)
					w.Write([]byte(tc.Body))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			address, err := url.Parse(server.URL)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			engine, err := fromURL(&url.URL{Scheme: Scheme, Host: address.Host})
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			err = engine.WaitForHealth(context.Background(), tc.Wanted, time.Second)

			if tc.ExpectedError && err == nil {
				t.Errorf("expected an error, got nil")
			}

			if !tc.ExpectedError && err != nil {
				t.Errorf("unexpected error: %+v", errors.WithStack(err))
			}
		})
	}
}
