package client

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// RateLimitTransport retries the requests refused with a 429 status, waiting
// for the delay advertised by the server.
type RateLimitTransport struct {
	Base        http.RoundTripper
	MaxRetries  int
	DefaultWait time.Duration
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Base
	if transport == nil {
		transport = http.DefaultTransport
	}

	for attempt := 0; ; attempt++ {
		res, err := transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode != http.StatusTooManyRequests || attempt >= t.MaxRetries {
			return res, nil
		}

		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()

		wait := t.waitTime(res)

		slog.WarnContext(req.Context(), "rate limited by server", slog.Duration("wait", wait), slog.Int("attempt", attempt+1), slog.Int("maxRetries", t.MaxRetries))

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errors.Wrap(err, "could not rewind request body")
			}
			req.Body = body
		} else if req.Body != nil && req.Body != http.NoBody {
			return nil, errors.New("cannot retry request with a one-time body")
		}
	}
}

func (t *RateLimitTransport) waitTime(res *http.Response) time.Duration {
	retryAfter := res.Header.Get("Retry-After")
	if retryAfter == "" {
		return t.DefaultWait
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		wait := time.Duration(seconds) * time.Second
		jitter := time.Duration(rand.Int64N(int64(time.Second)))
		return wait + jitter
	}

	if date, err := http.ParseTime(retryAfter); err == nil {
		if wait := time.Until(date); wait > 0 {
			return wait
		}
	}

	return t.DefaultWait
}

var _ http.RoundTripper = &RateLimitTransport{}
