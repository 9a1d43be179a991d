package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bornholm/corpus-indexer/internal/http/handler/api"
	"github.com/pkg/errors"
)

// Error is returned when the server answers with an error status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response code %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response code %d: %s", e.StatusCode, e.Message)
}

func (c *Client) request(ctx context.Context, method string, path string, query url.Values, body io.Reader, result io.Writer) error {
	url := c.baseURL.JoinPath("/api/v1", path)
	if query != nil {
		url.RawQuery = query.Encode()
	}

	slog.DebugContext(ctx, "new client request", slog.String("method", method), slog.String("path", url.Path), slog.String("host", url.Host))

	req, err := http.NewRequestWithContext(ctx, method, url.String(), body)
	if err != nil {
		return errors.WithStack(err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.basicAuth != nil {
		password, _ := c.basicAuth.Password()
		req.SetBasicAuth(c.basicAuth.Username(), password)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusBadRequest {
		var errRes api.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errRes)

		return errors.WithStack(&Error{StatusCode: res.StatusCode, Message: errRes.Error})
	}

	if _, err := io.Copy(result, res.Body); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *Client) jsonRequest(ctx context.Context, method string, path string, query url.Values, payload any, result any) error {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.WithStack(err)
		}

		body = bytes.NewReader(data)
	}

	var buff bytes.Buffer

	if err := c.request(ctx, method, path, query, body, &buff); err != nil {
		return errors.WithStack(err)
	}

	if err := json.Unmarshal(buff.Bytes(), result); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
