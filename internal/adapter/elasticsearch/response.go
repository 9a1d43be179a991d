package elasticsearch

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
)

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// Error is a failure reported by the engine.
type Error struct {
	StatusCode int
	Type       string
	Reason     string
}

func (e *Error) Error() string {
	if e.Type == "" {
		return "elasticsearch: unexpected status " + http.StatusText(e.StatusCode)
	}

	return "elasticsearch: " + e.Type + ": " + e.Reason
}

func (e *Error) Is(err error) bool {
	switch err {
	case port.ErrIndexExists:
		return e.Type == "resource_already_exists_exception"
	case port.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	responseErr := &Error{StatusCode: res.StatusCode}

	var payload errorResponse
	if err := json.Unmarshal(data, &payload); err == nil {
		responseErr.Type = payload.Error.Type
		responseErr.Reason = payload.Error.Reason
	}

	return errors.WithStack(responseErr)
}

func decodeResponse(res *esapi.Response, v any) error {
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return errors.WithStack(err)
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Wrap(err, "could not decode response")
	}

	return nil
}
