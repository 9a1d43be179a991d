package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/pkg/errors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, res any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := encoder.Encode(res); err != nil {
		slog.ErrorContext(r.Context(), "could not encode response", slog.Any("error", errors.WithStack(err)))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, port.ErrCorpusBusy):
		status = http.StatusConflict
	case errors.Is(err, port.ErrCorpusNotReady):
		status = http.StatusUnprocessableEntity
	default:
		slog.ErrorContext(r.Context(), "could not handle request", slog.Any("error", errors.WithStack(err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	message := err.Error()

	var userFacing service.UserFacingError
	if errors.As(err, &userFacing) {
		message = userFacing.UserMessage()
	}

	writeJSON(w, r, status, ErrorResponse{Error: message})
}
