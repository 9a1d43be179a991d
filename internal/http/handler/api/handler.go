package api

import (
	"net/http"

	"github.com/bornholm/corpus-indexer/internal/core/service"
)

type Handler struct {
	jobManager *service.JobManager
	servers    []string
	mux        *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(jobManager *service.JobManager, servers []string) *Handler {
	h := &Handler{
		jobManager: jobManager,
		servers:    servers,
		mux:        &http.ServeMux{},
	}

	h.mux.HandleFunc("POST /jobs", h.createJob)
	h.mux.HandleFunc("GET /jobs", h.listJobs)
	h.mux.HandleFunc("GET /jobs/{jobID}", h.showJob)
	h.mux.HandleFunc("POST /jobs/{jobID}/cancel", h.cancelJob)
	h.mux.HandleFunc("POST /prune", h.prune)
	h.mux.HandleFunc("GET /indices", h.listIndices)

	return h
}

var _ http.Handler = &Handler{}
