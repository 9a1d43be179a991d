package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/pkg/errors"
)

type ListIndicesResponse struct {
	Indices []Index `json:"indices"`
}

func (h *Handler) listIndices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	servers := h.servers
	if server := r.URL.Query().Get("server"); server != "" {
		servers = []string{server}
	}

	res := ListIndicesResponse{
		Indices: make([]Index, 0),
	}

	for _, s := range servers {
		indices, err := h.jobManager.RefreshIndices(ctx, s)
		if err != nil {
			writeError(w, r, errors.Wrapf(err, "could not refresh indices of server '%s'", s))
			return
		}

		slices.SortFunc(indices, func(i1, i2 model.Index) int {
			return strings.Compare(i1.Name, i2.Name)
		})

		for _, i := range indices {
			res.Indices = append(res.Indices, ToIndex(i))
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}
