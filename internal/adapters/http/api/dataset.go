package api

import (
	"context"
	"net/http"

	"github.com/okian/eblviz/internal/adapters/dataset"
)

// DatasetDependencies exposes the loaded records.
type DatasetDependencies interface {
	Dataset(ctx context.Context) ([]dataset.Record, error)
}

// DatasetHandler re-serves the dataset to the page.
type DatasetHandler struct {
	deps DatasetDependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps DatasetDependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// HandleHealthData handles GET /health_data.
func (h *DatasetHandler) HandleHealthData(w http.ResponseWriter, r *http.Request) {
	const op = "api.health_data"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	recs, err := h.deps.Dataset(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
