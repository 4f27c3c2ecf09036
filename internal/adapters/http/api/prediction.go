package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/eblviz/internal/adapters/render"
	service "github.com/okian/eblviz/internal/app"
	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/histogram"
	"github.com/okian/eblviz/pkg/metrics"
)

// PredictionDependencies defines the interface for the prediction slider group.
type PredictionDependencies interface {
	Prediction(ctx context.Context) (Prediction, error)
	SetPrediction(ctx context.Context, v dosage.Vector) (Prediction, error)
	Histogram(ctx context.Context) (histogram.Layout, error)
}

// PredictionHandler serves the prediction estimate and its histogram.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandlePrediction handles GET and POST /api/prediction.
func (h *PredictionHandler) HandlePrediction(w http.ResponseWriter, r *http.Request) {
	const op = "api.prediction"
	switch r.Method {
	case http.MethodGet:
		p, err := h.deps.Prediction(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPost:
		v, err := decodeDoses(w, r, op, dosage.GroupPrediction)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		p, err := h.deps.SetPrediction(r.Context(), v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		http.NotFound(w, r)
	}
}

// HandleHistogram handles GET /api/prediction/histogram and returns the layout as JSON.
func (h *PredictionHandler) HandleHistogram(w http.ResponseWriter, r *http.Request) {
	const op = "api.histogram"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	start := time.Now()
	l, ok := h.layout(w, r, op)
	if !ok {
		return
	}
	metrics.RecordHistogramRender("json", float64(time.Since(start).Milliseconds()), len(l.Bins))
	writeJSON(w, http.StatusOK, l)
}

// HandleHistogramSVG handles GET /api/prediction/histogram.svg.
func (h *PredictionHandler) HandleHistogramSVG(w http.ResponseWriter, r *http.Request) {
	const op = "api.histogram_svg"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	start := time.Now()
	l, ok := h.layout(w, r, op)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.HistogramSVG(&buf, l); err != nil {
		writeError(w, http.StatusInternalServerError, "render_failed", WrapKind(op, ErrRender, err))
		return
	}
	metrics.RecordHistogramRender("svg", float64(time.Since(start).Milliseconds()), len(l.Bins))
	writeSVG(w, buf.Bytes())
}

func (h *PredictionHandler) layout(w http.ResponseWriter, r *http.Request, op string) (histogram.Layout, bool) {
	l, err := h.deps.Histogram(r.Context())
	switch {
	case err == nil:
		return l, true
	case errors.Is(err, service.ErrNoDataset), errors.Is(err, histogram.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, histogram.ErrTooManyBins):
		writeError(w, http.StatusUnprocessableEntity, "dataset_out_of_range", WrapKind(op, ErrOutOfRange, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
	return histogram.Layout{}, false
}

func writeSVG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
