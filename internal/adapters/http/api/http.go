// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/eblviz/internal/app"
	"github.com/okian/eblviz/internal/domain/dosage"
)

// maxBodyBytes bounds slider payloads.
const maxBodyBytes = 4 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictionDependencies
	AnimationDependencies
	DatasetDependencies
}

// Prediction mirrors the prediction read shape.
type Prediction = service.Prediction

// Animation mirrors the animation read shape.
type Animation = service.Animation

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictionHandler *PredictionHandler
	animationHandler  *AnimationHandler
	datasetHandler    *DatasetHandler
	pageHandler       *pageHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		predictionHandler: NewPredictionHandler(deps),
		animationHandler:  NewAnimationHandler(deps),
		datasetHandler:    NewDatasetHandler(deps),
		pageHandler:       newPageHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/health_data", MetricsMiddleware(s.datasetHandler.HandleHealthData, "health_data"))
	mux.HandleFunc("/api/sliders", MetricsMiddleware(s.pageHandler.HandleSliders, "sliders"))
	mux.HandleFunc("/api/prediction", MetricsMiddleware(s.predictionHandler.HandlePrediction, "prediction"))
	mux.HandleFunc("/api/prediction/histogram", MetricsMiddleware(s.predictionHandler.HandleHistogram, "histogram"))
	mux.HandleFunc("/api/prediction/histogram.svg", MetricsMiddleware(s.predictionHandler.HandleHistogramSVG, "histogram_svg"))
	mux.HandleFunc("/api/animation", MetricsMiddleware(s.animationHandler.HandleAnimation, "animation"))
	mux.HandleFunc("/api/animation/frame", MetricsMiddleware(s.animationHandler.HandleFrame, "frame"))
	mux.HandleFunc("/api/animation/frame.svg", MetricsMiddleware(s.animationHandler.HandleFrameSVG, "frame_svg"))
	mux.HandleFunc("/static/", s.pageHandler.HandleStatic)
	mux.HandleFunc("/", MetricsMiddleware(s.pageHandler.HandleIndex, "index"))
}

// doseRequest is the slider payload: drug id (bare or the group's form key)
// to dose.
type doseRequest map[string]int

func (d doseRequest) vector(g dosage.Group) (dosage.Vector, error) {
	return dosage.FromGroupMap(g, d)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeDoses reads a slider payload of group g into a validated vector.
func decodeDoses(w http.ResponseWriter, r *http.Request, op string, g dosage.Group) (dosage.Vector, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	var req doseRequest
	if err := dec.Decode(&req); err != nil {
		return dosage.Vector{}, WrapKind(op, ErrBadRequest, err)
	}
	v, err := req.vector(g)
	if err != nil {
		return dosage.Vector{}, WrapKind(op, ErrBadRequest, err)
	}
	return v, nil
}

