package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/okian/eblviz/internal/adapters/render"
	"github.com/okian/eblviz/internal/domain/animation"
	"github.com/okian/eblviz/internal/domain/dosage"
)

// AnimationDependencies defines the interface for the animation slider group.
type AnimationDependencies interface {
	Animation(ctx context.Context) (Animation, error)
	SetAnimation(ctx context.Context, v dosage.Vector) (Animation, error)
	Frame(ctx context.Context) (animation.Frame, error)
}

// AnimationHandler serves the animation doses and particle frames.
type AnimationHandler struct {
	deps AnimationDependencies
}

// NewAnimationHandler creates a new animation handler.
func NewAnimationHandler(deps AnimationDependencies) *AnimationHandler {
	return &AnimationHandler{deps: deps}
}

// HandleAnimation handles GET and POST /api/animation. A POST restarts the
// animation loop.
func (h *AnimationHandler) HandleAnimation(w http.ResponseWriter, r *http.Request) {
	const op = "api.animation"
	switch r.Method {
	case http.MethodGet:
		a, err := h.deps.Animation(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodPost:
		v, err := decodeDoses(w, r, op, dosage.GroupAnimation)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		a, err := h.deps.SetAnimation(r.Context(), v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeJSON(w, http.StatusOK, a)
	default:
		http.NotFound(w, r)
	}
}

// HandleFrame handles GET /api/animation/frame.
func (h *AnimationHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.frame"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := h.deps.Frame(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrNotReady, err))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleFrameSVG handles GET /api/animation/frame.svg.
func (h *AnimationHandler) HandleFrameSVG(w http.ResponseWriter, r *http.Request) {
	const op = "api.frame_svg"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := h.deps.Frame(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", WrapKind(op, ErrNotReady, err))
		return
	}
	var buf bytes.Buffer
	if err := render.FrameSVG(&buf, f); err != nil {
		writeError(w, http.StatusInternalServerError, "render_failed", WrapKind(op, ErrRender, err))
		return
	}
	writeSVG(w, buf.Bytes())
}
