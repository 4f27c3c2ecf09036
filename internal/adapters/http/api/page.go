package api

import (
	"net/http"

	"github.com/okian/eblviz/internal/domain/dosage"
)

// pageHandler serves the embedded slider page and its assets.
type pageHandler struct {
	static http.Handler
}

func newPageHandler() *pageHandler {
	return &pageHandler{static: http.StripPrefix("/static/", http.FileServerFS(pageFS))}
}

// HandleIndex handles GET / and answers 404 for any other unmatched path.
func (h *pageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, pageFS, "index.html")
}

// HandleStatic serves page scripts and styles under /static/.
func (h *pageHandler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.static.ServeHTTP(w, r)
}

type sliderGroup struct {
	Group   dosage.Group    `json:"group"`
	Title   string          `json:"title"`
	Sliders []dosage.Slider `json:"sliders"`
}

// HandleSliders handles GET /api/sliders with the metadata of both groups.
func (h *pageHandler) HandleSliders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, []sliderGroup{
		{Group: dosage.GroupPrediction, Title: "Intraoperative Drug Doses", Sliders: dosage.Sliders(dosage.GroupPrediction)},
		{Group: dosage.GroupAnimation, Title: "Animation Drug Effects", Sliders: dosage.Sliders(dosage.GroupAnimation)},
	})
}
