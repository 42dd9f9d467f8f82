package api

import (
	"net/http"
	"strconv"
)

// LevelsHandler resolves level display configuration.
type LevelsHandler struct {
	deps Dependencies
}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler(deps Dependencies) *LevelsHandler {
	return &LevelsHandler{deps: deps}
}

// HandleGetLevel handles GET /levels/{level}. Unconfigured levels resolve
// to fallbacks rather than 404.
func (h *LevelsHandler) HandleGetLevel(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_level"
	n, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		writeServiceError(w, badRequest(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Level(n))
}
