package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// scoreRequest mirrors the body of POST /scores.
type scoreRequest struct {
	EmployeeID int64  `json:"employee_id"`
	ColumnID   string `json:"column_id"`
	Level      *int   `json:"level"`
	Notes      string `json:"notes"`
}

func (s scoreRequest) validate() error {
	switch {
	case s.EmployeeID <= 0:
		return errors.New("missing employee_id")
	case strings.TrimSpace(s.ColumnID) == "":
		return errors.New("missing column_id")
	case s.Level == nil:
		return errors.New("missing level")
	case *s.Level < 0:
		return errors.New("level must be >= 0")
	}
	return nil
}

// ScoresHandler handles score writes.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandlePostScore handles POST /scores.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, badRequest(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, badRequest(op, err))
		return
	}
	score, err := h.deps.UpdateScore(r.Context(), req.EmployeeID, req.ColumnID, *req.Level, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
