package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/progress"
)

// matrixResponse is the read shape of GET /matrix.
type matrixResponse struct {
	Data     *model.MatrixData   `json:"data"`
	Loading  bool                `json:"loading"`
	Error    string              `json:"error,omitempty"`
	Filters  model.FilterOptions `json:"filters"`
	Version  uint64              `json:"version"`
	Progress []progressEntry     `json:"progress,omitempty"`
}

type progressEntry struct {
	EmployeeID int64  `json:"employee_id"`
	Total      int    `json:"total"`
	Max        int    `json:"max"`
	Percent    int    `json:"percent"`
	Band       string `json:"band"`
	Color      string `json:"color"`
}

func toProgressEntries(sums []progress.Summary) []progressEntry {
	out := make([]progressEntry, 0, len(sums))
	for _, s := range sums {
		out = append(out, progressEntry{
			EmployeeID: s.EmployeeID,
			Total:      s.Total,
			Max:        s.Max,
			Percent:    s.Percent,
			Band:       string(s.Band),
			Color:      s.Band.Color(),
		})
	}
	return out
}

// MatrixHandler serves the matrix snapshot and load controls.
type MatrixHandler struct {
	deps Dependencies
}

// NewMatrixHandler creates a new matrix handler.
func NewMatrixHandler(deps Dependencies) *MatrixHandler {
	return &MatrixHandler{deps: deps}
}

// HandleGetMatrix handles GET /matrix. It never calls the backend.
func (h *MatrixHandler) HandleGetMatrix(w http.ResponseWriter, _ *http.Request) {
	st := h.deps.MatrixState()
	resp := matrixResponse{
		Data:     st.Data,
		Loading:  st.Loading,
		Filters:  st.Filters,
		Version:  st.Version,
		Progress: toProgressEntries(h.deps.Progress()),
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReload handles POST /matrix/reload.
func (h *MatrixHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Reload(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	h.HandleGetMatrix(w, r)
}

// HandleSetFilters handles PUT /matrix/filters.
func (h *MatrixHandler) HandleSetFilters(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_filters"
	var f model.FilterOptions
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeServiceError(w, badRequest(op, err))
		return
	}
	if err := h.deps.SetFilters(r.Context(), f); err != nil {
		writeServiceError(w, err)
		return
	}
	h.HandleGetMatrix(w, r)
}
