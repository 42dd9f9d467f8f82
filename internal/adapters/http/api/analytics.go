package api

import "net/http"

// AnalyticsHandler proxies analytics from the backend.
type AnalyticsHandler struct {
	deps Dependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps Dependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleGetAnalytics handles GET /analytics?department=.
func (h *AnalyticsHandler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.deps.Analytics(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
