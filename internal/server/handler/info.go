package handler

import "net/http"

// InfoHandler serves the service descriptor at the root path.
type InfoHandler struct {
	name      string
	endpoints map[string]string
}

// NewInfoHandler creates an InfoHandler describing the given endpoints.
func NewInfoHandler(name string, endpoints map[string]string) *InfoHandler {
	return &InfoHandler{name: name, endpoints: endpoints}
}

// Describe returns the service name, status and endpoint map.
// GET /
func (h *InfoHandler) Describe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   h.name,
		"status":    "running",
		"endpoints": h.endpoints,
	})
}

// NotFound answers unknown paths with the JSON error body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}
