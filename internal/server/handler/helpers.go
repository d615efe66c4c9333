package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"success":false,"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// writeError sends a JSON-formatted client error.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// WriteInternalError sends the generic 500 body with a human-readable detail.
// It is exported for the recovery middleware.
func WriteInternalError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:  "Internal server error",
		Detail: detail,
	})
}

// parseQueryOpts extracts the list filters from the query string. Unlike
// pagination helpers that clamp silently, malformed values are rejected so the
// caller can answer 400.
func parseQueryOpts(r *http.Request) (domain.QueryOpts, error) {
	q := r.URL.Query()
	opts := domain.QueryOpts{
		Limit:    domain.DefaultQueryLimit,
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 || n > domain.MaxQueryLimit {
			return opts, fmt.Errorf("%w: limit must be an integer between 1 and %d", domain.ErrInvalidQuery, domain.MaxQueryLimit)
		}
		opts.Limit = n
	}

	if v := q.Get("min_volume"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return opts, fmt.Errorf("%w: min_volume must be a non-negative number", domain.ErrInvalidQuery)
		}
		opts.MinVolume = f
	}

	return opts, nil
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// ageSeconds renders a cache age the way clients expect it: whole seconds.
func ageSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// clientMessage strips the sentinel prefix from a validation error.
func clientMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidQuery.Error()+": ")
}
