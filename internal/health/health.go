// Package health provides HTTP liveness and readiness handlers.
//
//   - /healthz — liveness probe; always returns 200 OK.
//   - /readyz  — readiness probe; 200 only when every registered [Check]
//     passes.
//
// Responses are JSON with a top-level "status" ("ok" or "fail") and a
// "checks" map holding each named check's result.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Check is a named readiness probe. Probe returns nil when the dependency is
// healthy and must respect context cancellation.
type Check struct {
	// Name labels this check in the JSON response (e.g. "reports", "llm").
	Name string

	// Probe inspects the dependency.
	Probe func(ctx context.Context) error
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the /healthz and /readyz endpoints. The check list is fixed
// at construction time; the Handler is safe for concurrent use.
type Handler struct {
	checks []Check
}

// New creates a [Handler] that evaluates the given checks, in order, on each
// /readyz request.
func New(checks ...Check) *Handler {
	return &Handler{checks: append([]Check(nil), checks...)}
}

// Healthz always returns 200 OK; a process that can serve HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz returns 200 only when every registered [Check] passes. Each probe
// runs with a [checkTimeout] deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(h.checks))
	status := http.StatusOK
	body := response{Status: "ok", Checks: results}

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Probe(ctx)
		cancel()

		if err != nil {
			results[c.Name] = "fail: " + err.Error()
			body.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}

	writeJSON(w, status, body)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
