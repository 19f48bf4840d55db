// Package runs exposes stored disaggregation runs over HTTP.
package runs

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/infra/store"
)

// Prefix is the path the handler is mounted on.
const Prefix = "/api/runs"

// Reader is the read side of the report store.
type Reader interface {
	Runs(ctx context.Context) ([]store.Run, error)
	Results(ctx context.Context, runID string) ([]disagg.Result, error)
}

// NewHandler returns an HTTP handler serving GET /api/runs and
// GET /api/runs/{id}. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewHandler(r Reader, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if token != "" {
			auth := req.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.Trim(strings.TrimPrefix(req.URL.Path, Prefix), "/")
		var (
			body any
			err  error
		)
		if id == "" {
			body, err = r.Runs(req.Context())
		} else {
			var res []disagg.Result
			res, err = r.Results(req.Context(), id)
			if err == nil && len(res) == 0 && !hasRun(req.Context(), r, id) {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			body = res
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func hasRun(ctx context.Context, r Reader, id string) bool {
	all, err := r.Runs(ctx)
	if err != nil {
		return false
	}
	for _, run := range all {
		if run.ID == id {
			return true
		}
	}
	return false
}
