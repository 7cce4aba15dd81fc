package resync

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the resync endpoint on the given router.
func RegisterRoutes(r chi.Router, coordinator *Coordinator) {
	r.Post("/api/resync", handleResync(coordinator))
}

type resyncRequest struct {
	Force  bool `json:"force"`
	DryRun bool `json:"dry_run"`
}

// handleResync runs a reconciliation pass synchronously and returns its
// summary. The pass only enqueues jobs, so it stays fast even for large
// corpora; the actual indexing happens in the worker pool.
func handleResync(coordinator *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resyncRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}

		summary, err := coordinator.Run(r.Context(), Options{Force: req.Force, DryRun: req.DryRun})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
