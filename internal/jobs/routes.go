package jobs

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts job endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Post("/api/process-file", handleProcessFile(store))
	r.Get("/api/jobs", handleJobStats(store))
	r.Get("/api/jobs/{id}", handleGetJob(store))
}

type processFileRequest struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	Action   Action `json:"action"`
	Priority int    `json:"priority"`
}

type processFileResponse struct {
	JobID string `json:"job_id"`
}

// handleProcessFile is the enqueue entry point used by external
// file-change hooks.
func handleProcessFile(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Action == "" {
			req.Action = ActionUpdate
		}
		if !req.Action.Valid() {
			http.Error(w, "action must be one of create, update, delete", http.StatusBadRequest)
			return
		}
		if req.FilePath == "" {
			http.Error(w, "file_path is required", http.StatusBadRequest)
			return
		}

		jobID, err := store.Enqueue(r.Context(), req.FilePath, req.Content, req.Action, req.Priority)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusAccepted, processFileResponse{JobID: jobID})
	}
}

type jobStatsResponse struct {
	Stats          Stats `json:"stats"`
	RecentFailures []Job `json:"recent_failures,omitempty"`
}

func handleJobStats(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetStats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := jobStatsResponse{Stats: stats}
		if stats.Failed > 0 {
			failures, err := store.RecentFailures(r.Context(), 10)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			resp.RecentFailures = failures
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetJob(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
