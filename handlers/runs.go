package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// defaultRunsLimit is used when the list request carries no explicit limit.
const defaultRunsLimit = 20

// ListRuns returns the most recent run log entries, optionally filtered by
// status.
func ListRuns(runStore interfaces.RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRunsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				logging.Warn("Unusual user input", "limit", raw)
				RespondWithError(w, http.StatusBadRequest, "Invalid limit value")
				return
			}
			limit = parsed
		}
		status := strings.TrimSpace(r.URL.Query().Get("status"))

		runs, err := runStore.ListRuns(limit, status)
		if err != nil {
			logging.Error("Failed to list runs", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to read the run log")
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":   true,
			"runs": runs,
		})
	}
}

// GetRun returns a single run log entry by id.
func GetRun(runStore interfaces.RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
		if runID == "" {
			RespondWithError(w, http.StatusBadRequest, "run_id is required")
			return
		}

		run, err := runStore.GetRun(runID)
		if err != nil {
			logging.Error("Failed to read run record", "run_id", runID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to read the run log")
			return
		}
		if run == nil {
			RespondWithError(w, http.StatusNotFound, "Run not found: "+runID)
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":  true,
			"run": run,
		})
	}
}

// DeleteRun removes a run log entry together with its synopsis runs.
func DeleteRun(runStore interfaces.RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			RunID string `json:"run_id"`
		}
		if !decodeJSONBody(w, r, &payload) {
			return
		}

		runID := strings.TrimSpace(payload.RunID)
		if runID == "" {
			RespondWithError(w, http.StatusBadRequest, "run_id is required")
			return
		}

		deleted, err := runStore.DeleteRun(runID)
		if err != nil {
			logging.Error("Failed to delete run record", "run_id", runID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to delete the run")
			return
		}
		if !deleted {
			RespondWithError(w, http.StatusNotFound, "Run not found: "+runID)
			return
		}

		logging.Info("Run deleted", "run_id", runID)
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"run_id":  runID,
			"deleted": true,
		})
	}
}
