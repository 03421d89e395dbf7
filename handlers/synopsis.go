package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/synopsis"
)

// BuildSynopsis generates a synopsis document for a finished analysis run.
func BuildSynopsis(service *synopsis.Service) http.HandlerFunc {
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

		result, err := service.Build(r.Context(), runID)
		if err != nil {
			if errors.Is(err, synopsis.ErrRunNotFound) {
				RespondWithError(w, http.StatusNotFound, "Run not found: "+runID)
				return
			}
			logging.Error("Synopsis build failed", "run_id", runID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Synopsis build failed: "+err.Error())
			return
		}

		logging.Info("Synopsis built",
			"run_id", runID,
			"synopsis_run_id", result.SynopsisRunID,
			"docx", result.OutputDocxPath)

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":               true,
			"run_id":           runID,
			"synopsis_run_id":  result.SynopsisRunID,
			"output_docx_path": result.OutputDocxPath,
			"download_url":     "/downloads/" + filepath.Base(result.OutputDocxPath),
		})
	}
}

// GetSynopsis returns the latest synopsis run for a run id, or null when
// none has been built yet.
func GetSynopsis(runStore interfaces.RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
		if runID == "" {
			RespondWithError(w, http.StatusBadRequest, "run_id is required")
			return
		}

		synopsisRun, err := runStore.LatestSynopsisForRun(runID)
		if err != nil {
			logging.Error("Failed to read synopsis run", "run_id", runID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to read the synopsis log")
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"synopsis": synopsisRun,
		})
	}
}
