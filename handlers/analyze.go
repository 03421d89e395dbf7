package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// finishRun marks the run done and stores the analysis text.
func finishRun(runStore interfaces.RunStore, runID, analysisText string) error {
	return runStore.UpdateRun(runID, map[string]interface{}{
		"status":             "done",
		"finished_at":        nowTimestamp(),
		"router_output_text": analysisText,
	})
}

// failRun marks the run failed. Errors are logged and swallowed since the
// client already receives the original failure.
func failRun(runStore interfaces.RunStore, runID string) {
	err := runStore.UpdateRun(runID, map[string]interface{}{
		"status":      "error",
		"finished_at": nowTimestamp(),
	})
	if err != nil {
		logging.Error("Failed to mark run as failed", "run_id", runID, "error", err)
	}
}

// RouterAnalyze runs the remote regulatory analysis for a reference drug
// named directly by the client.
func RouterAnalyze(runStore interfaces.RunStore, llm interfaces.AnalysisClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ReferenceDrug string `json:"reference_drug"`
		}
		if !decodeJSONBody(w, r, &payload) {
			return
		}

		referenceDrug := strings.TrimSpace(payload.ReferenceDrug)
		if referenceDrug == "" {
			RespondWithError(w, http.StatusBadRequest, "reference_drug is required")
			return
		}

		run := interfaces.RunRecord{
			ID:                    uuid.NewString(),
			CreatedAt:             nowTimestamp(),
			Status:                "running",
			StartedAt:             strPtr(nowTimestamp()),
			Mode:                  "router",
			SelectedReferenceDrug: strPtr(referenceDrug),
		}
		if err := runStore.InsertRun(run); err != nil {
			logging.Error("Failed to insert run record", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to record the analysis run")
			return
		}

		logging.Info("Analysis started", "run_id", run.ID, "reference_drug", referenceDrug)
		analysisText, err := llm.AnalyzeReferenceDrug(r.Context(), referenceDrug)
		if err != nil {
			logging.Error("Analysis failed", "run_id", run.ID, "error", err)
			failRun(runStore, run.ID)
			RespondWithError(w, http.StatusBadGateway, "Analysis failed: "+err.Error())
			return
		}

		if err := finishRun(runStore, run.ID, analysisText); err != nil {
			logging.Error("Failed to store analysis result", "run_id", run.ID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to store the analysis result")
			return
		}

		logging.Info("Analysis completed", "run_id", run.ID, "chars", len(analysisText))
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":             true,
			"run_id":         run.ID,
			"reference_drug": referenceDrug,
			"analysis_text":  analysisText,
		})
	}
}

// PipelineAnalyze chains reference selection and remote analysis in one
// call: the chosen option is recorded and its reference drug is analyzed.
func PipelineAnalyze(dataStore interfaces.DataStore, sessions *data.SessionStore, runStore interfaces.RunStore, llm interfaces.AnalysisClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload choosePayload
		if !decodeJSONBody(w, r, &payload) {
			return
		}

		sessionID := strings.TrimSpace(payload.SessionID)
		if sessionID == "" {
			RespondWithError(w, http.StatusBadRequest, "session_id is required")
			return
		}
		session, ok := sessions.Get(sessionID)
		if !ok {
			RespondWithError(w, http.StatusNotFound, "Session not found: "+sessionID)
			return
		}

		result, herr := applyChoice(dataStore, session, payload)
		if herr != nil {
			RespondWithError(w, herr.status, herr.message)
			return
		}

		run := interfaces.RunRecord{
			ID:                    uuid.NewString(),
			CreatedAt:             nowTimestamp(),
			Status:                "running",
			StartedAt:             strPtr(nowTimestamp()),
			Mode:                  "pipeline",
			SessionID:             strPtr(session.RequestID),
			QueryJSON:             marshalString(session.Normalized),
			MatchesCount:          intPtr(len(session.MatchedIdx)),
			ReferenceOptionsCount: intPtr(len(session.Options)),
			SelectedReferenceDrug: strPtr(result.chosenReference),
			SelectionRowsCount:    intPtr(result.rowsCount),
			SelectionJSON:         marshalString(result.payload),
		}
		if err := runStore.InsertRun(run); err != nil {
			logging.Error("Failed to insert run record", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to record the pipeline run")
			return
		}

		logging.Info("Pipeline analysis started",
			"run_id", run.ID,
			"session_id", session.RequestID,
			"reference_drug", result.chosenReference)
		analysisText, err := llm.AnalyzeReferenceDrug(r.Context(), result.chosenReference)
		if err != nil {
			logging.Error("Pipeline analysis failed", "run_id", run.ID, "error", err)
			failRun(runStore, run.ID)
			RespondWithError(w, http.StatusBadGateway, "Analysis failed: "+err.Error())
			return
		}

		if err := finishRun(runStore, run.ID, analysisText); err != nil {
			logging.Error("Failed to store analysis result", "run_id", run.ID, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to store the analysis result")
			return
		}

		logging.Info("Pipeline analysis completed", "run_id", run.ID, "chars", len(analysisText))
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok": true,
			"selection": map[string]interface{}{
				"run_id":                        run.ID,
				"session_id":                    session.RequestID,
				"selected_reference_drug":       result.chosenReference,
				"selected_reference_rows_count": result.rowsCount,
				"selection_payload":             result.payload,
			},
			"router": map[string]interface{}{
				"reference_drug": result.chosenReference,
				"analysis_text":  analysisText,
			},
		})
	}
}
