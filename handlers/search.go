package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/matching"
	"github.com/DestYchen/ipharma-hack-2026/metrics"
	"github.com/DestYchen/ipharma-hack-2026/registryparser"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// matchPreviewLimit bounds how many matched rows the search response shows.
const matchPreviewLimit = 20

// matchPreviewRow is a single row of the search preview.
type matchPreviewRow struct {
	RowNo         int                 `json:"row_no"`
	ReferenceDrug string              `json:"reference_drug"`
	Mnn           string              `json:"mnn"`
	TradeName     string              `json:"trade_name"`
	DrugForm      string              `json:"drug_form"`
	Dosage        string              `json:"dosage"`
	Parsed        entities.ParsedForm `json:"parsed"`
}

// buildMatchesPreview converts the first matched rows into preview entries.
func buildMatchesPreview(rows []entities.Row, limit int) []matchPreviewRow {
	if limit > len(rows) {
		limit = len(rows)
	}
	preview := make([]matchPreviewRow, 0, limit)
	for i := 0; i < limit; i++ {
		preview = append(preview, matchPreviewRow{
			RowNo:         i + 1,
			ReferenceDrug: rows[i].ReferenceDrug,
			Mnn:           rows[i].Mnn,
			TradeName:     rows[i].TradeName,
			DrugForm:      rows[i].DrugForm,
			Dosage:        rows[i].Dosage,
			Parsed:        rows[i].Parsed,
		})
	}
	return preview
}

// rowsAtIndices resolves session match indices against the current registry
// snapshot, dropping indices a refresh may have invalidated.
func rowsAtIndices(rows []entities.Row, indices []int) []entities.Row {
	selected := make([]entities.Row, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(rows) {
			selected = append(selected, rows[idx])
		}
	}
	return selected
}

// SearchReference locates registry rows matching a clinical query and opens
// a selection session over the resulting reference options.
func SearchReference(dataStore interfaces.DataStore, sessions *data.SessionStore, validator interfaces.QueryValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var query entities.Query
		if !decodeJSONBody(w, r, &query) {
			metrics.ReferenceSearchTotal.WithLabelValues("invalid").Inc()
			return
		}

		validated, err := validator.ValidateQuery(query)
		if err != nil {
			logging.Warn("Rejected search query", "error", err)
			metrics.ReferenceSearchTotal.WithLabelValues("invalid").Inc()
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		rows := dataStore.GetRows()
		if len(rows) == 0 {
			metrics.ReferenceSearchTotal.WithLabelValues("unavailable").Inc()
			RespondWithError(w, http.StatusServiceUnavailable, "Registry data is not loaded yet")
			return
		}

		normalized := matching.NormalizeQuery(validated)
		matchedIdx := matching.MatchRows(rows, normalized)
		sourcePath := dataStore.GetSourcePath()

		if len(matchedIdx) == 0 {
			metrics.ReferenceSearchTotal.WithLabelValues("empty").Inc()
			RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"ok":                      true,
				"query":                   validated,
				"registry_source":         sourcePath,
				"matches_count":           0,
				"reference_options_count": 0,
				"reference_options":       []entities.ReferenceOption{},
				"match_rows_preview":      []matchPreviewRow{},
				"message":                 "No matching rows found",
			})
			return
		}

		matchedRows := rowsAtIndices(rows, matchedIdx)
		options := matching.BuildReferenceOptions(matchedRows)

		sessionID := sessions.Create(&data.SearchSession{
			Query:      query,
			Normalized: validated,
			MatchedIdx: matchedIdx,
			Options:    options,
			SourcePath: sourcePath,
		})

		metrics.ReferenceSearchTotal.WithLabelValues("matched").Inc()
		logging.Info("Reference search completed",
			"session_id", sessionID,
			"matches", len(matchedIdx),
			"options", len(options))

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":                      true,
			"session_id":              sessionID,
			"query":                   validated,
			"registry_source":         sourcePath,
			"matches_count":           len(matchedIdx),
			"reference_options_count": len(options),
			"reference_options":       options,
			"match_rows_preview":      buildMatchesPreview(matchedRows, matchPreviewLimit),
		})
	}
}

// choosePayload is the request body shared by choose and pipeline endpoints.
type choosePayload struct {
	SessionID     string `json:"session_id"`
	OptionIndex   *int   `json:"option_index"`
	ReferenceDrug string `json:"reference_drug"`
}

// httpError carries a status code alongside the client-facing message.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

// resolveChoice picks the reference product named by the payload, either by
// exact name or by 1-based option index.
func resolveChoice(session *data.SearchSession, payload choosePayload) (string, *httpError) {
	if name := strings.TrimSpace(payload.ReferenceDrug); name != "" {
		for _, option := range session.Options {
			if option.ReferenceDrug == name {
				return name, nil
			}
		}
		return "", &httpError{http.StatusBadRequest, "reference_drug is not among the session options"}
	}

	if payload.OptionIndex != nil {
		idx := *payload.OptionIndex
		if idx < 1 || idx > len(session.Options) {
			return "", &httpError{http.StatusBadRequest, "option_index is out of range 1.." + strconv.Itoa(len(session.Options))}
		}
		return session.Options[idx-1].ReferenceDrug, nil
	}

	return "", &httpError{http.StatusBadRequest, "Either option_index or reference_drug is required"}
}

// selectionResult is the outcome of applying a choose payload to a session.
type selectionResult struct {
	chosenReference string
	rowsCount       int
	payload         entities.SelectionPayload
}

// applyChoice resolves the chosen reference and assembles the selection
// payload from the session's matched rows.
func applyChoice(dataStore interfaces.DataStore, session *data.SearchSession, payload choosePayload) (*selectionResult, *httpError) {
	chosen, herr := resolveChoice(session, payload)
	if herr != nil {
		return nil, herr
	}

	rows := dataStore.GetRows()
	matchedRows := rowsAtIndices(rows, session.MatchedIdx)
	selectedRows := matching.FilterByReference(matchedRows, chosen)
	if len(selectedRows) == 0 {
		return nil, &httpError{http.StatusConflict, "Chosen reference is no longer present in the session matches"}
	}

	return &selectionResult{
		chosenReference: chosen,
		rowsCount:       len(selectedRows),
		payload: entities.SelectionPayload{
			GeneratedAt: nowTimestamp(),
			Source: entities.SelectionSource{
				File:  session.SourcePath,
				Sheet: registryparser.SheetName,
			},
			Query:                 session.Normalized,
			SelectedReferenceDrug: chosen,
			SelectedRowsCount:     len(selectedRows),
			SelectedRows:          selectedRows,
			ReferenceOptionsCount: len(session.Options),
			ReferenceOptions:      session.Options,
		},
	}, nil
}

// marshalString renders v as a JSON string pointer for run log columns.
func marshalString(v interface{}) *string {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Error("Failed to marshal run log field", "error", err)
		return nil
	}
	s := string(body)
	return &s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// ChooseReference fixes the reference product for a search session and
// records the selection in the run log.
func ChooseReference(dataStore interfaces.DataStore, sessions *data.SessionStore, runStore interfaces.RunStore) http.HandlerFunc {
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

		timestamp := nowTimestamp()
		run := interfaces.RunRecord{
			ID:                    uuid.NewString(),
			CreatedAt:             timestamp,
			Status:                "done",
			StartedAt:             strPtr(timestamp),
			FinishedAt:            strPtr(timestamp),
			Mode:                  "choose",
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
			RespondWithError(w, http.StatusInternalServerError, "Failed to record the selection")
			return
		}

		logging.Info("Reference chosen",
			"run_id", run.ID,
			"session_id", session.RequestID,
			"reference_drug", result.chosenReference,
			"rows", result.rowsCount)

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"ok":                            true,
			"run_id":                        run.ID,
			"session_id":                    session.RequestID,
			"selected_reference_drug":       result.chosenReference,
			"selected_reference_rows_count": result.rowsCount,
			"selection_payload":             result.payload,
		})
	}
}
