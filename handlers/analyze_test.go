package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DestYchen/ipharma-hack-2026/logging"
)

func TestRouterAnalyzeSuccess(t *testing.T) {
	logging.InitLogger("")
	runStore := newMockRunStore()
	llm := &mockAnalysisClient{response: "| Поле | Значение |\n|---|---|\n| МНН | ибупрофен |"}
	handler := RouterAnalyze(runStore, llm)

	w := postJSON(t, handler, map[string]any{"reference_drug": "Тестодрин"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	response := decodeResponse(t, w)
	if response["reference_drug"] != "Тестодрин" {
		t.Errorf("Expected Тестодрин, got %v", response["reference_drug"])
	}
	if response["analysis_text"] != llm.response {
		t.Error("Response should carry the analysis text")
	}

	if len(llm.calls) != 1 || llm.calls[0] != "Тестодрин" {
		t.Errorf("Expected one analysis call for Тестодрин, got %v", llm.calls)
	}

	run, _ := runStore.GetRun(response["run_id"].(string))
	if run == nil {
		t.Fatal("Analysis should record a run")
	}
	if run.Status != "done" || run.Mode != "router" {
		t.Errorf("Expected a done router run, got status=%s mode=%s", run.Status, run.Mode)
	}
	if run.RouterOutputText == nil || *run.RouterOutputText != llm.response {
		t.Error("Run should store the analysis text")
	}
	if run.FinishedAt == nil {
		t.Error("Finished run should carry finished_at")
	}
}

func TestRouterAnalyzeMissingDrug(t *testing.T) {
	logging.InitLogger("")
	handler := RouterAnalyze(newMockRunStore(), &mockAnalysisClient{})

	w := postJSON(t, handler, map[string]any{"reference_drug": "  "})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestRouterAnalyzeUpstreamFailure(t *testing.T) {
	logging.InitLogger("")
	runStore := newMockRunStore()
	llm := &mockAnalysisClient{err: errors.New("model unavailable")}
	handler := RouterAnalyze(runStore, llm)

	w := postJSON(t, handler, map[string]any{"reference_drug": "Тестодрин"})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}

	// The started run must be marked failed, not left running
	runs, _ := runStore.ListRuns(10, "error")
	if len(runs) != 1 {
		t.Fatalf("Expected one failed run, got %d", len(runs))
	}
	if runs[0].FinishedAt == nil {
		t.Error("Failed run should still carry finished_at")
	}
}

func TestPipelineAnalyze(t *testing.T) {
	logging.InitLogger("")
	dataStore := newMockDataStore(testRows())
	sessions, sessionID := openSession(t, dataStore)
	runStore := newMockRunStore()
	llm := &mockAnalysisClient{response: "analysis output"}
	handler := PipelineAnalyze(dataStore, sessions, runStore, llm)

	w := postJSON(t, handler, map[string]any{
		"session_id":   sessionID,
		"option_index": 1,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	response := decodeResponse(t, w)
	selection := response["selection"].(map[string]any)
	router := response["router"].(map[string]any)

	if selection["selected_reference_drug"] != "Тестодрин" {
		t.Errorf("Expected Тестодрин, got %v", selection["selected_reference_drug"])
	}
	if router["analysis_text"] != "analysis output" {
		t.Error("Router section should carry the analysis text")
	}
	if len(llm.calls) != 1 || llm.calls[0] != "Тестодрин" {
		t.Errorf("Pipeline should analyze the chosen reference, got %v", llm.calls)
	}

	run, _ := runStore.GetRun(selection["run_id"].(string))
	if run == nil {
		t.Fatal("Pipeline should record a run")
	}
	if run.Mode != "pipeline" || run.Status != "done" {
		t.Errorf("Expected a done pipeline run, got status=%s mode=%s", run.Status, run.Mode)
	}
	if run.SessionID == nil || *run.SessionID != sessionID {
		t.Error("Pipeline run should reference the session")
	}
}

func TestPipelineAnalyzeUnknownSession(t *testing.T) {
	logging.InitLogger("")
	dataStore := newMockDataStore(testRows())
	sessions, _ := openSession(t, dataStore)
	handler := PipelineAnalyze(dataStore, sessions, newMockRunStore(), &mockAnalysisClient{})

	w := postJSON(t, handler, map[string]any{
		"session_id":   "missing",
		"option_index": 1,
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}
