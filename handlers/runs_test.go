package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

func seedRuns(t *testing.T) *mockRunStore {
	t.Helper()
	runStore := newMockRunStore()
	records := []interfaces.RunRecord{
		{ID: "run-1", CreatedAt: "2026-08-01T10:00:00", Status: "done", Mode: "choose"},
		{ID: "run-2", CreatedAt: "2026-08-02T10:00:00", Status: "error", Mode: "router"},
		{ID: "run-3", CreatedAt: "2026-08-03T10:00:00", Status: "done", Mode: "pipeline"},
	}
	for _, record := range records {
		if err := runStore.InsertRun(record); err != nil {
			t.Fatalf("Failed to seed run: %v", err)
		}
	}
	return runStore
}

func TestListRuns(t *testing.T) {
	logging.InitLogger("")
	handler := ListRuns(seedRuns(t))

	req := httptest.NewRequest("GET", "/runs/list", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decodeResponse(t, w)
	runs := response["runs"].([]any)
	if len(runs) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(runs))
	}

	newest := runs[0].(map[string]any)
	if newest["id"] != "run-3" {
		t.Errorf("Runs should be newest first, got %v", newest["id"])
	}
}

func TestListRunsFiltered(t *testing.T) {
	logging.InitLogger("")
	handler := ListRuns(seedRuns(t))

	req := httptest.NewRequest("GET", "/runs/list?status=error&limit=10", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	response := decodeResponse(t, w)
	runs := response["runs"].([]any)
	if len(runs) != 1 {
		t.Fatalf("Expected 1 error run, got %d", len(runs))
	}
}

func TestListRunsInvalidLimit(t *testing.T) {
	logging.InitLogger("")
	handler := ListRuns(seedRuns(t))

	req := httptest.NewRequest("GET", "/runs/list?limit=abc", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	logging.InitLogger("")
	handler := GetRun(seedRuns(t))

	req := httptest.NewRequest("GET", "/runs/get?run_id=run-2", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decodeResponse(t, w)
	run := response["run"].(map[string]any)
	if run["id"] != "run-2" || run["mode"] != "router" {
		t.Errorf("Unexpected run payload: %v", run)
	}
}

func TestGetRunErrors(t *testing.T) {
	logging.InitLogger("")
	handler := GetRun(seedRuns(t))

	tests := []struct {
		name     string
		url      string
		expected int
	}{
		{"missing run_id", "/runs/get", http.StatusBadRequest},
		{"unknown run", "/runs/get?run_id=missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()
			handler(w, req)
			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestDeleteRun(t *testing.T) {
	logging.InitLogger("")
	runStore := seedRuns(t)
	handler := DeleteRun(runStore)

	w := postJSON(t, handler, map[string]any{"run_id": "run-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	response := decodeResponse(t, w)
	if response["deleted"] != true {
		t.Error("Expected deleted to be true")
	}

	if run, _ := runStore.GetRun("run-1"); run != nil {
		t.Error("Run should be gone after delete")
	}

	// Second delete reports not found
	w = postJSON(t, handler, map[string]any{"run_id": "run-1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}
