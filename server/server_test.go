package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DestYchen/ipharma-hack-2026/config"
	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/health"
	"github.com/DestYchen/ipharma-hack-2026/llmrouter"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/store"
	"github.com/DestYchen/ipharma-hack-2026/synopsis"
	"github.com/DestYchen/ipharma-hack-2026/validation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logging.InitLogger("")

	dir := t.TempDir()
	runStore, err := store.Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open run store: %v", err)
	}
	t.Cleanup(func() { runStore.Close() })

	cfg := &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		MaxRequestBody: 1048576,
		MaxHeaderSize:  8192,
		DownloadsDir:   dir,
	}

	container := data.NewRegistryContainer()
	analysisClient := llmrouter.NewClient("", "")

	return NewServer(cfg, Dependencies{
		DataStore:     container,
		Sessions:      data.NewSessionStore(0),
		RunStore:      runStore,
		Validator:     validation.NewQueryValidator(),
		Analysis:      analysisClient,
		Synopsis:      synopsis.NewService(runStore, analysisClient, "template.docx", "", dir),
		HealthChecker: health.NewHealthChecker(container),
	})
}

func serveLocal(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:9999"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)

	if s.server.Addr != "127.0.0.1:8000" {
		t.Errorf("Unexpected server address: %s", s.server.Addr)
	}
	if s.router == nil {
		t.Fatal("Router should be configured")
	}
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		// Registry is empty, so health reports unavailable
		{"health", "GET", "/health", http.StatusServiceUnavailable},
		{"metrics", "GET", "/metrics", http.StatusOK},
		{"runs list", "GET", "/runs/list", http.StatusOK},
		{"runs get without id", "GET", "/runs/get", http.StatusBadRequest},
		{"synopsis get without id", "GET", "/synopsis/get", http.StatusBadRequest},
		{"unknown route", "GET", "/nope", http.StatusNotFound},
		{"search wrong method", "GET", "/reference/search", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveLocal(s, tt.method, tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantStatus, w.Code)
			}
		})
	}
}

func TestServerBlocksDirectExternalAccess(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for direct external access, got %d", w.Code)
	}
}
