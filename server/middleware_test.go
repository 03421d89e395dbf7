package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DestYchen/ipharma-hack-2026/config"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"Health endpoint", "/health", 5},
		{"Metrics endpoint", "/metrics", 5},
		{"Reference search", "/reference/search", 50},
		{"Reference choose", "/reference/choose", 20},
		{"Router analyze", "/router/analyze", 200},
		{"Pipeline analyze", "/pipeline/analyze", 200},
		{"Synopsis build", "/synopsis/build", 200},
		{"Runs list", "/runs/list", 10},
		{"Runs get", "/runs/get", 10},
		{"Runs delete", "/runs/delete", 10},
		{"Download", "/downloads/synopsis_run-1.docx", 10},
		{"Synopsis get", "/synopsis/get", 20},
		{"Unknown endpoint", "/unknown", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			cost := getTokenCost(req)

			if cost != tt.expectedCost {
				t.Errorf("Expected cost %d for path %s, got %d", tt.expectedCost, tt.path, cost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		expected   string
	}{
		{"No forwarded header", "", "10.0.0.1:1234", "10.0.0.1:1234"},
		{"Single forwarded IP", "203.0.113.5", "10.0.0.1:1234", "203.0.113.5"},
		{"Multiple forwarded IPs", "203.0.113.5, 70.41.3.18", "10.0.0.1:1234", "203.0.113.5"},
		{"Forwarded with spaces", "  203.0.113.5  ", "10.0.0.1:1234", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenAddr string
			handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenAddr = r.RemoteAddr
			}))

			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)
			if seenAddr != tt.expected {
				t.Errorf("Expected RemoteAddr %q, got %q", tt.expected, seenAddr)
			}
		})
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	logging.InitLogger("")
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		expected   int
	}{
		{"Localhost allowed", "127.0.0.1:5000", "", http.StatusOK},
		{"IPv6 localhost allowed", "[::1]:5000", "", http.StatusOK},
		{"Proxied request allowed", "10.0.0.1:5000", "203.0.113.5", http.StatusOK},
		{"Direct external access blocked", "203.0.113.5:5000", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	logging.InitLogger("")
	cfg := &config.Config{
		MaxRequestBody: 1024,
		MaxHeaderSize:  512,
	}

	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("normal request passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/reference/search", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/reference/search", strings.NewReader("{}"))
		req.Header.Set("Content-Length", "2048")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected status 413, got %d", w.Code)
		}
	})

	t.Run("oversized headers rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Big-Header", strings.Repeat("a", 1024))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("Expected status 431, got %d", w.Code)
		}
	})
}

func TestRateLimitHandler(t *testing.T) {
	logging.InitLogger("")
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Error("Expected X-RateLimit-Limit header")
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected X-RateLimit-Remaining header")
	}
}

func TestRateLimitExhaustion(t *testing.T) {
	logging.InitLogger("")
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The expensive analyze endpoint costs 200 tokens, so a fresh bucket
	// of 1000 drains after five requests.
	var lastCode int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/router/analyze", nil)
		req.RemoteAddr = "192.0.2.99:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		lastCode = w.Code
		if lastCode == http.StatusTooManyRequests {
			break
		}
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("Expected rate limiting to kick in, last status %d", lastCode)
	}
}
