package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetWeekKey(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{"mid year", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), "2026-W35"},
		{"first iso week", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "2026-W02"},
		{"year boundary belongs to previous iso year", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getWeekKey(tt.time); got != tt.expected {
				t.Errorf("getWeekKey(%v) = %q, want %q", tt.time, got, tt.expected)
			}
		})
	}
}

func TestRotatingLoggerWrite(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1)
	defer rl.Close()

	message := []byte("log line\n")
	n, err := rl.Write(message)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(message) {
		t.Errorf("expected %d bytes written, got %d", len(message), n)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read log dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log file, got %d", len(entries))
	}

	name := entries[0].Name()
	week := getWeekKey(time.Now())
	if !strings.Contains(name, week) {
		t.Errorf("log file %q should carry the week key %q", name, week)
	}

	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if string(content) != string(message) {
		t.Errorf("unexpected log content: %q", content)
	}
}

func TestSetupLoggerFallsBackToConsole(t *testing.T) {
	// An uncreatable directory must not break logging
	logger := SetupLogger(string([]byte{0}))
	if logger == nil {
		t.Fatal("SetupLogger should always return a logger")
	}
}
