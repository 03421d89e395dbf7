// Package handlers provides HTTP request handlers for the reference registry
// API endpoints. It includes handlers for reference search and selection, run
// log access, remote analysis, synopsis building, health checks, and response
// formatting with proper input validation and error handling.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// timestampLayout is the second-precision layout used for run timestamps.
const timestampLayout = "2006-01-02T15:04:05"

func nowTimestamp() string {
	return time.Now().Format(timestampLayout)
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(body)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	RespondWithJSON(w, code, errorResponse)
}

// decodeJSONBody parses the request body into dst and reports malformed JSON
// back to the client. Returns false when the response has already been written.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		logging.Warn("Malformed JSON request body", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string                 `json:"status"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	UptimeHuman   string                 `json:"uptime_human"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// HealthCheck returns server health information
func HealthCheck(healthChecker interfaces.HealthChecker, dataStore interfaces.DataStore, sessions *data.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(dataStore.GetServerStartTime())
		lastUpdate := dataStore.GetLastUpdated()

		status, details, httpStatus := healthChecker.HealthCheck()
		details["sessions_count"] = sessions.Len()
		details["next_update"] = healthChecker.CalculateNextUpdate().Format(time.RFC3339)

		response := HealthResponse{
			Status:        status,
			LastUpdate:    lastUpdate.Format(time.RFC3339),
			DataAgeHours:  time.Since(lastUpdate).Hours(),
			UptimeSeconds: uptime.Seconds(),
			UptimeHuman:   formatUptimeHuman(uptime),
			Data:          details,
			System: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc_mb":       int(m.Alloc / 1024 / 1024),
					"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
					"sys_mb":         int(m.Sys / 1024 / 1024),
					"num_gc":         m.NumGC,
				},
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}

// ServeDownload serves generated files from the downloads directory. The
// requested name is resolved against the directory root and anything that
// escapes it is rejected.
func ServeDownload(downloadsDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if strings.TrimSpace(name) == "" {
			RespondWithError(w, http.StatusBadRequest, "File name is required")
			return
		}

		root, err := filepath.Abs(downloadsDir)
		if err != nil {
			logging.Error("Failed to resolve downloads directory", "dir", downloadsDir, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Downloads directory is not available")
			return
		}

		// Clean relative to the root so ".." segments cannot escape it.
		cleaned := filepath.Clean("/" + name)
		fullPath := filepath.Join(root, cleaned)
		if fullPath != root && !strings.HasPrefix(fullPath, root+string(os.PathSeparator)) {
			logging.Warn("Download path escapes downloads directory", "name", name)
			RespondWithError(w, http.StatusBadRequest, "Invalid file path")
			return
		}

		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			RespondWithError(w, http.StatusNotFound, "File not found: "+cleaned)
			return
		}

		http.ServeFile(w, r, fullPath)
	}
}
