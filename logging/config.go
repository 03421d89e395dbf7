package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxFileSize = 100 * 1024 * 1024

var numberedLogFile = regexp.MustCompile(`app-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger writes log output into weekly files under logDir,
// starting a numbered continuation file when the current one exceeds
// maxFileSize. It is safe for concurrent use through slog handlers.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize atomic.Int64

	ctx            context.Context
	cancel         context.CancelFunc
	cleanupStarted bool
	cleanupDone    chan struct{}
}

// NewRotatingLogger creates a rotating logger with the default file size limit.
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger with a custom
// per-file size limit. A limit of zero disables size-based rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey formats t as an ISO week key, e.g. "2026-W35".
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p to the current log file, rotating first when the ISO
// week changed or the write would push the file past the size limit.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	rotateForSize := false
	if rl.maxFileSize > 0 && rl.currentWeek == week {
		size := rl.currentSize.Load()
		rotateForSize = size >= rl.maxFileSize || size+int64(len(p)) > rl.maxFileSize
	}

	if rl.currentWeek != week || rotateForSize {
		if err := rl.rotate(week, rotateForSize); err != nil {
			return 0, err
		}
	}
	if rl.currentFile == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// rotate swaps the current file for the right file of week (caller holds mu).
func (rl *RotatingLogger) rotate(week string, forSize bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
	}

	fileName, fresh := rl.pickLogFile(week, forSize)
	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = week

	if fresh {
		rl.currentSize.Store(0)
	} else if info, err := os.Stat(logPath); err == nil {
		rl.currentSize.Store(info.Size())
	}
	return nil
}

// pickLogFile decides which file name the given week should write to and
// whether the size counter starts from zero. The base file app-<week>.log
// is preferred; once full, numbered continuations app-<week>_NN.log follow.
func (rl *RotatingLogger) pickLogFile(week string, forSize bool) (string, bool) {
	baseName := fmt.Sprintf("app-%s.log", week)
	if !forSize {
		info, err := os.Stat(filepath.Join(rl.logDir, baseName))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return baseName, false
		}
	}

	highest := 0
	var lastName string
	var lastSize int64
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("app-%s_??.log", week)))
	for _, match := range matches {
		sub := numberedLogFile.FindStringSubmatch(filepath.Base(match))
		if len(sub) < 2 {
			continue
		}
		num, _ := strconv.Atoi(sub[1])
		if num > highest {
			highest = num
			lastName = filepath.Base(match)
			lastSize = 0
			if info, err := os.Stat(match); err == nil {
				lastSize = info.Size()
			}
		}
	}

	if lastName != "" && lastSize < rl.maxFileSize {
		return lastName, false
	}
	return fmt.Sprintf("app-%s_%02d.log", week, highest+1), true
}

// cleanupOldLogs removes app-*.log files past the retention period.
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	if deleted > 0 {
		// Console only, writing through the logger here would recurse.
		fmt.Printf("Cleaned up %d old log files\n", deleted)
	}
	return nil
}

// startCleanup launches the retention sweep loop. Called once from SetupLogger.
func (rl *RotatingLogger) startCleanup() {
	rl.cleanupStarted = true
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		defer close(rl.cleanupDone)

		for {
			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
				if err := rl.cleanupOldLogs(); err != nil {
					slog.Warn("Failed to cleanup old logs", "error", err)
				}
			}
		}
	}()
}

// Close stops the cleanup loop and closes the current log file.
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	if rl.cleanupStarted {
		select {
		case <-rl.cleanupDone:
		case <-time.After(5 * time.Second):
			fmt.Printf("Warning: background cleanup goroutine did not shutdown gracefully\n")
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.currentFile != nil {
		return rl.currentFile.Close()
	}
	return nil
}

// SetupLogger configures slog to log to both console and a rotating
// weekly file under logDir, keeping four weeks of history.
func SetupLogger(logDir string) *slog.Logger {
	return SetupLoggerWithRetention(logDir, 4)
}

// SetupLoggerWithRetention is SetupLogger with a custom retention period.
func SetupLoggerWithRetention(logDir string, retentionWeeks int) *slog.Logger {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		// No log directory, console only.
		fallback := slog.New(consoleHandler)
		fallback.Error("Failed to create logs directory", "error", err)
		return fallback
	}

	rotating := NewRotatingLogger(logDir, retentionWeeks)
	rotating.mu.Lock()
	rotateErr := rotating.rotate(getWeekKey(time.Now()), false)
	rotating.mu.Unlock()
	if rotateErr != nil {
		fallback := slog.New(consoleHandler)
		fallback.Error("Failed to initialize rotating logger", "error", rotateErr)
		return fallback
	}
	rotating.startCleanup()

	// Console stays human readable, the file gets JSON for parsing.
	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
}

// multiHandler fans a record out to every underlying handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
