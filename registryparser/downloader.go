package registryparser

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// DownloadRegistry fetches the registry export from url into the files
// directory and returns the local path. Charset conversion happens at parse
// time, so the file is stored byte-for-byte as served.
func DownloadRegistry(url string) (string, error) {
	path := filepath.Join("files", "registry.tsv")
	cleanPath := filepath.Clean(path)
	if !strings.HasPrefix(cleanPath, "files"+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filepath: %s", path)
	}

	if err := os.MkdirAll("files", 0750); err != nil {
		return "", fmt.Errorf("failed to create files directory: %w", err)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
	}
	response, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d downloading %s", response.StatusCode, url)
	}

	outFile, err := os.Create(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", cleanPath, err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			logging.Warn("Failed to close output file", "error", err)
		}
	}()

	if _, err := io.Copy(outFile, response.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", cleanPath, err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", cleanPath))
	return cleanPath, nil
}
