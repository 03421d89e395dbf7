package registryparser

import (
	"fmt"
	"os"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// Compile-time check to ensure Parser implements RegistryParser interface
var _ interfaces.RegistryParser = (*Parser)(nil)

// Parser implements the RegistryParser interface over a local registry
// export, optionally refreshed from a remote URL.
type Parser struct {
	filePath string
	url      string
}

// NewParser creates a Parser. When url is non-empty, LoadRegistry downloads
// a fresh export before parsing; otherwise filePath is read as-is.
func NewParser(filePath, url string) *Parser {
	return &Parser{
		filePath: filePath,
		url:      url,
	}
}

// LoadRegistry implements the RegistryParser interface. It returns the
// classified rows together with the path the registry was read from.
func (p *Parser) LoadRegistry() ([]entities.Row, string, error) {
	path := p.filePath

	if p.url != "" {
		downloaded, err := DownloadRegistry(p.url)
		if err != nil {
			// A stale local copy beats no data at all.
			if p.filePath == "" {
				return nil, "", fmt.Errorf("registry download failed and no local file configured: %w", err)
			}
			if _, statErr := os.Stat(p.filePath); statErr != nil {
				return nil, "", fmt.Errorf("registry download failed and local file unavailable: %w", err)
			}
		} else {
			path = downloaded
		}
	}

	if path == "" {
		return nil, "", fmt.Errorf("no registry source configured")
	}

	rows, err := ParseRegistryFile(path)
	if err != nil {
		return nil, "", err
	}
	return rows, path, nil
}
