// Package data provides thread-safe storage for the classified reference
// registry. It includes the RegistryContainer struct with atomic operations
// for zero-downtime refreshes and thread-safe access methods, plus the
// in-memory search session store.
package data

import (
	"sync/atomic"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// Compile-time check to ensure RegistryContainer implements DataStore
var _ interfaces.DataStore = (*RegistryContainer)(nil)

// RegistryContainer holds the classified registry with atomic pointers for
// zero-downtime refreshes. The stored slices and maps are never mutated
// after a swap, so readers need no locking.
type RegistryContainer struct {
	rows            atomic.Value // []entities.Row
	referenceIndex  atomic.Value // map[string][]int
	sourcePath      atomic.Value // string
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewRegistryContainer creates a new RegistryContainer with empty data
func NewRegistryContainer() *RegistryContainer {
	rc := &RegistryContainer{}
	rc.rows.Store(make([]entities.Row, 0))
	rc.referenceIndex.Store(make(map[string][]int))
	rc.sourcePath.Store("")
	rc.lastUpdated.Store(time.Time{})
	rc.serverStartTime.Store(time.Time{})
	return rc
}

// Thread-safe getters with type check

// GetRows returns the classified registry rows
func (rc *RegistryContainer) GetRows() []entities.Row {
	if v := rc.rows.Load(); v != nil {
		if rows, ok := v.([]entities.Row); ok {
			return rows
		}
	}

	logging.Warn("Registry rows list is empty or invalid")
	return []entities.Row{}
}

// GetReferenceIndex returns row indices grouped by reference drug name
func (rc *RegistryContainer) GetReferenceIndex() map[string][]int {
	if v := rc.referenceIndex.Load(); v != nil {
		if index, ok := v.(map[string][]int); ok {
			return index
		}
	}

	logging.Warn("Reference index is empty or invalid")
	return make(map[string][]int)
}

// GetSourcePath returns the path the current registry was loaded from
func (rc *RegistryContainer) GetSourcePath() string {
	if v := rc.sourcePath.Load(); v != nil {
		if path, ok := v.(string); ok {
			return path
		}
	}
	return ""
}

// GetLastUpdated returns the timestamp of the last registry refresh
func (rc *RegistryContainer) GetLastUpdated() time.Time {
	if v := rc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a registry refresh is currently in progress
func (rc *RegistryContainer) IsUpdating() bool {
	return rc.updating.Load()
}

// SetServerStartTime sets the server start time
func (rc *RegistryContainer) SetServerStartTime(startTime time.Time) {
	rc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (rc *RegistryContainer) GetServerStartTime() time.Time {
	if v := rc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the registry in the container
func (rc *RegistryContainer) UpdateData(rows []entities.Row, referenceIndex map[string][]int, sourcePath string) {
	// Atomic swap (zero downtime replacement)
	rc.rows.Store(rows)
	rc.referenceIndex.Store(referenceIndex)
	rc.sourcePath.Store(sourcePath)
	rc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a registry refresh.
// Returns true if the refresh can proceed, false if another one is running.
func (rc *RegistryContainer) BeginUpdate() bool {
	return rc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a registry refresh
func (rc *RegistryContainer) EndUpdate() {
	rc.updating.Store(false)
}
