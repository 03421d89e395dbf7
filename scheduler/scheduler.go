// Package scheduler provides automated registry refreshes and staleness
// monitoring. It handles cron-based reloads and coordinates refreshes with
// the data container using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/metrics"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles registry refreshes and staleness monitoring
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.RegistryParser
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.RegistryParser) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial registry load and schedules the refreshes
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial registry load", "error", err)
		return fmt.Errorf("initial registry load failed: %w", err)
	}

	// Schedule refreshes at 06:00 and 18:00 daily
	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to refresh registry", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	// Start staleness monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData performs a complete registry refresh
func (s *Scheduler) updateData() error {
	// Prevent concurrent refreshes
	if !s.dataStore.BeginUpdate() {
		logging.Info("Refresh already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting registry refresh at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	rows, sourcePath, err := s.parser.LoadRegistry()
	if err != nil {
		logging.Error("Failed to load registry", "error", err)
		return fmt.Errorf("failed to load registry: %w", err)
	}

	referenceIndex := BuildReferenceIndex(rows)

	// Atomic swap
	s.dataStore.UpdateData(rows, referenceIndex, sourcePath)
	metrics.RegistryRowsLoaded.Set(float64(len(rows)))

	elapsed := time.Since(start)
	logging.Info("Registry refresh completed",
		"duration", elapsed.String(),
		"row_count", len(rows),
		"reference_count", len(referenceIndex),
		"source", sourcePath,
	)

	return nil
}

// BuildReferenceIndex groups row indices by exact reference drug name
func BuildReferenceIndex(rows []entities.Row) map[string][]int {
	index := make(map[string][]int)
	for i := range rows {
		name := rows[i].ReferenceDrug
		if name == "" {
			continue
		}
		index[name] = append(index[name], i)
	}
	return index
}

// startHealthMonitoring watches for stale registry data
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.dataStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Registry hasn't been refreshed in over 25 hours")
			}
		}
	}()
}
