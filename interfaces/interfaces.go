// Package interfaces defines core abstractions for the reference registry
// service to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// DataStore defines the contract for registry storage operations.
// It provides thread-safe access to classified registry rows with atomic
// operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetRows() []entities.Row
	GetReferenceIndex() map[string][]int
	GetSourcePath() string
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(rows []entities.Row, referenceIndex map[string][]int, sourcePath string)
	BeginUpdate() bool
	EndUpdate()
}

// RegistryParser defines the contract for loading registry data from
// external sources. It handles downloading, charset conversion, forward-fill
// and per-row classification.
type RegistryParser interface {
	// LoadRegistry returns classified rows and the path they were read from.
	LoadRegistry() ([]entities.Row, string, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated registry refreshes and staleness checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled refresh time
	CalculateNextUpdate() time.Time
}

// QueryValidator defines the contract for validating user search input.
type QueryValidator interface {
	// ValidateQuery checks that every required query field is present and
	// safe, returning the trimmed query.
	ValidateQuery(q entities.Query) (entities.Query, error)

	// ValidateInput validates a single user input string
	ValidateInput(input string) error
}

// RunStore defines the contract for the persistent run log.
type RunStore interface {
	InsertRun(run RunRecord) error
	UpdateRun(runID string, fields map[string]any) error
	GetRun(runID string) (*RunRecord, error)
	ListRuns(limit int, status string) ([]RunRecord, error)
	DeleteRun(runID string) (bool, error)

	InsertSynopsisRun(run SynopsisRunRecord) error
	UpdateSynopsisRun(synopsisID string, fields map[string]any) error
	LatestSynopsisForRun(runID string) (*SynopsisRunRecord, error)
	Close() error
}

// RunRecord is one row of the run log.
type RunRecord struct {
	ID                    string  `db:"id" json:"id"`
	CreatedAt             string  `db:"created_at" json:"created_at"`
	Status                string  `db:"status" json:"status"`
	StartedAt             *string `db:"started_at" json:"started_at"`
	FinishedAt            *string `db:"finished_at" json:"finished_at"`
	Mode                  string  `db:"mode" json:"mode"`
	SessionID             *string `db:"session_id" json:"session_id"`
	QueryJSON             *string `db:"query_json" json:"-"`
	MatchesCount          *int    `db:"matches_count" json:"matches_count"`
	ReferenceOptionsCount *int    `db:"reference_options_count" json:"reference_options_count"`
	SelectedReferenceDrug *string `db:"selected_reference_drug" json:"selected_reference_drug"`
	SelectionRowsCount    *int    `db:"selection_rows_count" json:"selection_rows_count"`
	SelectionJSON         *string `db:"selection_json" json:"-"`
	SelectionFilePath     *string `db:"selection_file_path" json:"selection_file_path"`
	RouterOutputText      *string `db:"router_output_text" json:"router_output_text"`
	RouterOutputPath      *string `db:"router_output_path" json:"router_output_path"`
}

// SynopsisRunRecord is one row of the synopsis run log.
type SynopsisRunRecord struct {
	ID             string  `db:"id" json:"id"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	Status         string  `db:"status" json:"status"`
	SourceRunID    string  `db:"source_run_id" json:"source_run_id"`
	TemplatePath   *string `db:"template_path" json:"template_path"`
	PromptPath     *string `db:"prompt_path" json:"prompt_path"`
	AttributesJSON *string `db:"attributes_json" json:"-"`
	OutputMarkdown *string `db:"output_markdown" json:"-"`
	OutputDocxPath *string `db:"output_docx_path" json:"output_docx_path"`
	ErrorText      *string `db:"error_text" json:"error_text"`
}

// AnalysisClient defines the contract for the remote language model used
// for reference drug analysis and synopsis attribute extraction.
type AnalysisClient interface {
	// AnalyzeReferenceDrug produces the regulatory analysis text for a
	// chosen reference drug.
	AnalyzeReferenceDrug(ctx context.Context, referenceDrug string) (string, error)

	// Complete sends an arbitrary prompt pair and returns the model output.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
