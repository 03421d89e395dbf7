package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/matching"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// newRow builds a classified registry row the same way the loader does.
func newRow(reference, mnn, trade, form, dosage string) entities.Row {
	row := entities.Row{
		ReferenceDrug: reference,
		Mnn:           mnn,
		TradeName:     trade,
		DrugForm:      form,
		Dosage:        dosage,
	}
	row.Parsed = matching.ParseForm(row.DrugForm)
	row.MnnNorm = matching.NormalizeText(row.Mnn)
	row.DosageNorm = matching.NormalizeText(row.Dosage)
	row.DosageCompact = matching.NormalizeCompact(row.Dosage)
	return row
}

// testRows is a small registry snapshot for handler tests.
func testRows() []entities.Row {
	return []entities.Row{
		newRow("Тестодрин", "ибупрофен", "Тестодрин Форте",
			"таблетки, покрытые пленочной оболочкой, для приема внутрь", "200 мг"),
		newRow("Тестодрин", "ибупрофен", "Тестодрин",
			"таблетки, покрытые пленочной оболочкой, для приема внутрь", "400 мг"),
		newRow("Альгерон", "парацетамол", "Альгерон",
			"раствор для внутривенного введения", "10 мг/мл"),
	}
}

// mockDataStore is a minimal in-memory DataStore for handler tests.
type mockDataStore struct {
	rows        []entities.Row
	refIndex    map[string][]int
	sourcePath  string
	lastUpdated time.Time
	startTime   time.Time
	updating    bool
}

func newMockDataStore(rows []entities.Row) *mockDataStore {
	return &mockDataStore{
		rows:        rows,
		refIndex:    make(map[string][]int),
		sourcePath:  "files/registry.tsv",
		lastUpdated: time.Now(),
		startTime:   time.Now(),
	}
}

func (m *mockDataStore) GetRows() []entities.Row              { return m.rows }
func (m *mockDataStore) GetReferenceIndex() map[string][]int  { return m.refIndex }
func (m *mockDataStore) GetSourcePath() string                { return m.sourcePath }
func (m *mockDataStore) GetLastUpdated() time.Time            { return m.lastUpdated }
func (m *mockDataStore) IsUpdating() bool                     { return m.updating }
func (m *mockDataStore) GetServerStartTime() time.Time        { return m.startTime }
func (m *mockDataStore) BeginUpdate() bool                    { return true }
func (m *mockDataStore) EndUpdate()                           {}
func (m *mockDataStore) UpdateData(rows []entities.Row, refIndex map[string][]int, sourcePath string) {
	m.rows = rows
	m.refIndex = refIndex
	m.sourcePath = sourcePath
	m.lastUpdated = time.Now()
}

// mockRunStore is an in-memory RunStore with optional error injection.
type mockRunStore struct {
	mu        sync.Mutex
	runs      map[string]interfaces.RunRecord
	synopses  map[string][]interfaces.SynopsisRunRecord
	insertErr error
	listErr   error
}

func newMockRunStore() *mockRunStore {
	return &mockRunStore{
		runs:     make(map[string]interfaces.RunRecord),
		synopses: make(map[string][]interfaces.SynopsisRunRecord),
	}
}

func (m *mockRunStore) InsertRun(run interfaces.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunStore) UpdateRun(runID string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return errors.New("run not found: " + runID)
	}
	for column, value := range fields {
		switch column {
		case "status":
			run.Status = value.(string)
		case "finished_at":
			s := value.(string)
			run.FinishedAt = &s
		case "router_output_text":
			s := value.(string)
			run.RouterOutputText = &s
		}
	}
	m.runs[runID] = run
	return nil
}

func (m *mockRunStore) GetRun(runID string) (*interfaces.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (m *mockRunStore) ListRuns(limit int, status string) ([]interfaces.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	runs := make([]interfaces.RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		if status != "" && run.Status != status {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt > runs[j].CreatedAt })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *mockRunStore) DeleteRun(runID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return false, nil
	}
	delete(m.runs, runID)
	delete(m.synopses, runID)
	return true, nil
}

func (m *mockRunStore) InsertSynopsisRun(run interfaces.SynopsisRunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synopses[run.SourceRunID] = append(m.synopses[run.SourceRunID], run)
	return nil
}

func (m *mockRunStore) UpdateSynopsisRun(synopsisID string, fields map[string]any) error {
	return nil
}

func (m *mockRunStore) LatestSynopsisForRun(runID string) (*interfaces.SynopsisRunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.synopses[runID]
	if len(runs) == 0 {
		return nil, nil
	}
	latest := runs[len(runs)-1]
	return &latest, nil
}

func (m *mockRunStore) Close() error { return nil }

// mockAnalysisClient returns a canned analysis text or a canned error.
type mockAnalysisClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []string
}

func (m *mockAnalysisClient) AnalyzeReferenceDrug(ctx context.Context, referenceDrug string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, referenceDrug)
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockAnalysisClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}
