package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// MockDataStore for scheduler tests
type MockDataStore struct {
	rows           []entities.Row
	referenceIndex map[string][]int
	sourcePath     string
	lastUpdated    time.Time
	updating       bool
	updateCalls    int
}

func (m *MockDataStore) GetRows() []entities.Row             { return m.rows }
func (m *MockDataStore) GetReferenceIndex() map[string][]int { return m.referenceIndex }
func (m *MockDataStore) GetSourcePath() string               { return m.sourcePath }
func (m *MockDataStore) GetLastUpdated() time.Time           { return m.lastUpdated }
func (m *MockDataStore) IsUpdating() bool                    { return m.updating }
func (m *MockDataStore) GetServerStartTime() time.Time       { return time.Time{} }

func (m *MockDataStore) UpdateData(rows []entities.Row, referenceIndex map[string][]int, sourcePath string) {
	m.rows = rows
	m.referenceIndex = referenceIndex
	m.sourcePath = sourcePath
	m.lastUpdated = time.Now()
	m.updateCalls++
}

func (m *MockDataStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *MockDataStore) EndUpdate() {
	m.updating = false
}

// MockParser for scheduler tests
type MockParser struct {
	rows       []entities.Row
	sourcePath string
	err        error
	loadCalls  int
}

func (m *MockParser) LoadRegistry() ([]entities.Row, string, error) {
	m.loadCalls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.rows, m.sourcePath, nil
}

func TestBuildReferenceIndex(t *testing.T) {
	rows := []entities.Row{
		{ReferenceDrug: "Тестодрин"},
		{ReferenceDrug: "Випролен"},
		{ReferenceDrug: "Тестодрин"},
		{ReferenceDrug: ""},
	}

	index := BuildReferenceIndex(rows)

	if len(index) != 2 {
		t.Fatalf("Expected 2 reference groups, got %d", len(index))
	}

	testodrin := index["Тестодрин"]
	if len(testodrin) != 2 || testodrin[0] != 0 || testodrin[1] != 2 {
		t.Errorf("Expected Тестодрин indices [0 2], got %v", testodrin)
	}

	if len(index["Випролен"]) != 1 {
		t.Errorf("Expected 1 Випролен index, got %v", index["Випролен"])
	}
}

func TestUpdateData(t *testing.T) {
	logging.InitLogger("")

	dataStore := &MockDataStore{}
	parser := &MockParser{
		rows: []entities.Row{
			{ReferenceDrug: "Тестодрин", Mnn: "тестостерон"},
			{ReferenceDrug: "Тестодрин", Mnn: "тестостерон"},
		},
		sourcePath: "files/registry.tsv",
	}

	s := NewScheduler(dataStore, parser)

	if err := s.updateData(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if dataStore.updateCalls != 1 {
		t.Errorf("Expected 1 UpdateData call, got %d", dataStore.updateCalls)
	}
	if len(dataStore.rows) != 2 {
		t.Errorf("Expected 2 rows stored, got %d", len(dataStore.rows))
	}
	if len(dataStore.referenceIndex["Тестодрин"]) != 2 {
		t.Errorf("Expected reference index to group both rows, got %v", dataStore.referenceIndex)
	}
	if dataStore.sourcePath != "files/registry.tsv" {
		t.Errorf("Expected source path to be stored, got %q", dataStore.sourcePath)
	}
	if dataStore.updating {
		t.Error("Update flag should be cleared after refresh")
	}
}

func TestUpdateDataParserError(t *testing.T) {
	logging.InitLogger("")

	dataStore := &MockDataStore{}
	parser := &MockParser{err: fmt.Errorf("download failed")}

	s := NewScheduler(dataStore, parser)

	if err := s.updateData(); err == nil {
		t.Fatal("Expected error when parser fails")
	}

	if dataStore.updateCalls != 0 {
		t.Error("UpdateData should not be called when parser fails")
	}
	if dataStore.updating {
		t.Error("Update flag should be cleared after failed refresh")
	}
}

func TestUpdateDataSkipsWhenAlreadyUpdating(t *testing.T) {
	logging.InitLogger("")

	dataStore := &MockDataStore{updating: true}
	parser := &MockParser{rows: []entities.Row{{ReferenceDrug: "Тестодрин"}}}

	s := NewScheduler(dataStore, parser)

	if err := s.updateData(); err != nil {
		t.Fatalf("Expected no error when skipping, got %v", err)
	}

	if parser.loadCalls != 0 {
		t.Error("Parser should not be called while another refresh is running")
	}
	if dataStore.updateCalls != 0 {
		t.Error("UpdateData should not be called while another refresh is running")
	}
}
