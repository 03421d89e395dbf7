// Package synopsis turns a finished run into a filled study synopsis
// document. It collects the run's attributes, asks the language model for
// a synopsis table and renders the result into the docx template.
package synopsis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	docx "github.com/lukasjarosch/go-docx"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

// ErrRunNotFound is returned when the source run does not exist
var ErrRunNotFound = errors.New("run not found")

const systemPrompt = "Ты аккуратный медицинский аналитик. Не выдумывай факты."

// defaultPrompt instructs the model to fill the synopsis table from the
// collected run attributes. <<<ATTRIBUTES>>> and <<<SYNOPSIS_TEMPLATE>>>
// are replaced before the request.
const defaultPrompt = `Ты заполняешь синопсис исследования биоэквивалентности по данным о референтном препарате.

ДАННЫЕ ЗАПУСКА (JSON):
<<<ATTRIBUTES>>>

РАЗДЕЛЫ СИНОПСИСА:
<<<SYNOPSIS_TEMPLATE>>>

ПРАВИЛА:
1) Используй только данные запуска и факты из router_output_text. Не выдумывай значения.
2) Если данных для раздела нет, пиши NOT FOUND.
3) Ответ начни с Markdown-таблицы:
| Раздел | Содержание |
по одной строке на каждый раздел синопсиса.`

// defaultSections lists the synopsis sections used when the prompt file
// does not override them
const defaultSections = `- Название исследования
- МНН и торговое название референтного препарата
- Лекарственная форма и дозировка
- Путь введения
- Держатель РУ и номер РУ
- Дизайн исследования
- Популяция и число добровольцев (N)
- Режим приёма (fasted/fed)
- Отмывочный период (washout)
- PK-параметры (Cmax, Tmax, AUC0-t, AUC0-inf, T1/2, kel, CVintra)
- Критерии биоэквивалентности`

// Result summarizes one finished synopsis build
type Result struct {
	RunID          string `json:"run_id"`
	SynopsisRunID  string `json:"synopsis_run_id"`
	OutputDocxPath string `json:"output_docx_path"`
	OutputMarkdown string `json:"output_markdown"`
}

// Service builds synopsis documents from the run log
type Service struct {
	store        interfaces.RunStore
	llm          interfaces.AnalysisClient
	templatePath string
	promptPath   string
	downloadsDir string
}

// NewService creates a synopsis service. promptPath may be empty, in which
// case the built-in prompt is used.
func NewService(store interfaces.RunStore, llm interfaces.AnalysisClient, templatePath, promptPath, downloadsDir string) *Service {
	return &Service{
		store:        store,
		llm:          llm,
		templatePath: templatePath,
		promptPath:   promptPath,
		downloadsDir: downloadsDir,
	}
}

// Build creates a synopsis document for the given run. Every attempt is
// recorded in the synopsis run log, including failed ones.
func (s *Service) Build(ctx context.Context, runID string) (*Result, error) {
	run, err := s.store.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}

	attributes := collectAttributes(run)
	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("marshaling run attributes: %w", err)
	}

	synopsisID := uuid.NewString()
	attrsStr := string(attributesJSON)
	record := interfaces.SynopsisRunRecord{
		ID:             synopsisID,
		CreatedAt:      time.Now().Format(time.RFC3339),
		Status:         "running",
		SourceRunID:    runID,
		TemplatePath:   &s.templatePath,
		AttributesJSON: &attrsStr,
	}
	if s.promptPath != "" {
		record.PromptPath = &s.promptPath
	}
	if err := s.store.InsertSynopsisRun(record); err != nil {
		return nil, err
	}

	result, err := s.build(ctx, runID, synopsisID, attrsStr)
	if err != nil {
		errText := err.Error()
		if updateErr := s.store.UpdateSynopsisRun(synopsisID, map[string]any{
			"status":     "error",
			"error_text": errText,
		}); updateErr != nil {
			logging.Error("Failed to record synopsis error", "synopsis_id", synopsisID, "error", updateErr)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) build(ctx context.Context, runID, synopsisID, attributesJSON string) (*Result, error) {
	prompt, err := s.loadPrompt()
	if err != nil {
		return nil, err
	}

	prompt = strings.ReplaceAll(prompt, "<<<ATTRIBUTES>>>", attributesJSON)
	prompt = strings.ReplaceAll(prompt, "<<<SYNOPSIS_TEMPLATE>>>", defaultSections)

	markdown, err := s.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("requesting synopsis: %w", err)
	}

	table := FindMarkdownTable(markdown)
	if table == nil {
		return nil, fmt.Errorf("model output does not contain a markdown table")
	}

	outputPath := filepath.Join(s.downloadsDir, fmt.Sprintf("synopsis_%s.docx", runID))
	if err := s.renderDocx(table, outputPath); err != nil {
		return nil, err
	}

	if err := s.store.UpdateSynopsisRun(synopsisID, map[string]any{
		"status":           "done",
		"output_markdown":  markdown,
		"output_docx_path": outputPath,
	}); err != nil {
		return nil, err
	}

	logging.Info("Synopsis built", "run_id", runID, "synopsis_id", synopsisID, "output", outputPath)
	return &Result{
		RunID:          runID,
		SynopsisRunID:  synopsisID,
		OutputDocxPath: outputPath,
		OutputMarkdown: markdown,
	}, nil
}

// loadPrompt returns the prompt file contents, or the built-in prompt when
// no file is configured
func (s *Service) loadPrompt() (string, error) {
	if s.promptPath == "" {
		return defaultPrompt, nil
	}

	data, err := os.ReadFile(s.promptPath)
	if err != nil {
		return "", fmt.Errorf("reading synopsis prompt: %w", err)
	}
	return string(data), nil
}

// renderDocx fills the docx template placeholders and writes the result
func (s *Service) renderDocx(table [][]string, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating downloads directory: %w", err)
	}

	doc, err := docx.Open(s.templatePath)
	if err != nil {
		return fmt.Errorf("opening synopsis template: %w", err)
	}

	replaceMap := docx.PlaceholderMap{
		"generated_at":   time.Now().Format("2006-01-02 15:04"),
		"synopsis_table": RenderTableText(table),
	}
	if err := doc.ReplaceAll(replaceMap); err != nil {
		return fmt.Errorf("filling synopsis template: %w", err)
	}

	if err := doc.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("writing synopsis document: %w", err)
	}
	return nil
}

// collectAttributes flattens a run record into the attribute map handed to
// the model
func collectAttributes(run *interfaces.RunRecord) map[string]any {
	attrs := make(map[string]any)

	if run.QueryJSON != nil {
		var query map[string]any
		if err := json.Unmarshal([]byte(*run.QueryJSON), &query); err == nil {
			for _, key := range []string{"mnn", "routes", "base_form", "release_type", "dosage"} {
				if v, ok := query[key]; ok {
					attrs[key] = v
				}
			}
		}
	}

	if run.SelectedReferenceDrug != nil {
		attrs["reference_drug"] = *run.SelectedReferenceDrug
	}

	if run.SelectionJSON != nil {
		var selection map[string]any
		if err := json.Unmarshal([]byte(*run.SelectionJSON), &selection); err == nil {
			attrs["selection_payload"] = selection

			// First selected row stands in for product-level fields
			if rows, ok := selection["selected_reference_rows"].([]any); ok && len(rows) > 0 {
				if row, ok := rows[0].(map[string]any); ok {
					for _, key := range []string{"trade_name", "drug_form", "dosage", "country", "ru_number", "ru_date", "mnn"} {
						if v, ok := row[key]; ok && v != nil {
							if _, exists := attrs[key]; !exists {
								attrs[key] = v
							}
						}
					}
				}
			}
		}
	}

	if run.RouterOutputText != nil {
		attrs["router_output_text"] = *run.RouterOutputText
	}

	return attrs
}
