// Package registryparser loads the reference drug registry (sheet
// ст.27.1 ФЗ-61 exported as a tab-separated file) into classified in-memory
// rows. It handles charset detection, merged-cell forward-fill and
// per-row dosage-form classification.
package registryparser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/matching"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
	"golang.org/x/text/encoding/charmap"
)

// SheetName identifies the registry sheet the export comes from.
const SheetName = "ст27.1 ФЗ-61"

// Registry column headers, exactly as they appear in the export.
// The date column really does carry a double space.
const (
	colReference  = "Референтный препарат"
	colMnn        = "МНН (группировочное или химическое наименование)"
	colTrade      = "Торговое наименование"
	colForm       = "Лекарственная форма"
	colDosage     = "Дозировка"
	colOwner      = "Владелец РУ"
	colCountry    = "Страна"
	colRuNumber   = "Номер РУ"
	colRuDate     = "Дата  РУ"
	colExceptions = "Исключение отдельных групп пациентов"
)

var requiredColumns = []string{
	colReference,
	colMnn,
	colTrade,
	colForm,
	colDosage,
	colOwner,
	colCountry,
	colRuNumber,
	colRuDate,
	colExceptions,
}

// ParseRegistryFile reads a registry TSV export and returns classified rows.
// The export may be windows-1251 or UTF-8; non-UTF-8 content is decoded
// from windows-1251 before parsing.
func ParseRegistryFile(path string) ([]entities.Row, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	var reader io.Reader
	if utf8.Valid(content) {
		reader = bytes.NewReader(content)
	} else {
		reader = charmap.Windows1251.NewDecoder().Reader(bytes.NewReader(content))
	}

	return parseRegistry(reader)
}

func parseRegistry(reader io.Reader) ([]entities.Row, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0), 1*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read registry header: %w", err)
		}
		return nil, fmt.Errorf("registry file is empty")
	}

	columns, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	var rows []entities.Row
	// Carried values for merged cells: the export repeats a value only in
	// the first row of a merged block, the rest come in blank.
	var lastReference, lastMnn, lastForm, lastExceptions string

	lineCount := 0
	skippedNoTrade := 0
	skippedNoReference := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		fields := strings.Split(line, "\t")
		get := func(name string) string {
			idx := columns[name]
			if idx >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[idx])
		}

		reference := get(colReference)
		mnn := get(colMnn)
		form := get(colForm)
		exceptions := get(colExceptions)

		if reference == "" {
			reference = lastReference
		} else {
			lastReference = reference
		}
		if mnn == "" {
			mnn = lastMnn
		} else {
			lastMnn = mnn
		}
		if form == "" {
			form = lastForm
		} else {
			lastForm = form
		}
		if exceptions == "" {
			exceptions = lastExceptions
		} else {
			lastExceptions = exceptions
		}

		trade := get(colTrade)
		if trade == "" {
			skippedNoTrade++
			continue
		}
		if reference == "" {
			skippedNoReference++
			continue
		}

		row := entities.Row{
			ReferenceDrug:     reference,
			Mnn:               mnn,
			TradeName:         trade,
			DrugForm:          form,
			Dosage:            get(colDosage),
			OwnerRu:           get(colOwner),
			Country:           get(colCountry),
			RuNumber:          get(colRuNumber),
			RuDate:            get(colRuDate),
			PatientExceptions: exceptions,
		}

		row.Parsed = matching.ParseForm(row.DrugForm)
		row.MnnNorm = matching.NormalizeText(row.Mnn)
		row.DosageNorm = matching.NormalizeText(row.Dosage)
		row.DosageCompact = matching.NormalizeCompact(row.Dosage)

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error while reading registry: %w", err)
	}

	if skippedNoTrade > 0 || skippedNoReference > 0 {
		logging.Info("Registry rows skipped during load",
			"total_lines", lineCount,
			"no_trade_name", skippedNoTrade,
			"no_reference", skippedNoReference)
	}

	return rows, nil
}

// parseHeader maps column names to field indices and validates that every
// required column is present.
func parseHeader(line string) (map[string]int, error) {
	columns := make(map[string]int)
	for idx, name := range strings.Split(line, "\t") {
		columns[strings.TrimSpace(name)] = idx
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("registry sheet is missing expected columns: %v", missing)
	}
	return columns, nil
}
