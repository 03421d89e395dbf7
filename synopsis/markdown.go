package synopsis

import (
	"regexp"
	"strings"
)

var tableSeparatorRow = regexp.MustCompile(`^\s*\|?\s*-+`)

// FindMarkdownTable locates the first markdown table in the model output
// and returns it as rows of cells, header first. Returns nil when the text
// carries no table.
func FindMarkdownTable(text string) [][]string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
	}

	start := -1
	for i := 0; i < len(lines)-1; i++ {
		if strings.Contains(lines[i], "|") && tableSeparatorRow.MatchString(lines[i+1]) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	header := splitTableRow(lines[start])
	var rows [][]string
	for j := start + 2; j < len(lines); j++ {
		if !strings.Contains(lines[j], "|") {
			break
		}
		rows = append(rows, splitTableRow(lines[j]))
	}
	if len(header) == 0 || len(rows) == 0 {
		return nil
	}

	return append([][]string{header}, rows...)
}

func splitTableRow(line string) []string {
	row := strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(row, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// RenderTableText flattens a parsed table into plain text for insertion
// into the docx template, one row per line.
func RenderTableText(table [][]string) string {
	var sb strings.Builder
	for i, row := range table {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(row, " — "))
	}
	return sb.String()
}
