package matching

import (
	"sort"

	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// sampleRowsPerOption bounds the representative rows kept per reference
// option for display.
const sampleRowsPerOption = 3

// NormalizedQuery is a user query brought into the canonical vocabulary,
// computed once per search request. Empty fields mean "no constraint".
type NormalizedQuery struct {
	Mnn         string
	Routes      map[string]bool
	BaseForm    string
	ReleaseType string
	Dosage      string
}

// NormalizeQuery converts raw user input into a NormalizedQuery. The МНН is
// compared verbatim after normalization, no stemming.
func NormalizeQuery(q entities.Query) NormalizedQuery {
	normalized := NormalizedQuery{
		Mnn:    NormalizeText(q.Mnn),
		Routes: ParseUserRoutes(q.Routes),
		Dosage: q.Dosage,
	}
	if NormalizeText(q.BaseForm) != "" {
		normalized.BaseForm = NormalizeUserBaseForm(q.BaseForm)
	}
	if NormalizeText(q.ReleaseType) != "" {
		normalized.ReleaseType = NormalizeUserReleaseType(q.ReleaseType)
	}
	return normalized
}

// RowMatches reports whether a classified registry row satisfies the query.
// The row's route set must cover every queried route: a row with no
// determinable route never satisfies a route-constrained query, while a
// query may under-specify routes relative to a multi-route row.
func RowMatches(row *entities.Row, q NormalizedQuery) bool {
	if q.Mnn != row.MnnNorm {
		return false
	}
	if q.BaseForm != "" && q.BaseForm != row.Parsed.BaseForm {
		return false
	}
	if q.ReleaseType != "" && q.ReleaseType != row.Parsed.ReleaseType {
		return false
	}
	if len(q.Routes) > 0 {
		if len(row.Parsed.Routes) == 0 {
			return false
		}
		rowRoutes := make(map[string]bool, len(row.Parsed.Routes))
		for _, route := range row.Parsed.Routes {
			rowRoutes[route] = true
		}
		for route := range q.Routes {
			if !rowRoutes[route] {
				return false
			}
		}
	}
	if q.Dosage != "" && !DosageMatches(q.Dosage, row.Dosage) {
		return false
	}
	return true
}

// MatchRows returns the indices of all rows accepted for the query, in
// registry order.
func MatchRows(rows []entities.Row, q NormalizedQuery) []int {
	matched := make([]int, 0)
	for i := range rows {
		if RowMatches(&rows[i], q) {
			matched = append(matched, i)
		}
	}
	return matched
}

// BuildReferenceOptions groups accepted rows by reference product name and
// returns the options sorted by case-normalized name. Repeated invocations
// over the same rows produce byte-identical output.
func BuildReferenceOptions(rows []entities.Row) []entities.ReferenceOption {
	grouped := make(map[string]*entities.ReferenceOption)
	order := make([]string, 0)

	for i := range rows {
		name := rows[i].ReferenceDrug
		option, ok := grouped[name]
		if !ok {
			option = &entities.ReferenceOption{
				ReferenceDrug: name,
				SampleRows:    make([]entities.SampleRow, 0, sampleRowsPerOption),
			}
			grouped[name] = option
			order = append(order, name)
		}
		option.RowsCount++
		if len(option.SampleRows) < sampleRowsPerOption {
			option.SampleRows = append(option.SampleRows, entities.SampleRow{
				TradeName: rows[i].TradeName,
				DrugForm:  rows[i].DrugForm,
				Dosage:    rows[i].Dosage,
			})
		}
	}

	sort.Slice(order, func(i, j int) bool {
		left, right := NormalizeText(order[i]), NormalizeText(order[j])
		if left != right {
			return left < right
		}
		return order[i] < order[j]
	})

	options := make([]entities.ReferenceOption, 0, len(order))
	for _, name := range order {
		options = append(options, *grouped[name])
	}
	return options
}

// FilterByReference returns the rows belonging to the chosen reference
// product, preserving registry order.
func FilterByReference(rows []entities.Row, reference string) []entities.Row {
	selected := make([]entities.Row, 0)
	for i := range rows {
		if rows[i].ReferenceDrug == reference {
			selected = append(selected, rows[i])
		}
	}
	return selected
}
