package entities

// SampleRow is a short representation of a matched row, shown to the user
// so they can tell reference options apart.
type SampleRow struct {
	TradeName string `json:"trade_name"`
	DrugForm  string `json:"drug_form"`
	Dosage    string `json:"dosage"`
}

// ReferenceOption groups the rows matched by one reference product.
type ReferenceOption struct {
	ReferenceDrug string      `json:"reference_drug"`
	RowsCount     int         `json:"rows_count"`
	SampleRows    []SampleRow `json:"sample_rows"`
}

// Query holds the raw user search input. Normalization happens in the
// matching package, once per search.
type Query struct {
	Mnn         string `json:"mnn"`
	Routes      string `json:"routes"`
	BaseForm    string `json:"base_form"`
	ReleaseType string `json:"release_type"`
	Dosage      string `json:"dosage"`
}

// SelectionPayload is the full JSON document produced when a reference
// product has been chosen from the options of a search.
type SelectionPayload struct {
	GeneratedAt           string            `json:"generated_at"`
	Source                SelectionSource   `json:"source"`
	Query                 Query             `json:"query"`
	SelectedReferenceDrug string            `json:"selected_reference_drug"`
	SelectedRowsCount     int               `json:"selected_reference_rows_count"`
	SelectedRows          []Row             `json:"selected_reference_rows"`
	ReferenceOptionsCount int               `json:"reference_options_count"`
	ReferenceOptions      []ReferenceOption `json:"reference_options"`
}

// SelectionSource records where the registry data came from.
type SelectionSource struct {
	File  string `json:"file"`
	Sheet string `json:"sheet"`
}
