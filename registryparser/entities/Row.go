package entities

// ParsedForm is the structured classification of a raw dosage-form string.
// It is computed once per distinct raw string at load time and never mutated.
type ParsedForm struct {
	Raw         string   `json:"raw"`
	BaseForm    string   `json:"base_form"`
	ReleaseType string   `json:"release_type"`
	Routes      []string `json:"routes"`
}

// Row represents one entry of the reference drug registry (sheet ст.27.1 ФЗ-61).
// The Norm fields are pre-computed at load time so that matching a query
// against the registry never re-normalizes row text.
type Row struct {
	ReferenceDrug     string `json:"reference_drug"`
	Mnn               string `json:"mnn"`
	TradeName         string `json:"trade_name"`
	DrugForm          string `json:"drug_form"`
	Dosage            string `json:"dosage"`
	OwnerRu           string `json:"owner_ru"`
	Country           string `json:"country"`
	RuNumber          string `json:"ru_number"`
	RuDate            string `json:"ru_date"`
	PatientExceptions string `json:"patient_exceptions"`

	Parsed        ParsedForm `json:"parsed"`
	MnnNorm       string     `json:"-"`
	DosageNorm    string     `json:"-"`
	DosageCompact string     `json:"-"`
}
