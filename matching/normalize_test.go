package matching

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"trims and lowercases", "  Таблетки  ", "таблетки"},
		{"collapses whitespace runs", "раствор   для \t инфузий", "раствор для инфузий"},
		{"non-breaking space", "500 мг", "500 мг"},
		{"folds yo", "драЖЁ", "драже"},
		{"folds capital yo", "Ёлочная форма", "елочная форма"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"  Таблетки, покрытые оболочкой ",
		"раствор для инъекций",
		"500 мг; 250 мг",
		"",
	}
	for _, input := range inputs {
		once := NormalizeText(input)
		twice := NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestNormalizeCompact(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"500 мг", "500мг"},
		{"500 мг, 250 мг", "500мг250мг"},
		{"10 мг; 20 мг", "10мг20мг"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeCompact(tt.input); got != tt.want {
			t.Errorf("NormalizeCompact(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
