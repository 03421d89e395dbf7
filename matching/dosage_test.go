package matching

import "testing"

func TestDosageMatches(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		candidate string
		want      bool
	}{
		{"empty user always matches", "", "500 мг", true},
		{"empty user empty candidate", "", "", true},
		{"empty candidate never matches", "500 мг", "", false},
		{"exact", "500 мг", "500 мг", true},
		{"case and spacing", "  500 МГ ", "500 мг", true},
		{"one of comma list", "500 mg", "500mg, 250mg", true},
		{"one of semicolon list", "250 мг", "500 мг; 250 мг", true},
		{"compact whole", "500мг", "500 мг", true},
		{"compact part", "5 мг/мл", "5мг/мл, 10мг/мл", true},
		{"different strength", "100 мг", "500 мг, 250 мг", false},
		{"substring is not a match", "50 мг", "500 мг", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DosageMatches(tt.user, tt.candidate); got != tt.want {
				t.Errorf("DosageMatches(%q, %q) = %v, want %v", tt.user, tt.candidate, got, tt.want)
			}
		})
	}
}
