package matching

import (
	"reflect"
	"testing"
)

func TestParseUserRoutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"canonical phrase", "перорально", map[string]bool{"перорально": true}},
		{"full phrase", "для приема внутрь", map[string]bool{"перорально": true}},
		{"two canonical routes", "внутривенно и внутримышечно", map[string]bool{"внутривенно": true, "внутримышечно": true}},
		{"abbreviation", "в/в", map[string]bool{"внутривенно": true}},
		{"unknown falls back to chunks", "сублингвально", map[string]bool{"сублингвально": true}},
		{"unknown list split", "сублингвально, буккально", map[string]bool{"сублингвально": true, "буккально": true}},
		{"unknown split on and", "сублингвально и буккально", map[string]bool{"сублингвально": true, "буккально": true}},
		{"unknown split on slash", "сублингвально/буккально", map[string]bool{"сублингвально": true, "буккально": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUserRoutes(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseUserRoutes(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeUserReleaseType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"кишечнорастворимые", ReleaseEnteric},
		{"Кишечно-растворимое", ReleaseEnteric},
		{"пролонгированное", ReleaseProlonged},
		{"ретард", ReleaseProlonged},
		{"модифицированное высвобождение", ReleaseModified},
		{"контролируемое", ReleaseModified},
		{"замедленное", ReleaseModified},
		{"обычное", ReleaseConventional},
		{"немодифицированное", ReleaseConventional},
		{"без модификации", ReleaseConventional},
		{"что-то своё", "что-то свое"},
	}

	for _, tt := range tests {
		if got := NormalizeUserReleaseType(tt.input); got != tt.want {
			t.Errorf("NormalizeUserReleaseType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeUserBaseForm(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"таблетка", "таблетки"},
		{"в таблетках", "таблетки"},
		{"Капсула", "капсулы"},
		{"лиофилизированный порошок", "порошок"},
		{"гелевая форма", "гель"},
		{"суппозиторий", "суппозитории"},
		{"экстракт", "экстракт"},
		{"неведомая форма", "неведомая форма"},
	}

	for _, tt := range tests {
		if got := NormalizeUserBaseForm(tt.input); got != tt.want {
			t.Errorf("NormalizeUserBaseForm(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
