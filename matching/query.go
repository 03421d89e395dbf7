package matching

import (
	"regexp"
	"strings"
)

var routeSeparators = regexp.MustCompile(`[,;/]| и `)

// stemAlias maps a user-typed stem to a canonical base form.
type stemAlias struct {
	canonical string
	stems     []string
}

// stemAliases cover the common way users shorten form names ("таблетка",
// "табл.", "в таблетках" all contain the stem "таблетк"). Checked in order
// before falling back to the full keyword list.
var stemAliases = []stemAlias{
	{"таблетки", []string{"таблетк"}},
	{"капсулы", []string{"капсул"}},
	{"раствор", []string{"раствор"}},
	{"порошок", []string{"порош"}},
	{"лиофилизат", []string{"лиофилиз"}},
	{"гранулы", []string{"гранул"}},
	{"суспензия", []string{"суспенз"}},
	{"аэрозоль", []string{"аэрозол"}},
	{"спрей", []string{"спре"}},
	{"капли", []string{"капл"}},
	{"суппозитории", []string{"суппозитор"}},
	{"гель", []string{"гел"}},
	{"крем", []string{"крем"}},
	{"мазь", []string{"маз"}},
	{"пластырь", []string{"пластыр"}},
	{"концентрат", []string{"концентрат"}},
}

// conventionalSynonyms are the spellings of "no release modification" that
// users actually type.
var conventionalSynonyms = map[string]bool{
	"обычное":            true,
	"немодифицированное": true,
	"без модификации":    true,
}

// ParseUserRoutes converts free-text route input into a set of canonical
// routes using the same phrase table the form classifier uses. When nothing
// canonical is recognized the text is split on common separators and each
// normalized chunk becomes an opaque route token, so an unusual route still
// matches rows whose form text carries the same wording verbatim.
func ParseUserRoutes(value string) map[string]bool {
	text := NormalizeText(value)
	if text == "" {
		return map[string]bool{}
	}

	routes := make(map[string]bool)
	for _, route := range ExtractRoutes(text, "") {
		routes[route] = true
	}
	if len(routes) > 0 {
		return routes
	}

	for _, chunk := range routeSeparators.Split(text, -1) {
		if normalized := NormalizeText(chunk); normalized != "" {
			routes[normalized] = true
		}
	}
	return routes
}

// NormalizeUserReleaseType maps user release-type wording onto the closed
// release vocabulary. Unrecognized text passes through normalized, which
// permits literal-equality matching against unusual registry values.
func NormalizeUserReleaseType(value string) string {
	text := NormalizeText(value)
	if text == "" {
		return ""
	}
	switch {
	case strings.Contains(text, "кишечно"):
		return ReleaseEnteric
	case strings.Contains(text, "пролонг") || strings.Contains(text, "ретард"):
		return ReleaseProlonged
	case strings.Contains(text, "модифиц") || strings.Contains(text, "контролируем") || strings.Contains(text, "замед"):
		return ReleaseModified
	case conventionalSynonyms[text]:
		return ReleaseConventional
	}
	return text
}

// NormalizeUserBaseForm maps user base-form wording onto a canonical base
// form: stem aliases first, then a containment scan over the full keyword
// list, then the normalized text unchanged.
func NormalizeUserBaseForm(value string) string {
	text := NormalizeText(value)
	if text == "" {
		return ""
	}
	for _, alias := range stemAliases {
		for _, stem := range alias.stems {
			if strings.Contains(text, stem) {
				return alias.canonical
			}
		}
	}
	for _, keyword := range baseFormKeywords {
		if strings.Contains(text, keyword) {
			return keyword
		}
	}
	return text
}
