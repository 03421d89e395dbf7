package matching

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// wordClass is the character class treated as "word" characters when testing
// whole-word occurrences. Go's RE2 \b and \w are ASCII-only, so Cyrillic
// boundaries have to be spelled out.
const wordClass = `0-9a-zа-я`

// wholeWord builds a pattern matching word as a whole word inside already
// normalized (lowercased) text.
func wholeWord(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^` + wordClass + `])` + regexp.QuoteMeta(word) + `(?:$|[^` + wordClass + `])`)
}

// baseFormKeywords is the priority-ordered list of known pharmaceutical
// forms. Order matters: the first keyword found as a whole word wins.
var baseFormKeywords = []string{
	"имплантат",
	"таблетки",
	"капсулы",
	"лиофилизат",
	"порошок",
	"гранулы",
	"концентрат",
	"растворитель",
	"раствор",
	"суспензия",
	"эмульсия",
	"сироп",
	"капли",
	"спрей",
	"аэрозоль",
	"пластырь",
	"суппозитории",
	"мазь",
	"крем",
	"гель",
	"лосьон",
	"пена",
	"шампунь",
	"паста",
	"линимент",
	"настойка",
	"экстракт",
}

var baseFormPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(baseFormKeywords))
	for i, keyword := range baseFormKeywords {
		patterns[i] = wholeWord(keyword)
	}
	return patterns
}()

// releaseRule maps a canonical release type to its alternative phrasings.
type releaseRule struct {
	canonical string
	patterns  []*regexp.Regexp
}

// releaseRules are evaluated in order, most specific first. A form carrying
// both enteric and prolonged wording classifies as enteric: the coating is
// the more clinically significant attribute.
var releaseRules = []releaseRule{
	{ReleaseEnteric, []*regexp.Regexp{
		regexp.MustCompile(`кишечнораствор`),
	}},
	{ReleaseProlonged, []*regexp.Regexp{
		regexp.MustCompile(`пролонгированн[а-я]* высвобожд`),
		regexp.MustCompile(`пролонгированного действия`),
		regexp.MustCompile(`ретард`),
	}},
	{ReleaseModified, []*regexp.Regexp{
		regexp.MustCompile(`модифицированн[а-я]* высвобожд`),
		regexp.MustCompile(`замедленн[а-я]* высвобожд`),
		regexp.MustCompile(`контролируем[а-я]* высвобожд`),
		regexp.MustCompile(`длительного высвобожд`),
	}},
}

// Canonical release types. ReleaseConventional is the default when no
// modifier wording is present.
const (
	ReleaseEnteric      = "кишечнорастворимое"
	ReleaseProlonged    = "пролонгированное"
	ReleaseModified     = "модифицированное"
	ReleaseConventional = "обычное"
)

// routeRule maps a canonical administration route to its phrasings.
type routeRule struct {
	canonical string
	patterns  []*regexp.Regexp
}

// routeRules covers explicit route phrases in form text. Unlike release
// rules, every rule whose any pattern matches contributes its route: a form
// like "раствор для инъекций и инфузий" carries both routes.
var routeRules = []routeRule{
	{"внутривенно", []*regexp.Regexp{regexp.MustCompile(`внутривенн`), wholeWord("в/в")}},
	{"внутримышечно", []*regexp.Regexp{regexp.MustCompile(`внутримышечн`), wholeWord("в/м")}},
	{"подкожно", []*regexp.Regexp{regexp.MustCompile(`подкожн`), wholeWord("п/к")}},
	{"внутрикожно", []*regexp.Regexp{regexp.MustCompile(`внутрикожн`)}},
	{"ингаляционно", []*regexp.Regexp{regexp.MustCompile(`для ингаляц`), regexp.MustCompile(`(?:^|[^` + wordClass + `])ингаляц`)}},
	{"назально", []*regexp.Regexp{regexp.MustCompile(`назальн`), regexp.MustCompile(`интраназальн`)}},
	{"глазно", []*regexp.Regexp{regexp.MustCompile(`глазн`)}},
	{"ушно", []*regexp.Regexp{regexp.MustCompile(`ушн`)}},
	{"ректально", []*regexp.Regexp{regexp.MustCompile(`ректальн`)}},
	{"вагинально", []*regexp.Regexp{regexp.MustCompile(`вагинальн`)}},
	{"наружно", []*regexp.Regexp{regexp.MustCompile(`наружн[а-я]* применен`), regexp.MustCompile(`накожн`)}},
	{"местно", []*regexp.Regexp{regexp.MustCompile(`местн[а-я]* применен`)}},
	{"перорально", []*regexp.Regexp{regexp.MustCompile(`для приема внутрь`), regexp.MustCompile(`перорал`)}},
	{"трансдермально", []*regexp.Regexp{regexp.MustCompile(`трансдермальн`)}},
	{"внутриполостно", []*regexp.Regexp{regexp.MustCompile(`внутриполостн`)}},
	{"внутрисосудисто", []*regexp.Regexp{regexp.MustCompile(`внутрисосудист`)}},
	{"внутрипузырно", []*regexp.Regexp{regexp.MustCompile(`внутрипузыр`)}},
	{"инъекционно", []*regexp.Regexp{regexp.MustCompile(`для инъекц`)}},
	{"для инфузий", []*regexp.Regexp{regexp.MustCompile(`для инфуз`)}},
}

// Form-based route inference, applied only when no explicit route phrase
// was found. Суппозитории are deliberately absent: without an explicit
// phrase rectal and vaginal use cannot be told apart.
var (
	oralForms = map[string]bool{
		"таблетки": true, "капсулы": true, "гранулы": true, "суспензия": true,
		"сироп": true, "порошок": true, "капли": true, "паста": true,
		"настойка": true, "экстракт": true,
	}
	topicalForms = map[string]bool{
		"крем": true, "мазь": true, "гель": true, "лосьон": true,
		"пена": true, "шампунь": true, "линимент": true,
	}
)

// formCache memoizes ParseForm per raw string. The registry is bounded and
// loaded once per process, so the cache never needs eviction. The lock
// guards only the map, never the classification work itself.
var (
	formCacheMu sync.RWMutex
	formCache   = make(map[string]entities.ParsedForm)
)

// ParseForm classifies raw dosage-form text into a ParsedForm. Results are
// memoized by the raw string; the classification itself runs outside the
// cache lock so concurrent loads never serialize on it.
func ParseForm(raw string) entities.ParsedForm {
	formCacheMu.RLock()
	cached, ok := formCache[raw]
	formCacheMu.RUnlock()
	if ok {
		return cached
	}

	text := NormalizeText(raw)
	baseForm := ExtractBaseForm(text)
	parsed := entities.ParsedForm{
		Raw:         raw,
		BaseForm:    baseForm,
		ReleaseType: ExtractReleaseType(text),
		Routes:      ExtractRoutes(text, baseForm),
	}

	formCacheMu.Lock()
	formCache[raw] = parsed
	formCacheMu.Unlock()

	return parsed
}

// ExtractBaseForm returns the canonical base form found in normalized form
// text. When no known keyword occurs as a whole word, it falls back to the
// first comma-delimited, then space-delimited token, so the base form is
// empty only for empty input.
func ExtractBaseForm(formText string) string {
	if formText == "" {
		return ""
	}
	for i, pattern := range baseFormPatterns {
		if pattern.MatchString(formText) {
			return baseFormKeywords[i]
		}
	}
	firstClause, _, _ := strings.Cut(formText, ",")
	firstWord, _, _ := strings.Cut(firstClause, " ")
	return firstWord
}

// ExtractReleaseType returns the canonical release type of normalized form
// text, ReleaseConventional when no modifier wording is present.
func ExtractReleaseType(formText string) string {
	if formText == "" {
		return ""
	}
	for _, rule := range releaseRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(formText) {
				return rule.canonical
			}
		}
	}
	return ReleaseConventional
}

// ExtractRoutes collects every canonical route whose phrasing occurs in the
// normalized text. If no explicit phrase is found, the base form may imply
// a route. The result is sorted for deterministic output.
func ExtractRoutes(formText string, baseForm string) []string {
	found := make(map[string]bool)
	for _, rule := range routeRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(formText) {
				found[rule.canonical] = true
				break
			}
		}
	}

	if len(found) == 0 {
		switch {
		case oralForms[baseForm]:
			found["перорально"] = true
		case topicalForms[baseForm]:
			found["наружно"] = true
		case baseForm == "пластырь":
			found["трансдермально"] = true
		}
	}

	routes := make([]string, 0, len(found))
	for route := range found {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}
