package matching

import "regexp"

var dosageListSeparators = regexp.MustCompile(`[;,]`)

// DosageMatches reports whether a user-entered strength is compatible with
// a registry dosage field. Registries frequently list several strengths for
// one form in a single cell ("500 мг, 250 мг") while users type one
// strength with arbitrary spacing, so after the exact comparison the
// candidate is split into parts and finally both sides are compared with
// whitespace and separators stripped.
func DosageMatches(userDosage string, candidateDosage string) bool {
	userNorm := NormalizeText(userDosage)
	if userNorm == "" {
		// Dosage left unconstrained.
		return true
	}
	candNorm := NormalizeText(candidateDosage)
	if candNorm == "" {
		return false
	}
	if userNorm == candNorm {
		return true
	}

	parts := make([]string, 0, 4)
	for _, part := range dosageListSeparators.Split(candNorm, -1) {
		if normalized := NormalizeText(part); normalized != "" {
			parts = append(parts, normalized)
		}
	}
	for _, part := range parts {
		if userNorm == part {
			return true
		}
	}

	userCompact := NormalizeCompact(userDosage)
	if userCompact == NormalizeCompact(candidateDosage) {
		return true
	}
	for _, part := range parts {
		if userCompact == NormalizeCompact(part) {
			return true
		}
	}
	return false
}
