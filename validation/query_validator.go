// Package validation provides input validation for the reference search API.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: Latin and Cyrillic letters, digits and safe punctuation.
	// Registry names mix both alphabets ("МНН", "Ca", "мг/мл").
	inputRegex = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-\.\+,;:/%'()№]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

// Compile-time check to ensure QueryValidatorImpl implements QueryValidator
var _ interfaces.QueryValidator = (*QueryValidatorImpl)(nil)

// QueryValidatorImpl implements the interfaces.QueryValidator interface
type QueryValidatorImpl struct{}

// NewQueryValidator creates a new query validator
func NewQueryValidator() interfaces.QueryValidator {
	return &QueryValidatorImpl{}
}

// ValidateQuery checks that a search query carries all required fields and
// that each field passes input validation. Returns the query with every
// field trimmed.
func (v *QueryValidatorImpl) ValidateQuery(q entities.Query) (entities.Query, error) {
	trimmed := entities.Query{
		Mnn:         strings.TrimSpace(q.Mnn),
		Routes:      strings.TrimSpace(q.Routes),
		BaseForm:    strings.TrimSpace(q.BaseForm),
		ReleaseType: strings.TrimSpace(q.ReleaseType),
		Dosage:      strings.TrimSpace(q.Dosage),
	}

	fields := []struct {
		name  string
		value string
	}{
		{"mnn", trimmed.Mnn},
		{"routes", trimmed.Routes},
		{"base_form", trimmed.BaseForm},
		{"release_type", trimmed.ReleaseType},
		{"dosage", trimmed.Dosage},
	}

	for _, f := range fields {
		if f.value == "" {
			return entities.Query{}, fmt.Errorf("field %s is required", f.name)
		}
		if err := v.ValidateInput(f.value); err != nil {
			return entities.Query{}, fmt.Errorf("field %s: %w", f.name, err)
		}
	}

	return trimmed, nil
}

// ValidateInput validates a user input string with enhanced security
func (v *QueryValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > 200 {
		return fmt.Errorf("input too long: maximum 200 characters")
	}

	// Word count validation to prevent DoS with many short words
	words := strings.Fields(input)
	if len(words) > 15 {
		return fmt.Errorf("input too complex: maximum 15 words allowed")
	}

	// Check for potentially dangerous patterns using string matching
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	// Allow only letters, numbers, spaces and safe punctuation
	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and common punctuation are allowed")
	}

	// Additional checks for repeated characters (potential DoS)
	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition checks for DoS patterns with excessive character repetition
func hasExcessiveRepetition(input string) bool {
	// Check for the same byte repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
