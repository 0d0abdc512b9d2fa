// Package security provides input-hardening utilities: field identifier
// validation for template schemas and safe LIKE-pattern escaping for
// client search.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// validFieldIDRegex matches template field identifiers: letters, digits
// and underscores, starting with a letter or underscore. Field ids become
// JSON object keys in stored template data, so the charset stays tight.
var validFieldIDRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidateFieldID checks if a string is usable as a template field id
func ValidateFieldID(name string) error {
	if name == "" {
		return fmt.Errorf("field id cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("field id too long (max 64 characters)")
	}
	if !validFieldIDRegex.MatchString(name) {
		return fmt.Errorf("invalid field id: must contain only letters, numbers, underscores, and hyphens, starting with a letter or underscore")
	}
	return nil
}

// EscapeLikePattern escapes special characters in LIKE patterns
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// SearchPattern builds a contains-style ILIKE parameter from a raw search
// term
func SearchPattern(term string) string {
	return "%" + EscapeLikePattern(term) + "%"
}
