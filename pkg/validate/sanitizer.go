package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/autofix/pkg/domain"
)

// Default size limits, in bytes.
const (
	DefaultMaxEventSize   = 2000
	DefaultMaxMessageSize = 1000
	DefaultMaxProblemSize = 2000
)

// SanitizeInput validates UTF-8, strips dangerous control characters, trims
// surrounding whitespace and truncates the result to at most limit bytes on a
// rune boundary. A non-positive limit disables truncation.
func SanitizeInput(field, input string, limit int) (string, error) {
	// 1. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", &domain.ValidationError{Field: field, Reason: "contains invalid UTF-8 sequences"}
	}

	// 2. Strip Control Characters
	// Newline, tab and carriage return survive; ESC, NULL, BEL and friends do not.
	if strings.IndexFunc(input, isUnsafeControl) >= 0 {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !isUnsafeControl(r) {
				b.WriteRune(r)
			}
		}
		input = b.String()
	}
	input = strings.TrimSpace(input)

	// 3. Enforce Size Limit
	if limit > 0 && len(input) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}
	return input, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
