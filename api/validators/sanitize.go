package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps free-text input
// before it reaches a LIKE clause or a stored column.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return trimmed
}
