// Package utils provides shared helpers for text and logging.
package utils

const ellipsis = "..."

// Truncate returns s cut to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + ellipsis
}

// TruncateFit is like Truncate but keeps the result, ellipsis included, within maxLen runes.
func TruncateFit(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return Truncate(s, maxLen)
	}
	if len([]rune(s)) <= maxLen {
		return s
	}
	return Truncate(s, maxLen-len(ellipsis))
}
