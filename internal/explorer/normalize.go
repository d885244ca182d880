package explorer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Normalize trims surrounding whitespace and applies Unicode lower-casing.
func Normalize(input string) string {
	return lower.String(strings.TrimSpace(input))
}
