package feature

import (
	"strings"

	"golang.org/x/text/language"
)

// NoLocale is the pseudo-locale used for classes that carry a single
// locale-independent display name (zip codes, area codes).
const NoLocale = "none"

// NormalizeLocale canonicalizes a source locale code into the lower-case
// underscore form used as Properties.Names keys ("EN-US" and "en_us" both
// become "en_us"). Codes that do not parse as a BCP 47 tag are kept as their
// lower-cased input so no name is ever dropped over a bad locale column.
func NormalizeLocale(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, NoLocale) {
		return NoLocale
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return strings.ToLower(strings.ReplaceAll(code, "-", "_"))
	}
	return strings.ToLower(strings.ReplaceAll(tag.String(), "-", "_"))
}
