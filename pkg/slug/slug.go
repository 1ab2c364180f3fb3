// Package slug derives URL slugs from titles.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	ligatures       = strings.NewReplacer("ß", "ss", "ẞ", "SS", "æ", "ae", "Æ", "AE", "ø", "o", "Ø", "O", "œ", "oe", "Œ", "OE")
)

// Make lowercases s, transliterates accented letters to ASCII and joins the remaining
// alphanumeric runs with hyphens.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		ascii = s
	}
	ascii = strings.ToLower(ascii)
	return strings.Trim(nonAlphanumeric.ReplaceAllString(ascii, "-"), "-")
}

// Exists reports whether a slug is already taken.
type Exists func(slug string) (bool, error)

// Unique returns base, or base with the first free numeric suffix ("-1", "-2", ...).
func Unique(base string, exists Exists) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
