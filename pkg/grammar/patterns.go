package grammar

import (
	"regexp"
	"strings"
)

// nameChars matches word characters including umlauts, and hyphens.
const nameChars = `[\p{L}\p{N}_-]`

var (
	functionPrefixes = []string{"SRS", "StS", "Vorsitzende", "Vorsitzender", "Staatssekretär", "Minister"}
	genderSuffixes   = []string{"", "`in", "’in", "'in", "in"}
	titlePrefixes    = []string{"Dr.", "Prof.", "Vorsitzende", "Vorsitzender", "Vors."}
)

// alternatives builds a regexp alternation of every prefix+suffix combination, each followed
// by after. Suffixes vary slowest so that unsuffixed forms are tried first.
func alternatives(prefixes, suffixes []string, after string) string {
	parts := make([]string, 0, len(prefixes)*len(suffixes))
	for _, suffix := range suffixes {
		for _, prefix := range prefixes {
			parts = append(parts, regexp.QuoteMeta(prefix+suffix)+after)
		}
	}
	return strings.Join(parts, "|")
}

var (
	functionAlternatives = alternatives(functionPrefixes, genderSuffixes, " ")
	titleAlternatives    = functionAlternatives + "|" + alternatives(titlePrefixes, []string{""}, " ")

	// Speaker shapes, most specific first.
	ministryShape = regexp.MustCompile(`^(` + nameChars + `+) \(([A-Z]\p{L}{0,6})\)`)
	functionShape = regexp.MustCompile(`^(` + functionAlternatives + `)([A-ZÄÖÜ]` + nameChars + `+)`)
	nameShape     = regexp.MustCompile(`^(?:` + titleAlternatives + `)?[A-ZÄÖÜ]` + nameChars + `+`)

	// inlineShapes may introduce a "Name: text" line, standaloneShapes a line of their own.
	inlineShapes     = []*regexp.Regexp{ministryShape, functionShape, nameShape}
	standaloneShapes = []*regexp.Regexp{ministryShape, functionShape}

	questionWord = regexp.MustCompile(`(?i)^(?:[\p{L}\p{N}_]*frage|Zusatzfrage|Zusatz)`)

	paragraphBreak = regexp.MustCompile(`^\n\n?`)
	colonSeparator = regexp.MustCompile(`^ *: +`)
	lineText       = regexp.MustCompile(`^[^\n]+`)
	bracketNote    = regexp.MustCompile(`^[(\[]([^\])]+)[)\]]`)
	calloutNote    = regexp.MustCompile(`^Zuruf(?: [^: ]+)?: ?[^\n]+`)

	rosterMarker = regexp.MustCompile(`^(?:Sprecherinnen und )?Sprecher:?`)
	rosterGap    = regexp.MustCompile(`^\n{0,2}`)
	rosterName   = regexp.MustCompile(`^ *•? *([^\n]{4,})`)
)

// MatchMinistry reports whether s starts with a "Name (ABBR)" speaker marker.
func MatchMinistry(s string) (name, abbreviation string, ok bool) {
	m := ministryShape.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchFunction reports whether s starts with a function title followed by a name, as in
// "SRS Hille" or "Staatssekretärin Müller".
func MatchFunction(s string) (title, name string, ok bool) {
	m := functionShape.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// MatchName reports whether s starts with an optionally titled capitalized name.
func MatchName(s string) (string, bool) {
	m := nameShape.FindString(s)
	return m, m != ""
}
