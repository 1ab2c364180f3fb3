package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	collapseSpaces    = regexp.MustCompile(`[ \t\f\v]+`)
	spacesAroundBreak = regexp.MustCompile(` ?\n ?`)
	collapseBreaks    = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText flattens an HTML subtree into plain text.
//
// Text is concatenated in document order. Every p, br and li element below n is followed by
// a line break, so a paragraph made of <br><br>-separated blocks comes out as blank-line
// separated text. Non-breaking spaces become ordinary spaces, runs of horizontal whitespace
// collapse to one space and the result is trimmed.
func NormalizeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c)
	}
	return CleanText(b.String())
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}

	switch n.DataAtom {
	case atom.P, atom.Br, atom.Li:
		b.WriteByte('\n')
	}
}

// CleanText applies the whitespace rules of NormalizeText to an already flattened string.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = collapseSpaces.ReplaceAllString(text, " ")
	text = spacesAroundBreak.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
