// Package grammar tokenizes normalized press-conference transcript text.
//
// At every position the body elements are tried in a fixed order and the first one that
// matches wins:
//
//  1. a side-note in brackets or a "Zuruf:" line
//  2. "Frage: text"
//  3. "Speaker: text"
//  4. a question line followed by a speech line
//  5. a speaker line followed by a speech line
//  6. a speech line
//
// Within one element a speaker shape that matched is never retried as a later shape.
package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const excerptLength = 60

// MatchError reports input the grammar could not consume.
type MatchError struct {
	Offset  int
	Line    int
	Excerpt string
}

func (e *MatchError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("grammar: no transcript content at line %d", e.Line)
	}
	return fmt.Sprintf("grammar: unexpected text at line %d (offset %d): %q", e.Line, e.Offset, e.Excerpt)
}

func newMatchError(text string, pos int) *MatchError {
	rest := text[pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	if utf8.RuneCountInString(rest) > excerptLength {
		rest = string([]rune(rest)[:excerptLength]) + "…"
	}
	return &MatchError{
		Offset:  pos,
		Line:    strings.Count(text[:pos], "\n") + 1,
		Excerpt: rest,
	}
}

// Parse tokenizes a transcript body. The whole input must be consumed; otherwise a
// *MatchError describing the first unmatched position is returned.
func Parse(text string) (*Result, error) {
	p := &parser{text: text}
	result := &Result{}

	pos := 0
	if names, end, ok := p.roster(pos); ok {
		result.Roster = names
		pos = end
	}
	if tok, end, ok := p.sideNote(pos); ok {
		result.Tokens = append(result.Tokens, tok)
		pos = end
	}

	for pos < len(text) {
		tokens, end, ok := p.element(pos)
		if !ok {
			break
		}
		result.Tokens = append(result.Tokens, tokens...)
		pos = end
	}

	if pos < len(text) || len(result.Tokens) == 0 {
		return nil, newMatchError(text, pos)
	}
	return result, nil
}

type parser struct {
	text string
}

// at matches re anchored at pos and returns submatch indexes relative to the whole text.
func (p *parser) at(re *regexp.Regexp, pos int) []int {
	loc := re.FindStringSubmatchIndex(p.text[pos:])
	if loc == nil {
		return nil
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += pos
		}
	}
	return loc
}

// lineEnd consumes the paragraph break after a token. The end of input also counts.
func (p *parser) lineEnd(pos int) (int, bool) {
	if pos == len(p.text) {
		return pos, true
	}
	if loc := p.at(paragraphBreak, pos); loc != nil {
		return loc[1], true
	}
	return pos, false
}

func (p *parser) element(pos int) ([]Token, int, bool) {
	if tok, end, ok := p.sideNote(pos); ok {
		return []Token{tok}, end, true
	}
	if tokens, end, ok := p.inline(pos, p.question(pos)); ok {
		return tokens, end, true
	}
	if tokens, end, ok := p.inline(pos, p.speakerShape(pos, inlineShapes)); ok {
		return tokens, end, true
	}
	if tokens, end, ok := p.standalone(pos, p.question(pos)); ok {
		return tokens, end, true
	}
	if tokens, end, ok := p.standalone(pos, p.speakerShape(pos, standaloneShapes)); ok {
		return tokens, end, true
	}
	if tok, end, ok := p.speech(pos); ok {
		return []Token{tok}, end, true
	}
	return nil, pos, false
}

// marker is a question or speaker token matched at some position, with the offset it
// ends at. A zero marker means no match.
type marker struct {
	tok Token
	end int
}

func (m marker) ok() bool {
	return m.tok.Kind != 0
}

// inline completes "marker: text".
func (p *parser) inline(pos int, m marker) ([]Token, int, bool) {
	if !m.ok() {
		return nil, pos, false
	}
	loc := p.at(colonSeparator, m.end)
	if loc == nil {
		return nil, pos, false
	}
	speech, end, ok := p.speech(loc[1])
	if !ok {
		return nil, pos, false
	}
	return []Token{m.tok, speech}, end, true
}

// standalone completes a marker that stands on its own line and is followed by a speech.
func (p *parser) standalone(pos int, m marker) ([]Token, int, bool) {
	if !m.ok() {
		return nil, pos, false
	}
	next, ok := p.lineEnd(m.end)
	if !ok {
		return nil, pos, false
	}
	speech, end, ok := p.speech(next)
	if !ok {
		return nil, pos, false
	}
	return []Token{m.tok, speech}, end, true
}

func (p *parser) question(pos int) marker {
	loc := p.at(questionWord, pos)
	if loc == nil {
		return marker{}
	}
	return marker{tok: Token{Kind: Question, Text: p.text[loc[0]:loc[1]], Offset: pos}, end: loc[1]}
}

// speakerShape returns the first of shapes matching at pos.
func (p *parser) speakerShape(pos int, shapes []*regexp.Regexp) marker {
	for _, re := range shapes {
		if loc := p.at(re, pos); loc != nil {
			return marker{tok: Token{Kind: Speaker, Text: p.text[loc[0]:loc[1]], Offset: pos}, end: loc[1]}
		}
	}
	return marker{}
}

func (p *parser) speech(pos int) (Token, int, bool) {
	loc := p.at(lineText, pos)
	if loc == nil {
		return Token{}, pos, false
	}
	end, ok := p.lineEnd(loc[1])
	if !ok {
		return Token{}, pos, false
	}
	return Token{Kind: Speech, Text: p.text[loc[0]:loc[1]], Offset: pos}, end, true
}

func (p *parser) sideNote(pos int) (Token, int, bool) {
	if loc := p.at(bracketNote, pos); loc != nil {
		if end, ok := p.lineEnd(loc[1]); ok {
			return Token{Kind: SideNote, Text: p.text[loc[2]:loc[3]], Offset: pos}, end, true
		}
	}
	if loc := p.at(calloutNote, pos); loc != nil {
		if end, ok := p.lineEnd(loc[1]); ok {
			return Token{Kind: SideNote, Text: p.text[loc[0]:loc[1]], Offset: pos}, end, true
		}
	}
	return Token{}, pos, false
}

// roster consumes a leading "Sprecher:" block: the marker, then one name per line, where
// a line may also hold several names separated by ", ". A blank line ends the block.
func (p *parser) roster(pos int) ([]string, int, bool) {
	loc := p.at(rosterMarker, pos)
	if loc == nil {
		return nil, pos, false
	}
	end := loc[1]
	if end < len(p.text) && p.text[end] != ' ' && p.text[end] != '\n' {
		return nil, pos, false
	}
	end = p.at(rosterGap, end)[1]

	var names []string
	for {
		loc := p.at(rosterName, end)
		if loc == nil {
			break
		}
		names = append(names, splitNames(p.text[loc[2]:loc[3]])...)
		end = loc[1]
		if end < len(p.text) && p.text[end] == '\n' && p.at(rosterName, end+1) != nil {
			end++
			continue
		}
		break
	}
	if len(names) == 0 {
		return nil, pos, false
	}

	end, ok := p.lineEnd(end)
	if !ok {
		return nil, pos, false
	}
	return names, end, true
}

func splitNames(line string) []string {
	var names []string
	for _, name := range strings.Split(line, ", ") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
