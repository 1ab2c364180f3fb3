package grammar

import "fmt"

// Kind identifies the semantic role of a token.
type Kind int

const (
	SideNote Kind = iota + 1
	Question
	Speaker
	Speech
)

func (k Kind) String() string {
	switch k {
	case SideNote:
		return "SideNote"
	case Question:
		return "Question"
	case Speaker:
		return "Speaker"
	case Speech:
		return "Speech"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is one typed span of transcript text.
//
// For side-notes in brackets, Text is the text between the brackets. For all other kinds it
// is the matched text itself. Offset is the byte offset of the token in the parsed input.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Result is the outcome of parsing a transcript body.
type Result struct {
	// Roster holds the names declared in a leading "Sprecher:" block, if any.
	Roster []string
	Tokens []Token
}
