// Package assembly folds a transcript token stream into ordered sections and speeches.
package assembly

import (
	"context"
	"fmt"
	"strings"

	"press-transcripts/pkg/domain"
	"press-transcripts/pkg/grammar"
)

// continuationMarkers mark a question that continues the current thread.
var continuationMarkers = []string{"zusatz", "folge", "nachfrage"}

// SpeakerResolver resolves raw speaker markers.
type SpeakerResolver interface {
	Resolve(ctx context.Context, raw string) (*domain.Speaker, error)
}

// Transcript is the assembled entity graph of one press conference. Speeches are listed
// both per section and in conference order.
type Transcript struct {
	Sections []*domain.Section
	Speeches []*domain.Speech
}

// State is the assembly state machine. The zero value is not usable; use NewState.
type State struct {
	resolver SpeakerResolver
	out      *Transcript

	section    *domain.Section
	lastSpeech *domain.Speech

	label   string
	kind    domain.SpeechKind
	speaker *domain.Speaker
}

// NewState returns a state with the first section already open.
func NewState(resolver SpeakerResolver) *State {
	s := &State{resolver: resolver, out: &Transcript{}}
	s.openSection()
	return s
}

// Transcript returns what has been assembled so far.
func (s *State) Transcript() *Transcript {
	return s.out
}

// Apply processes one token.
func (s *State) Apply(ctx context.Context, tok grammar.Token) error {
	switch tok.Kind {
	case grammar.SideNote:
		s.lastSpeech = s.appendSpeech(&domain.Speech{
			Kind: domain.SpeechKindSideNote,
			Text: strings.TrimSpace(tok.Text),
		})

	case grammar.Question:
		s.label = tok.Text
		if isContinuation(tok.Text) {
			s.kind = domain.SpeechKindFollowUp
		} else {
			s.kind = domain.SpeechKindQuestion
			s.openSection()
		}
		s.speaker = nil

	case grammar.Speaker:
		sp, err := s.resolver.Resolve(ctx, tok.Text)
		if err != nil {
			return fmt.Errorf("resolve speaker %q at offset %d: %w", tok.Text, tok.Offset, err)
		}
		s.speaker = sp
		s.kind = domain.SpeechKindSpeech
		s.label = ""

	case grammar.Speech:
		if s.continuesLastSpeech() {
			s.lastSpeech.Text = strings.TrimSpace(s.lastSpeech.Text + "\n\n" + tok.Text)
			return nil
		}
		kind := s.kind
		if kind == "" {
			kind = domain.SpeechKindSpeech
		}
		s.lastSpeech = s.appendSpeech(&domain.Speech{
			Kind:    kind,
			Speaker: s.speaker,
			Label:   s.label,
			Text:    strings.TrimSpace(tok.Text),
		})

	default:
		return fmt.Errorf("unknown token kind %v at offset %d", tok.Kind, tok.Offset)
	}
	return nil
}

// continuesLastSpeech reports whether a speech token belongs to the last speech: same
// pending kind and, when a speaker is pending, the same speaker. The question label is
// not compared.
func (s *State) continuesLastSpeech() bool {
	if s.lastSpeech == nil || s.lastSpeech.IsSideNote() || s.lastSpeech.Kind != s.kind {
		return false
	}
	if s.speaker != nil && !sameSpeaker(s.lastSpeech.Speaker, s.speaker) {
		return false
	}
	return true
}

func (s *State) openSection() {
	s.section = &domain.Section{Order: len(s.out.Sections)}
	s.out.Sections = append(s.out.Sections, s.section)
	s.lastSpeech = nil
}

func (s *State) appendSpeech(sp *domain.Speech) *domain.Speech {
	sp.Order = len(s.out.Speeches)
	s.section.Speeches = append(s.section.Speeches, sp)
	s.out.Speeches = append(s.out.Speeches, sp)
	return sp
}

// Assemble folds tokens into a transcript.
func Assemble(ctx context.Context, tokens []grammar.Token, resolver SpeakerResolver) (*Transcript, error) {
	state := NewState(resolver)
	for _, tok := range tokens {
		if err := state.Apply(ctx, tok); err != nil {
			return nil, err
		}
	}
	return state.Transcript(), nil
}

func isContinuation(label string) bool {
	lower := strings.ToLower(label)
	for _, marker := range continuationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sameSpeaker(a, b *domain.Speaker) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a == b
}
