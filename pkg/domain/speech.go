package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SpeechKind classifies a speech within a section.
type SpeechKind string

const (
	SpeechKindSideNote     SpeechKind = "sidenote"
	SpeechKindQuestion     SpeechKind = "question"
	SpeechKindSpeech       SpeechKind = "speech"
	SpeechKindFollowUp     SpeechKind = "followup"
	SpeechKindInterjection SpeechKind = "interjection"
)

// Valid reports whether k is one of the known kinds.
func (k SpeechKind) Valid() bool {
	switch k {
	case SpeechKindSideNote, SpeechKindQuestion, SpeechKindSpeech, SpeechKindFollowUp, SpeechKindInterjection:
		return true
	default:
		return false
	}
}

// Speech is one recorded utterance unit.
//
// Order is conference-global: it increases monotonically across sections.
type Speech struct {
	ID                string     `bson:"id" json:"id"`
	PressConferenceID string     `bson:"press_conference_id" json:"press_conference_id"`
	SectionID         string     `bson:"section_id" json:"section_id"`
	Order             int        `bson:"order" json:"order"`
	Kind              SpeechKind `bson:"kind" json:"kind"`

	// Speaker is optional; side-notes and questions usually have none.
	Speaker *Speaker `bson:"speaker,omitempty" json:"speaker,omitempty"`

	// Label is the question prompt that introduced the speech, if any.
	Label string `bson:"label,omitempty" json:"label,omitempty"`
	Text  string `bson:"text" json:"text"`
}

// SpeakerID returns the ID of the referenced speaker or "" when there is none.
func (s *Speech) SpeakerID() string {
	if s.Speaker == nil {
		return ""
	}
	return s.Speaker.ID
}

func (s *Speech) IsSideNote() bool { return s.Kind == SpeechKindSideNote }

// Speaker is a resolved speaking identity.
type Speaker struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Title string `bson:"title,omitempty" json:"title,omitempty"`

	// Organization is free text, used when no known organization could be referenced.
	Organization string `bson:"organization,omitempty" json:"organization,omitempty"`

	OrganizationRef *Organization `bson:"organization_ref,omitempty" json:"organization_ref,omitempty"`
}

// OrganizationID returns the ID of the referenced organization or "".
func (s *Speaker) OrganizationID() string {
	if s.OrganizationRef == nil {
		return ""
	}
	return s.OrganizationRef.ID
}

// String renders the speaker as "Title Name (Organization)".
func (s *Speaker) String() string {
	out := s.Name
	if s.Title != "" {
		out = s.Title + " " + out
	}
	switch {
	case s.OrganizationRef != nil:
		out = fmt.Sprintf("%s (%s)", out, s.OrganizationRef.Name)
	case s.Organization != "":
		out = fmt.Sprintf("%s (%s)", out, s.Organization)
	}
	return out
}

// Organization is a known organizational body (e.g. a federal ministry) from an
// independently managed registry.
type Organization struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`

	// OtherNames lists alternate names and abbreviations, separated by commas or newlines.
	OtherNames   string `bson:"other_names,omitempty" json:"other_names,omitempty"`
	Jurisdiction string `bson:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
}

// Aliases returns the trimmed, non-empty entries of OtherNames.
func (o *Organization) Aliases() []string {
	var out []string
	for _, line := range strings.Split(o.OtherNames, "\n") {
		for _, name := range strings.Split(line, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// HasAlias reports whether alias is exactly one of the organization's alternate names.
func (o *Organization) HasAlias(alias string) bool {
	return slices.Contains(o.Aliases(), alias)
}
