package domain

import (
	"errors"
	"strings"
	"time"
)

// Category classifies press conferences (e.g. "bpk" for the federal government press
// conference).
type Category struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	Slug string `bson:"slug" json:"slug"`
}

// PressConference represents one parsed transcript occasion.
//
// It is looked up or created by (category, date) before parsing and mutated in place on
// every parse. The core never deletes it.
type PressConference struct {
	ID         string `bson:"id" json:"id"`
	CategoryID string `bson:"category_id,omitempty" json:"category_id,omitempty"`

	// Title and Slug are derived from the event date on every parse.
	Title string `bson:"title" json:"title"`
	Slug  string `bson:"slug" json:"slug"`

	// Description holds the extracted topics, one per line.
	Description string `bson:"description" json:"description"`

	// SourceURL and SourceFile reference where the raw transcript came from.
	SourceURL  string `bson:"source_url,omitempty" json:"source_url,omitempty"`
	SourceFile string `bson:"source_file,omitempty" json:"source_file,omitempty"`

	Date time.Time `bson:"date" json:"date"`

	Sections []*Section `bson:"sections,omitempty" json:"sections,omitempty"`
}

// Topics returns the description split back into its topic lines.
func (pc *PressConference) Topics() []string {
	if pc.Description == "" {
		return nil
	}
	return strings.Split(pc.Description, "\n")
}

// Section groups speeches between two fresh questions. Order is zero-based and unique per
// press conference.
type Section struct {
	ID                string    `bson:"id" json:"id"`
	PressConferenceID string    `bson:"press_conference_id" json:"press_conference_id"`
	Order             int       `bson:"order" json:"order"`
	Speeches          []*Speech `bson:"speeches,omitempty" json:"speeches,omitempty"`
}

// Topic is a shared vocabulary tag.
type Topic struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Slug        string `bson:"slug" json:"slug"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("not found")
