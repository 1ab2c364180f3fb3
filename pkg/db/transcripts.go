package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"press-transcripts/pkg/domain"
)

// ErrInvalidSpeechKind is returned when a speech with an unknown kind is written.
var ErrInvalidSpeechKind = errors.New("invalid speech kind")

// CountSections returns the number of sections stored for a press conference.
func (r *Repo) CountSections(ctx context.Context, conferenceID string) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM section WHERE press_conference_id = ?`, conferenceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return n, nil
}

// DeleteSections removes all sections of a press conference together with their speeches.
func (r *Repo) DeleteSections(ctx context.Context, conferenceID string) error {
	if _, err := r.exec(ctx, `DELETE FROM speech WHERE press_conference_id = ?`, conferenceID); err != nil {
		return fmt.Errorf("delete speeches: %w", err)
	}
	if _, err := r.exec(ctx, `DELETE FROM section WHERE press_conference_id = ?`, conferenceID); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	return nil
}

// UpsertSection creates or updates the section keyed by (press conference, order).
// On return s.ID holds the stored ID.
func (r *Repo) UpsertSection(ctx context.Context, s *domain.Section) error {
	const upsert = `
INSERT INTO section (id, press_conference_id, position)
VALUES (?, ?, ?)
ON CONFLICT (press_conference_id, position) DO UPDATE SET position = excluded.position
RETURNING id`
	if err := r.queryRow(ctx, upsert, s.ID, s.PressConferenceID, s.Order).Scan(&s.ID); err != nil {
		return fmt.Errorf("upsert section %d: %w", s.Order, err)
	}
	return nil
}

// UpsertSpeech creates or updates the speech keyed by (press conference, order).
// On return sp.ID holds the stored ID.
func (r *Repo) UpsertSpeech(ctx context.Context, sp *domain.Speech) error {
	if !sp.Kind.Valid() {
		return fmt.Errorf("upsert speech %d: %w: %q", sp.Order, ErrInvalidSpeechKind, sp.Kind)
	}
	const upsert = `
INSERT INTO speech (id, press_conference_id, section_id, position, kind, speaker_id, label, text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (press_conference_id, position) DO UPDATE SET
    section_id = excluded.section_id,
    kind = excluded.kind,
    speaker_id = excluded.speaker_id,
    label = excluded.label,
    text = excluded.text
RETURNING id`
	err := r.queryRow(ctx, upsert, sp.ID, sp.PressConferenceID, sp.SectionID, sp.Order, string(sp.Kind),
		nullString(sp.SpeakerID()), sp.Label, sp.Text).Scan(&sp.ID)
	if err != nil {
		return fmt.Errorf("upsert speech %d: %w", sp.Order, err)
	}
	return nil
}

// TrimSections deletes sections, and their speeches, at order from or later.
func (r *Repo) TrimSections(ctx context.Context, conferenceID string, from int) (int64, error) {
	const speeches = `
DELETE FROM speech WHERE section_id IN (
    SELECT id FROM section WHERE press_conference_id = ? AND position >= ?
)`
	if _, err := r.exec(ctx, speeches, conferenceID, from); err != nil {
		return 0, fmt.Errorf("trim speeches of sections: %w", err)
	}
	res, err := r.exec(ctx, `DELETE FROM section WHERE press_conference_id = ? AND position >= ?`, conferenceID, from)
	if err != nil {
		return 0, fmt.Errorf("trim sections: %w", err)
	}
	return res.RowsAffected()
}

// TrimSpeeches deletes speeches at order from or later.
func (r *Repo) TrimSpeeches(ctx context.Context, conferenceID string, from int) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM speech WHERE press_conference_id = ? AND position >= ?`, conferenceID, from)
	if err != nil {
		return 0, fmt.Errorf("trim speeches: %w", err)
	}
	return res.RowsAffected()
}

// ListSections returns the sections of a press conference in order, each with its
// speeches and their speakers.
func (r *Repo) ListSections(ctx context.Context, conferenceID string) ([]*domain.Section, error) {
	rows, err := r.query(ctx, `SELECT id, position FROM section WHERE press_conference_id = ? ORDER BY position`, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []*domain.Section
	byID := make(map[string]*domain.Section)
	for rows.Next() {
		s := &domain.Section{PressConferenceID: conferenceID}
		if err := rows.Scan(&s.ID, &s.Order); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	speeches, err := r.ListSpeeches(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	for _, sp := range speeches {
		if s, ok := byID[sp.SectionID]; ok {
			s.Speeches = append(s.Speeches, sp)
		}
	}
	return sections, nil
}

// ListSpeeches returns the speeches of a press conference in order.
func (r *Repo) ListSpeeches(ctx context.Context, conferenceID string) ([]*domain.Speech, error) {
	const q = `
SELECT sp.id, sp.section_id, sp.position, sp.kind, sp.label, sp.text,
       ` + speakerSelect + `
FROM speech sp
LEFT JOIN speaker s ON s.id = sp.speaker_id
LEFT JOIN organization o ON o.id = s.organization_id
WHERE sp.press_conference_id = ?
ORDER BY sp.position`
	rows, err := r.query(ctx, q, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("query speeches: %w", err)
	}
	defer rows.Close()

	var out []*domain.Speech
	for rows.Next() {
		sp := &domain.Speech{PressConferenceID: conferenceID}
		var kind string
		var speaker nullableSpeaker
		dest := append([]any{&sp.ID, &sp.SectionID, &sp.Order, &kind, &sp.Label, &sp.Text}, speaker.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan speech: %w", err)
		}
		sp.Kind = domain.SpeechKind(kind)
		sp.Speaker = speaker.value()
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// nullableSpeaker scans the speaker and organization columns of an outer join.
type nullableSpeaker struct {
	id, name, title, organization                  sql.NullString
	orgID, orgName, orgOtherNames, orgJurisdiction sql.NullString
}

func (n *nullableSpeaker) dest() []any {
	return []any{&n.id, &n.name, &n.title, &n.organization, &n.orgID, &n.orgName, &n.orgOtherNames, &n.orgJurisdiction}
}

func (n *nullableSpeaker) value() *domain.Speaker {
	if !n.id.Valid {
		return nil
	}
	s := &domain.Speaker{
		ID:           n.id.String,
		Name:         n.name.String,
		Title:        n.title.String,
		Organization: n.organization.String,
	}
	if n.orgID.Valid {
		s.OrganizationRef = &domain.Organization{
			ID:           n.orgID.String,
			Name:         n.orgName.String,
			OtherNames:   n.orgOtherNames.String,
			Jurisdiction: n.orgJurisdiction.String,
		}
	}
	return s
}
