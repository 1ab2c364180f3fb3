package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"press-transcripts/pkg/domain"
)

// speakerSelect lists the columns scanned by nullableSpeaker. Queries alias speaker as s
// and organization as o.
const speakerSelect = `s.id, s.name, s.title, s.organization, o.id, o.name, o.other_names, o.jurisdiction`

const speakerFrom = `
FROM speaker s
LEFT JOIN organization o ON o.id = s.organization_id`

func (r *Repo) findSpeaker(ctx context.Context, where string, args ...any) (*domain.Speaker, error) {
	q := `SELECT ` + speakerSelect + speakerFrom + ` WHERE ` + where + ` ORDER BY s.created_at, s.id LIMIT 1`
	var n nullableSpeaker
	if err := r.queryRow(ctx, q, args...).Scan(n.dest()...); err != nil {
		return nil, notFound(err, "select speaker")
	}
	return n.value(), nil
}

// GetSpeaker returns the speaker with id.
func (r *Repo) GetSpeaker(ctx context.Context, id string) (*domain.Speaker, error) {
	return r.findSpeaker(ctx, `s.id = ?`, id)
}

// FindSpeakerByOrganization matches name and organization reference exactly. An empty
// organizationID matches speakers without reference, whatever their free-text
// organization.
func (r *Repo) FindSpeakerByOrganization(ctx context.Context, name, organizationID string) (*domain.Speaker, error) {
	if organizationID == "" {
		return r.findSpeaker(ctx, `s.name = ? AND s.organization_id IS NULL`, name)
	}
	return r.findSpeaker(ctx, `s.name = ? AND s.organization_id = ?`, name, organizationID)
}

// FindSpeakerByTitle matches name and title exactly.
func (r *Repo) FindSpeakerByTitle(ctx context.Context, name, title string) (*domain.Speaker, error) {
	return r.findSpeaker(ctx, `s.name = ? AND s.title = ?`, name, title)
}

// FindSpeakerByName returns the oldest speaker with exactly this name.
func (r *Repo) FindSpeakerByName(ctx context.Context, name string) (*domain.Speaker, error) {
	return r.findSpeaker(ctx, `s.name = ?`, name)
}

// CreateSpeaker inserts s and assigns its ID.
func (r *Repo) CreateSpeaker(ctx context.Context, s *domain.Speaker) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const insert = `
INSERT INTO speaker (id, name, title, organization, organization_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.exec(ctx, insert, s.ID, s.Name, s.Title, s.Organization, nullString(s.OrganizationID()), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert speaker %q: %w", s.Name, err)
	}
	return nil
}

// DeleteSpeaker removes a speaker. Its speeches stay and lose their speaker reference.
func (r *Repo) DeleteSpeaker(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `UPDATE speech SET speaker_id = NULL WHERE speaker_id = ?`, id); err != nil {
		return fmt.Errorf("detach speeches from speaker %s: %w", id, err)
	}
	res, err := r.exec(ctx, `DELETE FROM speaker WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete speaker %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete speaker %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateOrganization inserts o and assigns its ID.
func (r *Repo) CreateOrganization(ctx context.Context, o *domain.Organization) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	const insert = `
INSERT INTO organization (id, name, other_names, jurisdiction, created_at)
VALUES (?, ?, ?, ?, ?)`
	if _, err := r.exec(ctx, insert, o.ID, o.Name, o.OtherNames, o.Jurisdiction, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert organization %q: %w", o.Name, err)
	}
	return nil
}

// FindOrganizationByAlias returns the oldest organization of jurisdiction that lists
// alias as one of its alternate names.
func (r *Repo) FindOrganizationByAlias(ctx context.Context, alias, jurisdiction string) (*domain.Organization, error) {
	const q = `
SELECT id, name, other_names, jurisdiction
FROM organization
WHERE jurisdiction = ? AND other_names LIKE ?
ORDER BY created_at, id`
	rows, err := r.query(ctx, q, jurisdiction, "%"+alias+"%")
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.OtherNames, &o.Jurisdiction); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		// LIKE matches substrings; only whole alternate names count.
		if o.HasAlias(alias) {
			return &o, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return nil, fmt.Errorf("organization %q: %w", alias, domain.ErrNotFound)
}
