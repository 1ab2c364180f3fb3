package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"press-transcripts/pkg/domain"
	"press-transcripts/pkg/slug"
)

// SetConferenceTopics replaces the topics linked to a press conference. Topics are shared
// across conferences and matched by slug.
func (r *Repo) SetConferenceTopics(ctx context.Context, conferenceID string, names []string) error {
	if _, err := r.exec(ctx, `DELETE FROM press_conference_topic WHERE press_conference_id = ?`, conferenceID); err != nil {
		return fmt.Errorf("unlink topics: %w", err)
	}

	for i, name := range names {
		s := slug.Make(name)
		if s == "" {
			continue
		}
		if _, err := r.exec(ctx, `INSERT INTO topic (id, name, slug) VALUES (?, ?, ?) ON CONFLICT (slug) DO NOTHING`, uuid.NewString(), name, s); err != nil {
			return fmt.Errorf("insert topic %q: %w", name, err)
		}
		var topicID string
		if err := r.queryRow(ctx, `SELECT id FROM topic WHERE slug = ?`, s).Scan(&topicID); err != nil {
			return notFound(err, "select topic "+s)
		}
		const link = `
INSERT INTO press_conference_topic (press_conference_id, topic_id, position)
VALUES (?, ?, ?)
ON CONFLICT (press_conference_id, topic_id) DO NOTHING`
		if _, err := r.exec(ctx, link, conferenceID, topicID, i); err != nil {
			return fmt.Errorf("link topic %q: %w", name, err)
		}
	}
	return nil
}

// ConferenceTopics returns the topics of a press conference in document order.
func (r *Repo) ConferenceTopics(ctx context.Context, conferenceID string) ([]*domain.Topic, error) {
	const q = `
SELECT t.id, t.name, t.slug, t.description
FROM topic t
JOIN press_conference_topic pt ON pt.topic_id = t.id
WHERE pt.press_conference_id = ?
ORDER BY pt.position`
	rows, err := r.query(ctx, q, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var out []*domain.Topic
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
