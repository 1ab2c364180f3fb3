package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"press-transcripts/pkg/domain"
)

// GetOrCreateCategory returns the category with slug, creating it with name if needed.
func (r *Repo) GetOrCreateCategory(ctx context.Context, slug, name string) (*domain.Category, error) {
	if slug == "" {
		return nil, fmt.Errorf("category slug is required")
	}
	if name == "" {
		name = slug
	}

	const insert = `INSERT INTO category (id, name, slug) VALUES (?, ?, ?) ON CONFLICT (slug) DO NOTHING`
	if _, err := r.exec(ctx, insert, uuid.NewString(), name, slug); err != nil {
		return nil, fmt.Errorf("insert category %q: %w", slug, err)
	}

	var c domain.Category
	err := r.queryRow(ctx, `SELECT id, name, slug FROM category WHERE slug = ?`, slug).Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, notFound(err, "select category "+slug)
	}
	return &c, nil
}

const conferenceColumns = `id, category_id, title, slug, description, source_url, source_file, date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConference(row rowScanner) (*domain.PressConference, error) {
	var (
		pc       domain.PressConference
		category sql.NullString
		date     timeValue
	)
	if err := row.Scan(&pc.ID, &category, &pc.Title, &pc.Slug, &pc.Description, &pc.SourceURL, &pc.SourceFile, &date); err != nil {
		return nil, err
	}
	pc.CategoryID = category.String
	pc.Date = date.Time
	return &pc, nil
}

// CreateConference inserts pc, assigning an ID when it has none.
func (r *Repo) CreateConference(ctx context.Context, pc *domain.PressConference) error {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	const insert = `INSERT INTO press_conference (` + conferenceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.exec(ctx, insert, pc.ID, nullString(pc.CategoryID), pc.Title, pc.Slug, pc.Description, pc.SourceURL, pc.SourceFile, dbTime(pc.Date))
	if err != nil {
		return fmt.Errorf("insert press conference: %w", err)
	}
	return nil
}

// GetOrCreateConference returns the press conference of a category on date. created
// reports whether it was inserted by this call.
func (r *Repo) GetOrCreateConference(ctx context.Context, categoryID string, date time.Time) (pc *domain.PressConference, created bool, err error) {
	if categoryID == "" || date.IsZero() {
		return nil, false, fmt.Errorf("category and date are required")
	}
	const insert = `INSERT INTO press_conference (id, category_id, date) VALUES (?, ?, ?) ON CONFLICT (category_id, date) DO NOTHING`
	res, err := r.exec(ctx, insert, uuid.NewString(), nullString(categoryID), dbTime(date))
	if err != nil {
		return nil, false, fmt.Errorf("insert press conference: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	row := r.queryRow(ctx, `SELECT `+conferenceColumns+` FROM press_conference WHERE category_id = ? AND date = ?`, nullString(categoryID), dbTime(date))
	pc, err = scanConference(row)
	if err != nil {
		return nil, false, notFound(err, "select press conference")
	}
	return pc, created, nil
}

// GetConference returns the press conference with id.
func (r *Repo) GetConference(ctx context.Context, id string) (*domain.PressConference, error) {
	pc, err := scanConference(r.queryRow(ctx, `SELECT `+conferenceColumns+` FROM press_conference WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "select press conference "+id)
	}
	return pc, nil
}

// ListConferences returns all press conferences ordered by date.
func (r *Repo) ListConferences(ctx context.Context) ([]*domain.PressConference, error) {
	rows, err := r.query(ctx, `SELECT `+conferenceColumns+` FROM press_conference ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query press conferences: %w", err)
	}
	defer rows.Close()

	var out []*domain.PressConference
	for rows.Next() {
		pc, err := scanConference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan press conference: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// LockConference takes a row lock on the press conference for the rest of the
// transaction. SQLite has a single writer, so there it only checks existence.
func (r *Repo) LockConference(ctx context.Context, id string) error {
	query := `SELECT id FROM press_conference WHERE id = ?`
	if r.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	var got string
	if err := r.queryRow(ctx, query, id).Scan(&got); err != nil {
		return notFound(err, "lock press conference "+id)
	}
	return nil
}

// SlugTaken reports whether another press conference than excludeID uses slug.
func (r *Repo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := r.queryRow(ctx, `SELECT COUNT(*) FROM press_conference WHERE slug = ? AND id <> ?`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count slug %q: %w", slug, err)
	}
	return n > 0, nil
}

// UpdateConference writes all fields of pc.
func (r *Repo) UpdateConference(ctx context.Context, pc *domain.PressConference) error {
	const update = `
UPDATE press_conference
SET category_id = ?, title = ?, slug = ?, description = ?, source_url = ?, source_file = ?, date = ?
WHERE id = ?`
	res, err := r.exec(ctx, update, nullString(pc.CategoryID), pc.Title, pc.Slug, pc.Description, pc.SourceURL, pc.SourceFile, dbTime(pc.Date), pc.ID)
	if err != nil {
		return fmt.Errorf("update press conference %s: %w", pc.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update press conference %s: %w", pc.ID, domain.ErrNotFound)
	}
	return nil
}

// LoadedSourceFiles returns the set of source files that already have a parsed transcript.
func (r *Repo) LoadedSourceFiles(ctx context.Context) (map[string]bool, error) {
	const q = `
SELECT DISTINCT pc.source_file
FROM press_conference pc
JOIN section s ON s.press_conference_id = pc.id
WHERE pc.source_file <> ''`
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query source files: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		set[f] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return set, nil
}
