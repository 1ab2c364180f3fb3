// Package loader parses raw transcript pages and writes them idempotently to the store.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"press-transcripts/pkg/assembly"
	"press-transcripts/pkg/content"
	"press-transcripts/pkg/db"
	"press-transcripts/pkg/domain"
	"press-transcripts/pkg/grammar"
	"press-transcripts/pkg/lock"
	"press-transcripts/pkg/slug"
	"press-transcripts/pkg/speaker"
)

const (
	DefaultTitlePrefix = "Regierungspressekonferenz vom"
	DefaultCategory    = "bpk"
	titleDateLayout    = "02.01.2006"
)

// Loader turns raw documents into stored press conferences.
type Loader struct {
	store        *db.Store
	locker       lock.Locker
	cache        *speaker.OrganizationCache
	jurisdiction string
	titlePrefix  string
	location     *time.Location
	logger       *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLocker sets the per-conference lock. The default only excludes within the process.
func WithLocker(locker lock.Locker) Option {
	return func(l *Loader) {
		if locker != nil {
			l.locker = locker
		}
	}
}

// WithOrganizationCache shares an organization cache across loaders of one batch.
func WithOrganizationCache(cache *speaker.OrganizationCache) Option {
	return func(l *Loader) {
		if cache != nil {
			l.cache = cache
		}
	}
}

func WithJurisdiction(jurisdiction string) Option {
	return func(l *Loader) {
		if jurisdiction != "" {
			l.jurisdiction = jurisdiction
		}
	}
}

func WithTitlePrefix(prefix string) Option {
	return func(l *Loader) {
		if prefix != "" {
			l.titlePrefix = prefix
		}
	}
}

// WithLocation sets the timezone of the transcript date stamps.
func WithLocation(loc *time.Location) Option {
	return func(l *Loader) {
		if loc != nil {
			l.location = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loader writing to store.
func New(store *db.Store, opts ...Option) *Loader {
	l := &Loader{
		store:        store,
		locker:       lock.NewKeyedMutex(),
		cache:        speaker.NewOrganizationCache(),
		jurisdiction: speaker.DefaultJurisdiction,
		titlePrefix:  DefaultTitlePrefix,
		location:     time.UTC,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Prepared holds everything extracted from a document before storage is touched.
type Prepared struct {
	Date      time.Time
	Topics    []string
	Body      string
	PageTitle string
	Roster    []string
	Tokens    []grammar.Token
}

// Report summarizes one load.
type Report struct {
	ConferenceID string
	Title        string
	Slug         string
	Date         time.Time

	// Created is set when the conference row was inserted by this load, Updated when a
	// previously parsed transcript was replaced.
	Created bool
	Updated bool

	Sections int
	Speeches int
	Trimmed  int64
	Topics   []string
	Roster   []string
}

// Prepare runs every fallible step that does not need the store: document regions, date,
// topics, body text and the grammar.
func (l *Loader) Prepare(raw string) (*Prepared, error) {
	doc, err := content.NewDocument(raw, content.WithLogger(l.logger), content.WithLocation(l.location))
	if err != nil {
		return nil, err
	}

	date, err := doc.Date()
	if err != nil {
		return nil, err
	}
	body, err := doc.BodyText()
	if err != nil {
		return nil, err
	}
	result, err := grammar.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse transcript of %s: %w", date.Format(time.DateOnly), err)
	}

	return &Prepared{
		Date:      date,
		Topics:    doc.Topics(),
		Body:      body,
		PageTitle: doc.PageTitle(),
		Roster:    result.Roster,
		Tokens:    result.Tokens,
	}, nil
}

// Title returns the conference title for date.
func (l *Loader) Title(date time.Time) string {
	return l.titlePrefix + " " + date.Format(titleDateLayout)
}

// ParseAndLoad parses raw and replaces the transcript of pc with it. On success pc holds
// the stored state, including the assembled sections. On error nothing is written.
func (l *Loader) ParseAndLoad(ctx context.Context, raw string, pc *domain.PressConference) (*Report, error) {
	p, err := l.Prepare(raw)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, p, pc)
}

// CreateAndLoad parses raw and loads it into the conference of categorySlug on the
// document's date, creating category and conference as needed.
func (l *Loader) CreateAndLoad(ctx context.Context, raw, categorySlug, sourceFile string) (*Report, error) {
	p, err := l.Prepare(raw)
	if err != nil {
		return nil, err
	}
	if categorySlug == "" {
		categorySlug = DefaultCategory
	}

	cat, err := l.store.GetOrCreateCategory(ctx, categorySlug, "")
	if err != nil {
		return nil, err
	}
	pc, created, err := l.store.GetOrCreateConference(ctx, cat.ID, p.Date)
	if err != nil {
		return nil, err
	}
	if sourceFile != "" {
		pc.SourceFile = sourceFile
	}

	report, err := l.Load(ctx, p, pc)
	if err != nil {
		return nil, err
	}
	report.Created = created
	return report, nil
}

// Load writes a prepared document to pc in one transaction while holding the
// conference lock.
func (l *Loader) Load(ctx context.Context, p *Prepared, pc *domain.PressConference) (*Report, error) {
	if pc == nil || pc.ID == "" {
		return nil, fmt.Errorf("press conference is required")
	}

	unlock, err := l.locker.Lock(ctx, "press-conference/"+pc.ID)
	if err != nil {
		return nil, fmt.Errorf("lock press conference %s: %w", pc.ID, err)
	}
	defer unlock()

	updated := *pc
	report := &Report{ConferenceID: pc.ID, Topics: p.Topics, Roster: p.Roster}
	var transcript *assembly.Transcript

	err = l.store.WithTx(ctx, func(repo *db.Repo) error {
		if err := repo.LockConference(ctx, pc.ID); err != nil {
			return err
		}

		updated.Date = p.Date
		updated.Title = l.Title(p.Date)
		s, err := slug.Unique(slug.Make(updated.Title), func(candidate string) (bool, error) {
			return repo.SlugTaken(ctx, candidate, pc.ID)
		})
		if err != nil {
			return err
		}
		updated.Slug = s
		updated.Description = strings.Join(p.Topics, "\n")
		if err := repo.UpdateConference(ctx, &updated); err != nil {
			return err
		}

		existing, err := repo.CountSections(ctx, pc.ID)
		if err != nil {
			return err
		}
		report.Updated = existing > 0
		if report.Updated {
			if err := repo.DeleteSections(ctx, pc.ID); err != nil {
				return err
			}
		}

		resolver := speaker.NewResolver(repo, l.cache,
			speaker.WithJurisdiction(l.jurisdiction),
			speaker.WithLogger(l.logger.With(zap.String("slug", updated.Slug))))
		transcript, err = assembly.Assemble(ctx, p.Tokens, resolver)
		if err != nil {
			return err
		}

		if err := writeTranscript(ctx, repo, pc.ID, transcript); err != nil {
			return err
		}

		if report.Updated {
			n, err := repo.TrimSections(ctx, pc.ID, len(transcript.Sections))
			if err != nil {
				return err
			}
			m, err := repo.TrimSpeeches(ctx, pc.ID, len(transcript.Speeches))
			if err != nil {
				return err
			}
			report.Trimmed = n + m
		}

		return repo.SetConferenceTopics(ctx, pc.ID, p.Topics)
	})
	if err != nil {
		return nil, fmt.Errorf("load press conference %s: %w", pc.ID, err)
	}

	updated.Sections = transcript.Sections
	*pc = updated

	report.Title = pc.Title
	report.Slug = pc.Slug
	report.Date = pc.Date
	report.Sections = len(transcript.Sections)
	report.Speeches = len(transcript.Speeches)

	l.logger.Info("loaded press conference",
		zap.String("slug", pc.Slug),
		zap.Int("sections", report.Sections),
		zap.Int("speeches", report.Speeches),
		zap.Bool("updated", report.Updated))
	return report, nil
}

// writeTranscript upserts sections and speeches by order. IDs are derived from the
// conference and the order, so reloading an unchanged document rewrites identical rows.
func writeTranscript(ctx context.Context, repo *db.Repo, conferenceID string, t *assembly.Transcript) error {
	for _, sec := range t.Sections {
		sec.ID = entityID(conferenceID, "section", sec.Order)
		sec.PressConferenceID = conferenceID
		if err := repo.UpsertSection(ctx, sec); err != nil {
			return err
		}
		for _, sp := range sec.Speeches {
			sp.ID = entityID(conferenceID, "speech", sp.Order)
			sp.PressConferenceID = conferenceID
			sp.SectionID = sec.ID
			if err := repo.UpsertSpeech(ctx, sp); err != nil {
				return err
			}
		}
	}
	return nil
}

func entityID(conferenceID, kind string, order int) string {
	name := fmt.Sprintf("press-conference/%s/%s/%d", conferenceID, kind, order)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
