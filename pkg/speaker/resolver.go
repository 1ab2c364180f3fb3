// Package speaker turns raw speaker markers into stable speaker identities.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"press-transcripts/pkg/domain"
	"press-transcripts/pkg/grammar"
)

// DefaultJurisdiction is the jurisdiction abbreviations are resolved in.
const DefaultJurisdiction = "bund"

// Store persists speakers and looks up organizations. Find methods return
// domain.ErrNotFound when nothing matches.
type Store interface {
	OrganizationFinder

	// FindSpeakerByOrganization matches name and organization reference exactly. An empty
	// organizationID matches speakers without reference.
	FindSpeakerByOrganization(ctx context.Context, name, organizationID string) (*domain.Speaker, error)
	FindSpeakerByTitle(ctx context.Context, name, title string) (*domain.Speaker, error)
	// FindSpeakerByName returns the oldest speaker with exactly this name.
	FindSpeakerByName(ctx context.Context, name string) (*domain.Speaker, error)
	CreateSpeaker(ctx context.Context, s *domain.Speaker) error
}

// Resolver resolves speaker markers against a Store.
type Resolver struct {
	store        Store
	cache        *OrganizationCache
	jurisdiction string
	logger       *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithJurisdiction(jurisdiction string) Option {
	return func(r *Resolver) {
		if jurisdiction != "" {
			r.jurisdiction = jurisdiction
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver. A nil cache gives the resolver a private one.
func NewResolver(store Store, cache *OrganizationCache, opts ...Option) *Resolver {
	if cache == nil {
		cache = NewOrganizationCache()
	}
	r := &Resolver{
		store:        store,
		cache:        cache,
		jurisdiction: DefaultJurisdiction,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies raw as "Name (ABBR)", "Function Name" or a bare name, in that order,
// and returns the matching speaker, creating it when needed.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*domain.Speaker, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty speaker marker")
	}

	if name, abbr, ok := grammar.MatchMinistry(raw); ok {
		return r.resolveMinistry(ctx, name, abbr)
	}
	if title, name, ok := grammar.MatchFunction(raw); ok {
		return r.resolveFunction(ctx, title, name)
	}
	return r.resolveName(ctx, raw)
}

func (r *Resolver) resolveMinistry(ctx context.Context, name, abbr string) (*domain.Speaker, error) {
	org, err := r.cache.Lookup(ctx, r.store, abbr, r.jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("lookup organization %q: %w", abbr, err)
	}

	candidate := &domain.Speaker{Name: name, OrganizationRef: org}
	if org == nil {
		r.logger.Warn("unresolved organization abbreviation",
			zap.String("abbr", abbr),
			zap.String("jurisdiction", r.jurisdiction),
			zap.String("speaker", name))
		// Display text only; identity is (name, organization reference).
		candidate.Organization = abbr
	}

	existing, err := r.store.FindSpeakerByOrganization(ctx, name, candidate.OrganizationID())
	return r.getOrCreate(ctx, existing, err, candidate)
}

func (r *Resolver) resolveFunction(ctx context.Context, title, name string) (*domain.Speaker, error) {
	existing, err := r.store.FindSpeakerByTitle(ctx, name, title)
	return r.getOrCreate(ctx, existing, err, &domain.Speaker{Name: name, Title: title})
}

func (r *Resolver) resolveName(ctx context.Context, name string) (*domain.Speaker, error) {
	existing, err := r.store.FindSpeakerByName(ctx, name)
	return r.getOrCreate(ctx, existing, err, &domain.Speaker{Name: name})
}

func (r *Resolver) getOrCreate(ctx context.Context, existing *domain.Speaker, err error, candidate *domain.Speaker) (*domain.Speaker, error) {
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find speaker %q: %w", candidate.Name, err)
	}

	if err := r.store.CreateSpeaker(ctx, candidate); err != nil {
		return nil, fmt.Errorf("create speaker %q: %w", candidate.Name, err)
	}
	r.logger.Debug("created speaker", zap.String("speaker", candidate.String()))
	return candidate, nil
}
