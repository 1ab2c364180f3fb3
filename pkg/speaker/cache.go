package speaker

import (
	"context"
	"errors"
	"sync"

	"press-transcripts/pkg/domain"
)

// OrganizationFinder looks up an organization by one of its alternate names.
// It returns domain.ErrNotFound when there is none.
type OrganizationFinder interface {
	FindOrganizationByAlias(ctx context.Context, alias, jurisdiction string) (*domain.Organization, error)
}

// OrganizationCache memoizes abbreviation lookups for one batch session. Misses are
// cached too. Lookup errors are not.
//
// The cache is safe for concurrent use. Two goroutines missing the same key may both
// query the finder; they store the same answer.
type OrganizationCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*domain.Organization
}

type cacheKey struct {
	jurisdiction string
	alias        string
}

func NewOrganizationCache() *OrganizationCache {
	return &OrganizationCache{entries: make(map[cacheKey]*domain.Organization)}
}

// Lookup returns the organization for alias, or nil when there is none.
func (c *OrganizationCache) Lookup(ctx context.Context, finder OrganizationFinder, alias, jurisdiction string) (*domain.Organization, error) {
	key := cacheKey{jurisdiction: jurisdiction, alias: alias}

	c.mu.RLock()
	org, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return org, nil
	}

	org, err := finder.FindOrganizationByAlias(ctx, alias, jurisdiction)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		org = nil
	default:
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = org
	c.mu.Unlock()
	return org, nil
}

// Invalidate drops all cached entries, e.g. after the organization registry changed.
func (c *OrganizationCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]*domain.Organization)
	c.mu.Unlock()
}

// Len returns the number of cached entries, misses included.
func (c *OrganizationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
