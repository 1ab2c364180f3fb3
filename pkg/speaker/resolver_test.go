package speaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"press-transcripts/pkg/domain"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu            sync.Mutex
	organizations []*domain.Organization
	speakers      []*domain.Speaker
	orgLookups    int
	failLookup    error
}

func (f *fakeStore) FindOrganizationByAlias(_ context.Context, alias, jurisdiction string) (*domain.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgLookups++
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	for _, org := range f.organizations {
		if org.Jurisdiction == jurisdiction && org.HasAlias(alias) {
			return org, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) find(match func(*domain.Speaker) bool) (*domain.Speaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.speakers {
		if match(s) {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) FindSpeakerByOrganization(_ context.Context, name, organizationID string) (*domain.Speaker, error) {
	return f.find(func(s *domain.Speaker) bool {
		return s.Name == name && s.OrganizationID() == organizationID
	})
}

func (f *fakeStore) FindSpeakerByTitle(_ context.Context, name, title string) (*domain.Speaker, error) {
	return f.find(func(s *domain.Speaker) bool { return s.Name == name && s.Title == title })
}

func (f *fakeStore) FindSpeakerByName(_ context.Context, name string) (*domain.Speaker, error) {
	return f.find(func(s *domain.Speaker) bool { return s.Name == name })
}

func (f *fakeStore) CreateSpeaker(_ context.Context, s *domain.Speaker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = fmt.Sprintf("speaker-%d", len(f.speakers)+1)
	f.speakers = append(f.speakers, s)
	return nil
}

func bmvg() *domain.Organization {
	return &domain.Organization{
		ID:           "org-bmvg",
		Name:         "Bundesministerium der Verteidigung",
		OtherNames:   "BMVg, Verteidigungsministerium",
		Jurisdiction: "bund",
	}
}

func TestResolveMinistryWithKnownOrganization(t *testing.T) {
	store := &fakeStore{organizations: []*domain.Organization{bmvg()}}
	r := NewResolver(store, nil)

	s, err := r.Resolve(context.Background(), "Müller (BMVg)")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Name != "Müller" {
		t.Errorf("Name = %q, want Müller", s.Name)
	}
	if s.OrganizationID() != "org-bmvg" {
		t.Errorf("OrganizationID = %q, want org-bmvg", s.OrganizationID())
	}
	if s.Organization != "" {
		t.Errorf("Organization = %q, want empty when referenced", s.Organization)
	}
}

func TestResolveMinistryWithoutOrganization(t *testing.T) {
	store := &fakeStore{}
	r := NewResolver(store, nil)

	s, err := r.Resolve(context.Background(), "Müller (BMVg)")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Name != "Müller" || s.OrganizationRef != nil {
		t.Errorf("got %+v, want Müller without organization reference", s)
	}
	if s.Organization != "BMVg" {
		t.Errorf("Organization = %q, want abbreviation kept as text", s.Organization)
	}
}

func TestResolveUnresolvedAbbreviationsShareSpeaker(t *testing.T) {
	store := &fakeStore{organizations: []*domain.Organization{bmvg()}}
	r := NewResolver(store, nil)
	ctx := context.Background()

	var ids []string
	for _, raw := range []string{"Hamberger", "Hamberger (XYZ)", "Hamberger (ABC)"} {
		s, err := r.Resolve(ctx, raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", raw, err)
		}
		if s.OrganizationRef != nil {
			t.Errorf("Resolve(%q) OrganizationRef = %+v, want none", raw, s.OrganizationRef)
		}
		ids = append(ids, s.ID)
	}
	if ids[0] != ids[1] || ids[1] != ids[2] {
		t.Errorf("speaker IDs = %v, want one speaker", ids)
	}

	// A resolved organization is part of the identity.
	withOrg, err := r.Resolve(ctx, "Hamberger (BMVg)")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if withOrg.ID == ids[0] {
		t.Error("speaker with organization reference reused the unreferenced speaker")
	}
	if len(store.speakers) != 2 {
		t.Errorf("store has %d speakers, want 2", len(store.speakers))
	}
}

func TestResolveOtherJurisdictionDoesNotMatch(t *testing.T) {
	org := bmvg()
	org.Jurisdiction = "berlin"
	store := &fakeStore{organizations: []*domain.Organization{org}}

	s, err := NewResolver(store, nil).Resolve(context.Background(), "Müller (BMVg)")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.OrganizationRef != nil {
		t.Errorf("OrganizationRef = %+v, want none", s.OrganizationRef)
	}

	s, err = NewResolver(store, nil, WithJurisdiction("berlin")).Resolve(context.Background(), "Müller (BMVg)")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.OrganizationRef == nil {
		t.Error("OrganizationRef is nil with matching jurisdiction")
	}
}

func TestResolveReusesSpeakers(t *testing.T) {
	store := &fakeStore{organizations: []*domain.Organization{bmvg()}}
	r := NewResolver(store, nil)
	ctx := context.Background()

	for _, raw := range []string{"Müller (BMVg)", "SRS Hille", "Dr. Laiadhi"} {
		first, err := r.Resolve(ctx, raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", raw, err)
		}
		second, err := r.Resolve(ctx, raw)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", raw, err)
		}
		if first.ID != second.ID {
			t.Errorf("Resolve(%q) created two speakers: %s and %s", raw, first.ID, second.ID)
		}
	}
	if len(store.speakers) != 3 {
		t.Errorf("store has %d speakers, want 3", len(store.speakers))
	}
}

func TestResolveFunctionSpeaker(t *testing.T) {
	store := &fakeStore{}
	s, err := NewResolver(store, nil).Resolve(context.Background(), "Staatssekretärin Meyer")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Title != "Staatssekretärin" || s.Name != "Meyer" {
		t.Errorf("got title %q name %q", s.Title, s.Name)
	}

	// Same name, different function: a separate speaker.
	other, err := NewResolver(store, nil).Resolve(context.Background(), "Ministerin Meyer")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if other.ID == s.ID {
		t.Error("different titles resolved to the same speaker")
	}
}

func TestResolveBareNameReusesAnySpeakerWithName(t *testing.T) {
	store := &fakeStore{}
	ctx := context.Background()
	r := NewResolver(store, nil)

	titled, err := r.Resolve(ctx, "SRS Hille")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	bare, err := r.Resolve(ctx, "Hille")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if bare.ID != titled.ID {
		t.Errorf("bare name created %s, want reuse of %s", bare.ID, titled.ID)
	}

	titledName, err := r.Resolve(ctx, "Dr. Laiadhi")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if titledName.Name != "Dr. Laiadhi" || titledName.Title != "" {
		t.Errorf("got %+v, want the raw marker as name", titledName)
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := NewResolver(&fakeStore{}, nil).Resolve(context.Background(), "  "); err == nil {
		t.Error("expected error for empty marker")
	}
}

func TestCacheMemoizesHitsAndMisses(t *testing.T) {
	store := &fakeStore{organizations: []*domain.Organization{bmvg()}}
	cache := NewOrganizationCache()
	r := NewResolver(store, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, fmt.Sprintf("Sprecher%d (BMVg)", i)); err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if _, err := r.Resolve(ctx, fmt.Sprintf("Sprecher%d (XYZ)", i)); err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
	}
	if store.orgLookups != 2 {
		t.Errorf("organization lookups = %d, want 2", store.orgLookups)
	}
	if cache.Len() != 2 {
		t.Errorf("cache.Len() = %d, want 2", cache.Len())
	}

	cache.Invalidate()
	if cache.Len() != 0 {
		t.Errorf("cache.Len() after Invalidate = %d, want 0", cache.Len())
	}
	if _, err := r.Resolve(ctx, "Sprecher0 (BMVg)"); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if store.orgLookups != 3 {
		t.Errorf("organization lookups after Invalidate = %d, want 3", store.orgLookups)
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	boom := errors.New("connection lost")
	store := &fakeStore{failLookup: boom}
	cache := NewOrganizationCache()

	if _, err := NewResolver(store, cache).Resolve(context.Background(), "Müller (BMVg)"); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped lookup error", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d, want 0 after failed lookup", cache.Len())
	}
}

func TestCacheConcurrentLookups(t *testing.T) {
	store := &fakeStore{organizations: []*domain.Organization{bmvg()}}
	cache := NewOrganizationCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			org, err := cache.Lookup(context.Background(), store, "BMVg", "bund")
			if err != nil || org == nil || org.ID != "org-bmvg" {
				t.Errorf("Lookup = %+v, %v", org, err)
			}
		}()
	}
	wg.Wait()
}
