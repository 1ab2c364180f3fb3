package replication

import (
	"context"
	"errors"
	"sync"
	"testing"

	"press-transcripts/pkg/domain"
)

type fakeSource struct {
	conferences []*domain.PressConference
	sections    map[string][]*domain.Section
	failID      string
}

func (f *fakeSource) ListConferences(ctx context.Context) ([]*domain.PressConference, error) {
	return f.conferences, nil
}

func (f *fakeSource) ListSections(ctx context.Context, id string) ([]*domain.Section, error) {
	if id == f.failID {
		return nil, errors.New("query failed")
	}
	return f.sections[id], nil
}

type fakeSink struct {
	mu    sync.Mutex
	saved map[string]*domain.PressConference
	slugs map[string]bool
}

func (f *fakeSink) SavePressConference(ctx context.Context, pc *domain.PressConference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]*domain.PressConference)
	}
	f.saved[pc.ID] = pc
	return nil
}

func (f *fakeSink) GetAllSlugs(ctx context.Context) (map[string]bool, error) {
	return f.slugs, nil
}

func newSource() *fakeSource {
	section := func(id string) []*domain.Section {
		return []*domain.Section{{ID: id + "-s0", PressConferenceID: id, Speeches: []*domain.Speech{{ID: id + "-sp0", Text: "Guten Tag."}}}}
	}
	return &fakeSource{
		conferences: []*domain.PressConference{
			{ID: "a", Slug: "regpk-a"},
			{ID: "b", Slug: "regpk-b"},
			{ID: "c", Slug: "regpk-c"},
		},
		sections: map[string][]*domain.Section{"a": section("a"), "b": section("b")},
	}
}

func TestPublishAll(t *testing.T) {
	source := newSource()
	sink := &fakeSink{slugs: map[string]bool{"regpk-a": true}}
	p, err := NewPublisher(Config{Source: source, Sink: sink, Workers: 2})
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	result, err := p.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if *result != (Result{Published: 2, New: 1, Skipped: 1}) {
		t.Errorf("Unexpected result: %+v", result)
	}
	if got := sink.saved["b"]; got == nil || len(got.Sections) != 1 || got.Sections[0].Speeches[0].Text != "Guten Tag." {
		t.Errorf("Snapshot of b missing its transcript: %+v", got)
	}
	if source.conferences[1].Sections != nil {
		t.Error("Publishing must not mutate the source conference")
	}
}

func TestPublishSelected(t *testing.T) {
	sink := &fakeSink{}
	p, err := NewPublisher(Config{Source: newSource(), Sink: sink})
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	result, err := p.Publish(context.Background(), "b")
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if result.Published != 1 || len(sink.saved) != 1 || sink.saved["b"] == nil {
		t.Errorf("Expected only b to be published, got %+v %v", result, sink.saved)
	}
}

func TestPublishError(t *testing.T) {
	source := newSource()
	source.failID = "a"
	p, err := NewPublisher(Config{Source: source, Sink: &fakeSink{}})
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}
	if _, err := p.Publish(context.Background()); err == nil {
		t.Error("Expected error when a conference cannot be read")
	}
}

func TestNewPublisherRequiresDependencies(t *testing.T) {
	if _, err := NewPublisher(Config{Sink: &fakeSink{}}); err == nil {
		t.Error("Expected error without source")
	}
	if _, err := NewPublisher(Config{Source: newSource()}); err == nil {
		t.Error("Expected error without sink")
	}
}
