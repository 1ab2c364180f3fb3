package replication

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"press-transcripts/pkg/domain"
)

// Source reads press conferences and their transcripts from the relational store.
type Source interface {
	ListConferences(ctx context.Context) ([]*domain.PressConference, error)
	ListSections(ctx context.Context, conferenceID string) ([]*domain.Section, error)
}

// Sink stores denormalized press-conference snapshots.
type Sink interface {
	SavePressConference(ctx context.Context, pc *domain.PressConference) error
	GetAllSlugs(ctx context.Context) (map[string]bool, error)
}

// Config wires the publishing dependencies.
type Config struct {
	Source  Source
	Sink    Sink
	Workers int
	Logger  *zap.Logger
}

// Publisher copies parsed press conferences, with sections and speeches, from the
// relational store into the snapshot store.
type Publisher struct {
	source  Source
	sink    Sink
	workers int
	logger  *zap.Logger
}

// Result counts what a publish run did.
type Result struct {
	Published int
	New       int
	Skipped   int
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("snapshot sink is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Publisher{
		source:  cfg.Source,
		sink:    cfg.Sink,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}, nil
}

// Publish snapshots the conferences with the given IDs, or all conferences when none
// are given. Conferences without a transcript are skipped.
func (p *Publisher) Publish(ctx context.Context, ids ...string) (*Result, error) {
	conferences, err := p.selectConferences(ctx, ids)
	if err != nil {
		return nil, err
	}

	existing, err := p.sink.GetAllSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read published slugs: %w", err)
	}

	p.logger.Info("publishing press conferences", zap.Int("count", len(conferences)))
	result, err := p.processBatches(ctx, conferences, existing)
	if err != nil {
		return result, err
	}
	p.logger.Info("publish complete",
		zap.Int("published", result.Published),
		zap.Int("new", result.New),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (p *Publisher) selectConferences(ctx context.Context, ids []string) ([]*domain.PressConference, error) {
	all, err := p.source.ListConferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list press conferences: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]*domain.PressConference, 0, len(ids))
	for _, pc := range all {
		if wanted[pc.ID] {
			out = append(out, pc)
		}
	}
	return out, nil
}

// processBatches publishes conferences in parallel and fails fast on the first error.
func (p *Publisher) processBatches(ctx context.Context, conferences []*domain.PressConference, existing map[string]bool) (*Result, error) {
	type outcome struct {
		published bool
		isNew     bool
		err       error
	}

	jobs := make(chan *domain.PressConference, len(conferences))
	for _, pc := range conferences {
		jobs <- pc
	}
	close(jobs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(conferences))
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pc := range jobs {
				published, err := p.publishOne(ctx, pc)
				results <- outcome{published: published, isNew: published && !existing[pc.Slug], err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &Result{}
	var firstErr error
	for o := range results {
		switch {
		case o.err != nil:
			if firstErr == nil {
				firstErr = o.err
				cancel()
			}
		case !o.published:
			result.Skipped++
		default:
			result.Published++
			if o.isNew {
				result.New++
			}
		}
	}
	return result, firstErr
}

func (p *Publisher) publishOne(ctx context.Context, pc *domain.PressConference) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sections, err := p.source.ListSections(ctx, pc.ID)
	if err != nil {
		return false, fmt.Errorf("list sections of %s: %w", pc.ID, err)
	}
	if len(sections) == 0 {
		return false, nil
	}

	snapshot := *pc
	snapshot.Sections = sections
	if err := p.sink.SavePressConference(ctx, &snapshot); err != nil {
		return false, err
	}
	p.logger.Debug("published press conference", zap.String("slug", pc.Slug))
	return true, nil
}
