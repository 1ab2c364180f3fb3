package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"press-transcripts/pkg/loader"
	"press-transcripts/pkg/parser"
)

// Summary aggregates the outcome of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Reports   []*loader.Report
	Failures  map[string]error
}

// Manager manages workers and distributes documents to them
type Manager struct {
	workerCount int
	worker      *Worker
	logger      *zap.Logger
}

// NewManager creates a new manager
func NewManager(workerCount int, w *Worker, logger *zap.Logger) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		workerCount: workerCount,
		worker:      w,
		logger:      logger,
	}
}

// ProcessSources distributes documents to workers and processes them concurrently.
// Failures of single documents are collected; an error is returned only when every
// document failed.
func (m *Manager) ProcessSources(ctx context.Context, sources []parser.Source) (*Summary, error) {
	jobChan := make(chan parser.Source, len(sources))
	for _, src := range sources {
		jobChan <- src
	}
	close(jobChan)

	var wg sync.WaitGroup

	// Results channel to collect success/error from workers (no contention)
	type result struct {
		src      parser.Source
		report   *loader.Report
		workerID int
		err      error
	}
	resultsChan := make(chan result, len(sources))

	for i := 0; i < m.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for src := range jobChan {
				if ctx.Err() != nil {
					resultsChan <- result{src: src, workerID: workerID, err: ctx.Err()}
					continue
				}
				report, err := m.worker.ProcessSource(ctx, src)
				resultsChan <- result{src: src, report: report, workerID: workerID, err: err}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	summary := &Summary{Failures: make(map[string]error)}
	for res := range resultsChan {
		if res.err == nil {
			summary.Succeeded++
			summary.Reports = append(summary.Reports, res.report)
			if summary.Succeeded%100 == 0 {
				m.logger.Info("progress", zap.Int("succeeded", summary.Succeeded), zap.Int("failed", summary.Failed))
			}
			continue
		}
		summary.Failed++
		summary.Failures[res.src.Location] = res.err
		m.logger.Error("failed to process document",
			zap.Int("worker", res.workerID),
			zap.String("file", res.src.Location),
			zap.Error(res.err))
	}

	m.logger.Info("completed",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("total", len(sources)))

	if summary.Failed > 0 && summary.Succeeded == 0 {
		return summary, fmt.Errorf("all %d documents failed to process", summary.Failed)
	}
	return summary, nil
}
