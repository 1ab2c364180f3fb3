package worker

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"press-transcripts/pkg/content"
	"press-transcripts/pkg/loader"
	"press-transcripts/pkg/parser"
)

// DocumentLoader parses and stores one raw document.
type DocumentLoader interface {
	Prepare(raw string) (*loader.Prepared, error)
	CreateAndLoad(ctx context.Context, raw, categorySlug, sourceFile string) (*loader.Report, error)
	Title(date time.Time) string
}

// Options configures a Worker.
type Options struct {
	Category string
	// DumpDir receives the raw document, its body text and the error of every failure.
	// Empty disables dumping.
	DumpDir string
	// DryRun parses documents without writing to the store.
	DryRun bool
	Logger *zap.Logger
}

// Worker loads transcript documents from disk
type Worker struct {
	loader DocumentLoader
	opts   Options
	logger *zap.Logger
}

// NewWorker creates a new worker
func NewWorker(l DocumentLoader, opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{loader: l, opts: opts, logger: logger}
}

// ProcessSource processes a single document: reads, parses, and saves it.
func (w *Worker) ProcessSource(ctx context.Context, src parser.Source) (*loader.Report, error) {
	data, err := os.ReadFile(src.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	raw := string(data)

	report, err := w.load(ctx, raw, src)
	if err != nil {
		w.dump(src, raw, err)
		return nil, err
	}
	return report, nil
}

func (w *Worker) load(ctx context.Context, raw string, src parser.Source) (*loader.Report, error) {
	if !w.opts.DryRun {
		return w.loader.CreateAndLoad(ctx, raw, w.opts.Category, src.Name)
	}

	p, err := w.loader.Prepare(raw)
	if err != nil {
		return nil, err
	}
	return &loader.Report{Date: p.Date, Title: w.loader.Title(p.Date), Topics: p.Topics, Roster: p.Roster}, nil
}

// DumpName is the file name a failed source is dumped under. The prefix is derived from
// the full location, so sources sharing a base name do not overwrite each other.
func DumpName(src parser.Source) string {
	sum := sha1.Sum([]byte(src.Location))
	return hex.EncodeToString(sum[:4]) + "-" + src.Name
}

// dump writes the failed document next to its normalized body text for inspection.
func (w *Worker) dump(src parser.Source, raw string, loadErr error) {
	if w.opts.DumpDir == "" {
		return
	}
	if err := os.MkdirAll(w.opts.DumpDir, 0o755); err != nil {
		w.logger.Warn("failed to create dump directory", zap.String("dir", w.opts.DumpDir), zap.Error(err))
		return
	}

	base := DumpName(src)
	files := map[string]string{
		base:          raw,
		base + ".err": loadErr.Error() + "\n",
	}
	if doc, err := content.NewDocument(raw); err == nil {
		if body, err := doc.BodyText(); err == nil {
			files[base+".txt"] = body
		}
	}

	for name, data := range files {
		path := filepath.Join(w.opts.DumpDir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			w.logger.Warn("failed to write dump", zap.String("file", path), zap.Error(err))
		}
	}
}
