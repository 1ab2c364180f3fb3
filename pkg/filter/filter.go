package filter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"press-transcripts/pkg/parser"
)

// Filter decides whether a source document is processed.
type Filter interface {
	ShouldKeep(ctx context.Context, src parser.Source) (bool, error)
}

// FilterSources applies all filters to a list of sources
func FilterSources(ctx context.Context, sources []parser.Source, filters ...Filter) ([]parser.Source, error) {
	filtered := make([]parser.Source, 0, len(sources))

	for _, src := range sources {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("filter error for %s: %w", src.Location, err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, src)
		}
	}

	return filtered, nil
}

// ExtensionFilter keeps sources with one of the given extensions (case-insensitive).
type ExtensionFilter struct {
	extensions map[string]bool
}

// NewExtensionFilter creates a filter for extensions such as ".html".
func NewExtensionFilter(extensions ...string) *ExtensionFilter {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return &ExtensionFilter{extensions: set}
}

func (f *ExtensionFilter) ShouldKeep(ctx context.Context, src parser.Source) (bool, error) {
	return f.extensions[strings.ToLower(filepath.Ext(src.Location))], nil
}

// LoadedSourceLister returns the source files that already have a parsed transcript.
type LoadedSourceLister interface {
	LoadedSourceFiles(ctx context.Context) (map[string]bool, error)
}

// AlreadyLoadedFilter filters out sources whose name is recorded on a loaded conference.
// The set is read once, on first use.
type AlreadyLoadedFilter struct {
	lister LoadedSourceLister
	loaded map[string]bool
}

// NewAlreadyLoadedFilter creates a new already-loaded filter
func NewAlreadyLoadedFilter(lister LoadedSourceLister) *AlreadyLoadedFilter {
	return &AlreadyLoadedFilter{lister: lister}
}

// ShouldKeep returns false if the source was loaded before
func (f *AlreadyLoadedFilter) ShouldKeep(ctx context.Context, src parser.Source) (bool, error) {
	if f.loaded == nil {
		loaded, err := f.lister.LoadedSourceFiles(ctx)
		if err != nil {
			return false, err
		}
		f.loaded = loaded
	}
	return !f.loaded[src.Name], nil
}
