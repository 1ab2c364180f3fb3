package parser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirParser lists the HTML documents below a directory, in lexical order.
type DirParser struct {
	Recursive bool
}

func NewDirParser(recursive bool) *DirParser {
	return &DirParser{Recursive: recursive}
}

// Parse walks dir and returns every *.html and *.htm file.
func (p *DirParser) Parse(dir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !p.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if IsHTML(path) {
			sources = append(sources, NewSource(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Location < sources[j].Location })
	return sources, nil
}

// IsHTML reports whether path has an HTML file extension.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// ParseAll expands each argument: directories are scanned, files ending in .txt or .list
// are read as list files and anything else is taken as a document path.
func ParseAll(args []string, recursive bool) ([]Source, error) {
	var out []Source
	dirs := NewDirParser(recursive)
	lists := NewFileParser()
	for _, arg := range args {
		var (
			sources []Source
			err     error
		)
		switch {
		case isDir(arg):
			sources, err = dirs.Parse(arg)
		case strings.HasSuffix(arg, ".txt") || strings.HasSuffix(arg, ".list"):
			sources, err = lists.Parse(arg)
		default:
			sources = []Source{NewSource(arg)}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sources...)
	}
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
