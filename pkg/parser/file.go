package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileParser reads document paths from a list file (one path per line). Relative paths
// are resolved against the directory of the list file.
type FileParser struct{}

// NewFileParser creates a new file parser
func NewFileParser() *FileParser {
	return &FileParser{}
}

// Parse reads the list file at filePath.
func (p *FileParser) Parse(filePath string) ([]Source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	base := filepath.Dir(filePath)
	var sources []Source
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimRight(line, ", \t")
		if line == "" {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		sources = append(sources, NewSource(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file at line %d: %w", lineNum, err)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no documents found in file")
	}

	return sources, nil
}

// NewSource builds a Source for path.
func NewSource(path string) Source {
	return Source{Location: path, Name: filepath.Base(path)}
}
