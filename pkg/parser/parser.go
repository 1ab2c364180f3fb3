package parser

// Source is one raw transcript document to load.
type Source struct {
	Location string // path of the HTML file
	Name     string // base name, recorded as the conference's source file
}

// Parser lists transcript sources from a location (a directory, a list file, ...).
type Parser interface {
	Parse(location string) ([]Source, error)
}
