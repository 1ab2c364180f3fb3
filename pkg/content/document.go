package content

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Selectors for the regions of a transcript page.
const (
	DateSelector     = "p[class='date']"
	BodySelector     = "div[class='basepage_pages']"
	AbstractSelector = "div[class='abstract']"
	paragraphFilter  = "p, ul"
)

var (
	errEmptyHTML = errors.New("empty HTML content")

	// ErrMissingBody is returned when the transcript container cannot be found.
	ErrMissingBody = errors.New("transcript body container not found")
)

// ParagraphMeta carries lightweight information about the source element of a paragraph.
type ParagraphMeta struct {
	Tag      string
	CSSClass string
}

// Document gives access to the semantically meaningful regions of a raw transcript page.
type Document struct {
	raw      string
	doc      *goquery.Document
	logger   *zap.Logger
	location *time.Location

	topicsDone      bool
	topics          []string
	topicsParagraph *html.Node
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for diagnostics such as ambiguous region matches.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLocation sets the timezone the date stamp is interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(d *Document) {
		if loc != nil {
			d.location = loc
		}
	}
}

// NewDocument parses raw HTML into a Document.
func NewDocument(htmlContent string, opts ...Option) (*Document, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, errEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d := &Document{
		raw:      htmlContent,
		doc:      doc,
		logger:   zap.NewNop(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// single returns the first match of selector below root. Several matches are not fatal
// but are reported, since the page layout may have changed.
func (d *Document) single(root *goquery.Selection, selector string) *goquery.Selection {
	sel := root.Find(selector)
	if sel.Length() == 0 {
		return nil
	}
	if sel.Length() > 1 {
		d.logger.Warn("ambiguous region, using first match",
			zap.String("selector", selector),
			zap.Int("count", sel.Length()))
	}
	return sel.First()
}

// DateText returns the normalized text of the date stamp, or "" if there is none.
func (d *Document) DateText() string {
	sel := d.single(d.doc.Selection, DateSelector)
	if sel == nil {
		return ""
	}
	return NormalizeText(sel.Get(0))
}

// Date locates and parses the date stamp. A missing or malformed stamp yields an error
// wrapping ErrMissingDate.
func (d *Document) Date() (time.Time, error) {
	text := d.DateText()
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: no element matches %s", ErrMissingDate, DateSelector)
	}
	return ParseDate(text, d.location)
}

// BodyRoot returns the container holding the transcript paragraphs.
func (d *Document) BodyRoot() (*goquery.Selection, error) {
	sel := d.single(d.doc.Selection, BodySelector)
	if sel == nil {
		return nil, ErrMissingBody
	}
	return sel, nil
}

// Topics returns the topics of the press conference, either from the abstract block or
// from a leading "Themen:" paragraph. It never fails; missing regions yield no topics.
func (d *Document) Topics() []string {
	d.ensureTopics()
	return d.topics
}

func (d *Document) ensureTopics() {
	if d.topicsDone {
		return
	}
	d.topicsDone = true

	root, err := d.BodyRoot()
	if err != nil {
		return
	}

	var text string
	if abstract := root.ChildrenFiltered(AbstractSelector); abstract.Length() > 0 {
		text = NormalizeText(abstract.Get(0))
	}

	if text == "" {
		first := root.ChildrenFiltered("p").First()
		if first.Length() == 0 {
			return
		}
		text = NormalizeText(first.Get(0))
		if !topicMarker.MatchString(text) {
			return
		}
		d.topicsParagraph = first.Get(0)
	}

	d.topics = ParseTopics(text)
}

// Paragraphs yields the normalized text of every top-level paragraph or list under the
// body root. Paragraphs containing blank lines are split into several items, only the
// first of which carries metadata. The sequence can be ranged over repeatedly.
func (d *Document) Paragraphs() iter.Seq2[string, *ParagraphMeta] {
	return func(yield func(string, *ParagraphMeta) bool) {
		root, err := d.BodyRoot()
		if err != nil {
			return
		}
		d.ensureTopics()

		for _, node := range root.ChildrenFiltered(paragraphFilter).Nodes {
			if node == d.topicsParagraph {
				continue
			}

			meta := &ParagraphMeta{Tag: node.Data, CSSClass: attr(node, "class")}
			for _, text := range strings.Split(NormalizeText(node), "\n\n") {
				if !yield(text, meta) {
					return
				}
				meta = nil
			}
		}
	}
}

// BodyText joins all paragraphs into the text consumed by the transcript grammar: blank
// line separated, without runs of more than one blank line, and terminated by a blank
// line.
func (d *Document) BodyText() (string, error) {
	if _, err := d.BodyRoot(); err != nil {
		return "", err
	}

	var parts []string
	for text := range d.Paragraphs() {
		parts = append(parts, text)
	}

	body := strings.TrimSpace(strings.Join(parts, "\n\n"))
	body = collapseBreaks.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body) + "\n\n", nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
