package content

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// PageTitle returns the title of the page, or "" when none can be found. Readability is
// tried first, then the title, h1 and og:title of the parsed document.
//
// The title is informational only; the stored title of a press conference is derived
// from its date.
func (d *Document) PageTitle() string {
	if article, err := readability.FromReader(strings.NewReader(d.raw), nil); err == nil {
		if title := strings.TrimSpace(article.Title); title != "" {
			return title
		}
	}

	title, err := titleFromDocument(d.doc)
	if err != nil {
		d.logger.Debug("no page title", zap.Error(err))
		return ""
	}
	return title
}

func titleFromDocument(doc *goquery.Document) (string, error) {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title, nil
	}

	if title, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}

	return "", fmt.Errorf("title not found in HTML")
}

// Raw returns the HTML the document was created from.
func (d *Document) Raw() string {
	return d.raw
}
