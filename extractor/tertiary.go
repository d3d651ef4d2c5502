package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTertiary is the last-resort strategy: whole-body plain text with
// headings, no structural reasoning at all.
func extractTertiary(html string) extracted {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return extracted{text: normalizeWhitespace(stripHTMLIfAny(html))}
	}
	doc.Find("script, style").Remove()

	body := doc.Selection
	if b := doc.Find("body"); b.Length() > 0 {
		body = b
	}

	return extracted{
		title:           titleFromDoc(doc),
		text:            normalizeWhitespace(body.Text()),
		metaDescription: metaDescriptionFromDoc(doc),
		headings:        headingsFromSelection(body),
	}
}
