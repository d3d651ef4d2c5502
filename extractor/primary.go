package extractor

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/seoscope/models"
)

type extracted struct {
	title           string
	text            string
	metaDescription string
	headings        []models.Heading
}

// extractPrimary runs the Mozilla-Readability-style algorithm. It accepts
// the result only if the extracted text is at least minTextLength long.
func extractPrimary(html, sourceURL string) (extracted, bool) {
	parsed, err := nurl.Parse(sourceURL)
	if err != nil {
		return extracted{}, false
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return extracted{}, false
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minTextLength {
		return extracted{}, false
	}
	return extracted{
		title:           article.Title,
		text:            text,
		metaDescription: article.Excerpt,
		headings:        headingsFromHTML(article.Content),
	}, true
}
