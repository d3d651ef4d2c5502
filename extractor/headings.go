package extractor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/seoscope/models"
)

// headingsFromHTML records h1..h6 elements in document order.
func headingsFromHTML(html string) []models.Heading {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return headingsFromSelection(doc.Selection)
}

func headingsFromSelection(sel *goquery.Selection) []models.Heading {
	var out []models.Heading
	sel.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		level, err := strconv.Atoi(strings.TrimPrefix(tag, "h"))
		if err != nil {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		out = append(out, models.Heading{Level: level, Text: text})
	})
	return out
}

func metaDescriptionFromDoc(doc *goquery.Document) string {
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if desc == "" {
		desc, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}
	return strings.TrimSpace(desc)
}

func titleFromDoc(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// normalizeWhitespace collapses runs of whitespace, the way a reader's
// browser would render adjacent text nodes.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
