package extractor

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minSecondaryContentLength is the minimum text length a selector's match
// must reach to be accepted over the next selector in the ladder.
const minSecondaryContentLength = 200

// contentSelectors is tried in order; the first whose matched text reaches
// minSecondaryContentLength wins.
var contentSelectors = []string{
	"main", "article", "[role=main]", ".content", ".main-content",
	".post-content", ".entry-content", ".page-content", ".article-content",
}

// Density-scoring weights, shared in spirit with the pruning scorer used
// to pick among several matches for the same selector.
const (
	wTextDensity   = 3.0
	wLinkDensity   = -2.0
	wClassIDWeight = 1.0
)

var positiveClassIDPatterns = []string{"content", "article", "post", "entry", "body", "main", "text"}
var negativeClassIDPatterns = []string{
	"sidebar", "ad", "widget", "nav", "menu", "comment", "footer",
	"header", "banner", "popup", "modal", "cookie", "social", "share",
}

// extractSecondary removes script/style/nav/footer/header, then tries the
// selector ladder; falls back to <body>, then the whole document.
func extractSecondary(html string) (extracted, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return extracted{}, false
	}

	doc.Find("script, style, nav, footer, header").Remove()

	metaDesc := metaDescriptionFromDoc(doc)
	title := titleFromDoc(doc)

	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		best := bestCandidate(sel)
		if best == nil {
			continue
		}
		text := normalizeWhitespace(best.Text())
		if len(text) >= minSecondaryContentLength {
			return extracted{
				title:           title,
				text:            text,
				metaDescription: metaDesc,
				headings:        headingsFromSelection(best),
			}, true
		}
	}

	body := doc.Find("body")
	if body.Length() > 0 {
		text := normalizeWhitespace(body.Text())
		if len(text) > 0 {
			return extracted{
				title:           title,
				text:            text,
				metaDescription: metaDesc,
				headings:        headingsFromSelection(body),
			}, true
		}
	}

	text := normalizeWhitespace(doc.Text())
	return extracted{
		title:           title,
		text:            text,
		metaDescription: metaDesc,
		headings:        headingsFromSelection(doc.Selection),
	}, len(text) > 0
}

// bestCandidate picks the highest-density element among multiple matches
// for the same selector, rather than always taking the first DOM match.
func bestCandidate(sel *goquery.Selection) *goquery.Selection {
	if sel.Length() == 1 {
		return sel
	}
	var best *goquery.Selection
	bestScore := math.Inf(-1)
	sel.Each(func(_ int, s *goquery.Selection) {
		score := densityScore(s)
		if score > bestScore {
			bestScore = score
			best = s
		}
	})
	return best
}

func densityScore(el *goquery.Selection) float64 {
	html, err := goquery.OuterHtml(el)
	if err != nil || len(html) == 0 {
		return 0
	}
	text := strings.TrimSpace(el.Text())
	textLen := len(text)
	totalLen := len(html)

	textDensity := 0.0
	if totalLen > 0 {
		textDensity = float64(textLen) / float64(totalLen)
	}

	linkTextLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkTextLen += len(strings.TrimSpace(a.Text()))
	})
	linkDensity := 0.0
	if textLen > 0 {
		linkDensity = float64(linkTextLen) / float64(textLen)
	}

	class, _ := el.Attr("class")
	id, _ := el.Attr("id")
	combined := strings.ToLower(class + " " + id)
	classIDScore := 0.0
	for _, pat := range positiveClassIDPatterns {
		if strings.Contains(combined, pat) {
			classIDScore += 3.0
			break
		}
	}
	for _, pat := range negativeClassIDPatterns {
		if strings.Contains(combined, pat) {
			classIDScore -= 3.0
			break
		}
	}

	return textDensity*wTextDensity + linkDensity*wLinkDensity + classIDScore*wClassIDWeight
}
