// Package extractor turns fetched HTML into a PageSnapshot, trying a
// fallback ladder of strategies until one yields substantive content.
package extractor

import (
	"strings"
	"time"

	"github.com/use-agent/seoscope/models"
)

// minTextLength is the minimum extracted text length, in characters, for a
// strategy's output to be accepted.
const minTextLength = 50

// antiBotTokens are substrings that indicate a challenge/block page rather
// than real content.
var antiBotTokens = []string{
	"cloudflare", "captcha", "challenge", "blocked", "access denied",
	"rate limit", "bot detection",
}

// minAntiBotTextLength is the body-text length below which a page is
// considered suspicious regardless of token matches.
const minAntiBotTextLength = 100

// Extractor turns (html, url) into a PageSnapshot using a fallback ladder:
// primary readability-style extraction, secondary structural scan, tertiary
// plain body text.
type Extractor struct{}

// New constructs an Extractor. It holds no state.
func New() *Extractor {
	return &Extractor{}
}

// Extract runs the fallback ladder and returns a PageSnapshot. query and
// serpRanking are stamped onto the snapshot as-is; serpRanking should be
// models.NotRanking when the URL did not appear in organic results.
func (e *Extractor) Extract(html, sourceURL, finalURL, query, serpRanking string, isTarget bool) (*models.PageSnapshot, error) {
	if looksLikeAntiBot(html) {
		return nil, models.NewPipelineError(models.ErrKindAntiBot, "page looks like an anti-bot challenge", nil)
	}

	snap := &models.PageSnapshot{
		URL:               sourceURL,
		FinalURL:          finalURL,
		Query:             query,
		SerpRanking:       serpRanking,
		ScrapingTimestamp: time.Now().UTC(),
		IsTarget:          isTarget,
		RawHTML:           html,
	}

	if primary, ok := extractPrimary(html, finalURL); ok {
		snap.Title = primary.title
		snap.Text = primary.text
		snap.Headings = primary.headings
		snap.MetaDescription = primary.metaDescription
		snap.ExtractionMethod = models.ExtractionPrimary
		return finish(snap)
	}

	if secondary, ok := extractSecondary(html); ok {
		snap.Title = secondary.title
		snap.Text = secondary.text
		snap.Headings = secondary.headings
		snap.MetaDescription = secondary.metaDescription
		snap.ExtractionMethod = models.ExtractionSecondary
		return finish(snap)
	}

	tertiary := extractTertiary(html)
	snap.Title = tertiary.title
	snap.Text = tertiary.text
	snap.Headings = tertiary.headings
	snap.MetaDescription = tertiary.metaDescription
	snap.ExtractionMethod = models.ExtractionTertiary
	return finish(snap)
}

func finish(snap *models.PageSnapshot) (*models.PageSnapshot, error) {
	if len(strings.TrimSpace(snap.Text)) < minTextLength {
		return nil, models.NewPipelineError(models.ErrKindExtraction, "all extraction strategies produced empty text", nil)
	}
	if looksLikeAntiBot(snap.Text) {
		return nil, models.NewPipelineError(models.ErrKindAntiBot, "extracted text looks like an anti-bot challenge", nil)
	}
	return snap, nil
}

// looksLikeAntiBot implements the detection rule verbatim: too-short
// visible text, OR the presence of any known challenge-page token.
func looksLikeAntiBot(text string) bool {
	if len(strings.TrimSpace(stripHTMLIfAny(text))) < minAntiBotTextLength {
		return true
	}
	lower := strings.ToLower(text)
	for _, tok := range antiBotTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// stripHTMLIfAny is a best-effort plain-text length check used only to
// decide whether the short-text anti-bot heuristic applies; it does not
// need to be a faithful renderer.
func stripHTMLIfAny(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
