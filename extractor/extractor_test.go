package extractor

import (
	"strings"
	"testing"

	"github.com/use-agent/seoscope/models"
)

func TestExtractPrimarySuccess(t *testing.T) {
	html := `<html><head><title>Widget Framework Guide</title></head><body>
	<article><h1>Widget Framework</h1><p>` + strings.Repeat("This is a long paragraph about widgets. ", 10) + `</p></article>
	</body></html>`

	e := New()
	snap, err := e.Extract(html, "https://example.com/a", "https://example.com/a", "widget framework", "1", true)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if snap.ExtractionMethod != models.ExtractionPrimary {
		t.Errorf("expected primary extraction, got %s", snap.ExtractionMethod)
	}
	if len(snap.Text) < minTextLength {
		t.Errorf("text too short: %d", len(snap.Text))
	}
}

func TestExtractAntiBotDetected(t *testing.T) {
	html := `<html><body><p>Just a moment... cloudflare checking your browser</p></body></html>`
	e := New()
	_, err := e.Extract(html, "https://example.com/a", "https://example.com/a", "q", models.NotRanking, false)
	if err == nil {
		t.Fatal("expected AntiBotDetected error")
	}
	pe, ok := err.(*models.PipelineError)
	if !ok || pe.Kind != models.ErrKindAntiBot {
		t.Fatalf("expected ErrKindAntiBot, got %v", err)
	}
}

func TestExtractEmptyTextFails(t *testing.T) {
	html := `<html><body></body></html>`
	e := New()
	_, err := e.Extract(html, "https://example.com/a", "https://example.com/a", "q", models.NotRanking, false)
	if err == nil {
		t.Fatal("expected extraction error for empty content")
	}
}

func TestExtractSecondaryFallsBackToSelector(t *testing.T) {
	// No <article>/<main> recognizable to readability, but a .content div
	// with enough text for the secondary ladder to accept.
	html := `<html><body><nav>skip me</nav><div class="content">` +
		strings.Repeat("Secondary extraction content block. ", 15) +
		`</div><footer>skip</footer></body></html>`

	secondary, ok := extractSecondary(html)
	if !ok {
		t.Fatal("expected secondary extraction to succeed")
	}
	if len(secondary.text) < minSecondaryContentLength {
		t.Errorf("secondary text too short: %d", len(secondary.text))
	}
}

func TestNearDuplicate(t *testing.T) {
	a := &models.PageSnapshot{Text: "the quick brown fox jumps over the lazy dog"}
	b := &models.PageSnapshot{Text: "the quick brown fox leaps over the lazy dog"}
	c := &models.PageSnapshot{Text: "completely unrelated content about quantum mechanics"}

	if !NearDuplicate(a, b) {
		t.Error("expected near-duplicate texts to be flagged similar")
	}
	if NearDuplicate(a, c) {
		t.Error("expected unrelated texts not to be flagged similar")
	}
}
