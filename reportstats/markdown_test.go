package reportstats

import (
	"strings"
	"testing"
)

func TestMarkdownRenderer_RendersHeadingAndLink(t *testing.T) {
	r := NewMarkdownRenderer()

	html := `<html><body><h1>Title</h1><p>See <a href="/docs">docs</a>.</p></body></html>`
	md, err := r.Render(html, "example.com")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if md == "" {
		t.Fatal("expected non-empty markdown")
	}
	if !containsAll(md, "Title", "docs") {
		t.Errorf("expected rendered markdown to retain heading and link text, got %q", md)
	}
}

func TestMarkdownRenderer_Table(t *testing.T) {
	r := NewMarkdownRenderer()

	html := `<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`
	md, err := r.Render(html, "example.com")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !containsAll(md, "A", "B", "1", "2") {
		t.Errorf("expected table cells preserved, got %q", md)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
