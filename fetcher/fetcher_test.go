package fetcher

import (
	"context"
	"testing"

	"github.com/use-agent/seoscope/models"
)

func TestDomainOf(t *testing.T) {
	cases := map[string]string{
		"https://example.com/a/b": "example.com",
		"http://sub.example.com":  "sub.example.com",
		"not a url":                "not a url",
	}
	for in, want := range cases {
		if got := domainOf(in); got != want {
			t.Errorf("domainOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategorizeErrorTimeout(t *testing.T) {
	var err error = categorizeError(context.DeadlineExceeded, "navigation failed")
	pe, ok := err.(*models.PipelineError)
	if !ok {
		t.Fatalf("expected *models.PipelineError, got %T", err)
	}
	if pe.Kind != models.ErrKindFetch {
		t.Errorf("expected ErrKindFetch, got %s", pe.Kind)
	}
}

func TestDomainMemoryRoundTrip(t *testing.T) {
	dm := NewDomainMemory(0)
	defer dm.Stop()

	if got := dm.Get("example.com"); got != "" {
		t.Fatalf("expected empty memory, got %q", got)
	}
	dm.Set("example.com", "http://p1:8080")
	if got := dm.Get("example.com"); got != "http://p1:8080" {
		t.Fatalf("got %q", got)
	}
	dm.Delete("example.com")
	if got := dm.Get("example.com"); got != "" {
		t.Fatalf("expected deletion to clear memory, got %q", got)
	}
}
