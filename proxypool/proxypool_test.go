package proxypool

import (
	"strings"
	"testing"
)

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	p := New(Sequential)
	src := "# comment\n\nuser1:pass1@host1:8080\nuser2:pass2@host2:8081\n"
	if err := p.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 proxies, got %d", p.Len())
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	p := New(Sequential)
	src := "not-a-proxy\nuser:pass@host:9090\n"
	if err := p.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 proxy, got %d", p.Len())
	}
}

func TestSequentialRotationCoversAll(t *testing.T) {
	p := New(Sequential)
	src := "u:p@h1:1\nu:p@h2:2\nu:p@h3:3\n"
	if err := p.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	seen := make(map[string]int)
	var prev string
	for i := 0; i < 4; i++ {
		pr := p.Next()
		if pr == nil {
			t.Fatalf("Next returned nil at iteration %d", i)
		}
		key := pr.String()
		if i > 0 && key == prev && p.Len() >= 2 {
			t.Fatalf("same proxy returned twice in a row: %s", key)
		}
		prev = key
		seen[key]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected all 3 proxies to be returned at least once, got %v", seen)
	}
}

func TestNextOnEmptyPoolReturnsNil(t *testing.T) {
	p := New(Sequential)
	if pr := p.Next(); pr != nil {
		t.Fatalf("expected nil on empty pool, got %v", pr)
	}
}

func TestMarkFailedResetsWhenAllFailed(t *testing.T) {
	p := New(Sequential)
	src := "u:p@h1:1\nu:p@h2:2\n"
	if err := p.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	p.MarkFailed(Proxy{Host: "h1", Port: "1"})
	p.MarkFailed(Proxy{Host: "h2", Port: "2"})

	pr := p.Next()
	if pr == nil {
		t.Fatal("expected Next to reset the failed set and return a proxy")
	}
}
