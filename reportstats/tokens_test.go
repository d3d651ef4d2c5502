package reportstats

import "testing"

func TestTokenCounter_CountPositive(t *testing.T) {
	c := NewTokenCounter()

	tokens := c.Count("Hello, how are you today?")
	if tokens <= 0 {
		t.Errorf("expected positive token count, got %d", tokens)
	}
	if tokens > 15 {
		t.Errorf("token count seems too high: %d", tokens)
	}
}

func TestTokenCounter_EmptyString(t *testing.T) {
	c := NewTokenCounter()

	if got := c.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}
}

func TestTokenCounter_ReusesEncoding(t *testing.T) {
	c := NewTokenCounter()

	first := c.Count("the quick brown fox jumps over the lazy dog")
	second := c.Count("the quick brown fox jumps over the lazy dog")
	if first != second {
		t.Errorf("expected stable counts across calls, got %d then %d", first, second)
	}
}

func TestTokenCounter_LongerTextMoreTokens(t *testing.T) {
	c := NewTokenCounter()

	short := c.Count("search engine optimization")
	long := c.Count("search engine optimization is the practice of improving a website's visibility in organic search results across multiple providers")
	if long <= short {
		t.Errorf("expected longer text to produce more tokens: short=%d long=%d", short, long)
	}
}
