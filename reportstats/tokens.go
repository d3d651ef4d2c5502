// Package reportstats provides the final report's content-budget
// accounting (tiktoken-based token counts for the target versus its
// competitors) and the Markdown rendition of fetched pages. Per-stage wall
// time is measured by the orchestrator, not here.
package reportstats

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TokenCounter counts tokens with tiktoken when its encoding data is
// available, falling back to a len/4 estimate otherwise. The underlying
// Tiktoken encoder is loaded once and reused across calls.
type TokenCounter struct {
	mu  sync.RWMutex
	enc *tiktoken.Tiktoken
}

// NewTokenCounter constructs a counter using the cl100k_base encoding, the
// one shared by every embedding-sized model this pipeline targets.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

func (c *TokenCounter) getEncoding() *tiktoken.Tiktoken {
	c.mu.RLock()
	enc := c.enc
	c.mu.RUnlock()
	if enc != nil {
		return enc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc != nil {
		return c.enc
	}

	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil
	}
	c.enc = enc
	return c.enc
}

// Count returns the token count for text, using tiktoken when its encoding
// data loaded successfully, or len(text)/4 otherwise.
func (c *TokenCounter) Count(text string) int {
	enc := c.getEncoding()
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
