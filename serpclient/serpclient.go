// Package serpclient fetches top-N search results from a pluggable
// search API provider and maps them into the common SerpResult shape.
package serpclient

import (
	"context"
	"fmt"

	"github.com/use-agent/seoscope/models"
)

// SerpError reports a provider-level failure: HTTP, auth, or quota.
type SerpError struct {
	Provider string
	Status   int
	Reason   string
}

func (e *SerpError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Reason)
}

// Params is the request shape every provider accepts.
type Params struct {
	Query      string
	Location   string
	Language   string
	NumResults int
	Device     string
	TargetURL  string // used to compute TargetRanking, empty if unknown
}

// Client searches a provider's API and returns the common SerpResult.
type Client interface {
	Search(ctx context.Context, p Params) (*models.SerpResult, error)
}

// targetRanking returns the 1-based position of targetURL within results,
// or nil if it does not appear.
func targetRanking(results []models.OrganicResult, targetURL string) *int {
	if targetURL == "" {
		return nil
	}
	for _, r := range results {
		if r.URL == targetURL {
			pos := r.Position
			return &pos
		}
	}
	return nil
}
