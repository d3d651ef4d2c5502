// Package fetcher drives a headless browser to load a URL through a chosen
// proxy and returns the rendered HTML and final URL.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/proxypool"
)

// Result is the outcome of a single fetch.
type Result struct {
	HTML       string
	FinalURL   string
	StatusCode int
	Title      string
}

// Fetcher obtains rendered HTML for a URL via a controllable headless
// browser. Implementations block for the duration of the call; concurrency
// across URLs is provided by the orchestrator, not here.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string, proxy *proxypool.Proxy) (*Result, error)
	Close()
}

// categorizeError wraps a raw navigation/dial error into a PipelineError
// tagged FetchError, the way the orchestrator expects to see it at stage
// boundaries.
func categorizeError(err error, msg string) *models.PipelineError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrKindFetch, msg+": timeout", err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrKindFetch, "request canceled", err)
	default:
		return models.NewPipelineError(models.ErrKindFetch, msg, err)
	}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

// ErrEmptyBody is returned when navigation succeeds but the page renders no
// content at all, one of the documented NetworkError conditions.
var ErrEmptyBody = fmt.Errorf("fetcher: page body is empty")
