package serpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/use-agent/seoscope/models"
)

const providerName = "serpapi"

// SerpAPIClient queries SerpAPI's search endpoint.
type SerpAPIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSerpAPIClient builds a client against SerpAPI. baseURL defaults to the
// public endpoint when empty.
func NewSerpAPIClient(apiKey, baseURL string) *SerpAPIClient {
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	return &SerpAPIClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Position int    `json:"position"`
		Link     string `json:"link"`
		Title    string `json:"title"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

// Search issues one request and maps the response into a SerpResult,
// truncated to p.NumResults and carrying a TargetRanking when p.TargetURL
// appears among the organic results.
func (c *SerpAPIClient) Search(ctx context.Context, p Params) (*models.SerpResult, error) {
	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("api_key", c.apiKey)
	q.Set("num", strconv.Itoa(p.NumResults))
	if p.Location != "" {
		q.Set("location", p.Location)
	}
	if p.Language != "" {
		q.Set("hl", p.Language)
	}
	if p.Device != "" {
		q.Set("device", p.Device)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating serp request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SerpError{Provider: providerName, Status: 0, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading serp response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SerpError{Provider: providerName, Status: resp.StatusCode, Reason: string(body)}
	}

	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &SerpError{Provider: providerName, Status: resp.StatusCode, Reason: "malformed JSON response"}
	}
	if parsed.Error != "" {
		return nil, &SerpError{Provider: providerName, Status: resp.StatusCode, Reason: parsed.Error}
	}

	result := &models.SerpResult{Query: p.Query}
	for i, r := range parsed.OrganicResults {
		if i >= p.NumResults {
			break
		}
		result.OrganicResults = append(result.OrganicResults, models.OrganicResult{
			Position: r.Position,
			URL:      r.Link,
			Title:    r.Title,
			Snippet:  r.Snippet,
		})
	}
	result.TargetRanking = targetRanking(result.OrganicResults, p.TargetURL)

	return result, nil
}
