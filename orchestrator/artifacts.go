package orchestrator

import "github.com/use-agent/seoscope/models"

// Cache-key-wrapped artifacts persisted at each stage. The wrapper lets
// Run() decide to skip a stage without re-parsing and re-hashing the
// payload itself.

type serpArtifact struct {
	CacheKey string            `json:"cache_key"`
	Result   models.SerpResult `json:"result"`
}

type processedSnapshot struct {
	Phrases   models.PhraseSet `json:"phrases"`
	Embedding models.Embedding `json:"embedding"`
	CacheKey  string           `json:"cache_key"`
}

type processingArtifact struct {
	CacheKey  string              `json:"cache_key"`
	Snapshots []processedSnapshot `json:"snapshots"`
}

type scoringArtifact struct {
	CacheKey string                `json:"cache_key"`
	Scores   []models.ContentScore `json:"scores"`
}

type optimizationArtifact struct {
	CacheKey string           `json:"cache_key"`
	Report   models.GapReport `json:"report"`
}

// rawBackup pairs a fetched page's raw HTML with its Markdown rendition,
// written under 03_competitor_content/raw_backups/ for every URL the
// fetcher reached, independent of whether extraction later succeeded.
type rawBackup struct {
	URL      string `json:"url"`
	RawHTML  string `json:"raw_html,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// contentBudget reports per-document token counts, the final report's
// content-volume comparison between the target and its competitors.
type contentBudget struct {
	TargetTokens      int            `json:"target_tokens"`
	CompetitorTokens  map[string]int `json:"competitor_tokens"`
	AverageCompetitor float64        `json:"average_competitor_tokens"`
}

// finalReport is the rendered summary written at 07_final_reports.
type finalReport struct {
	ProjectName   string                `json:"project_name"`
	Query         string                `json:"query"`
	TargetURL     string                `json:"target_url"`
	TargetScore   *models.ContentScore  `json:"target_score,omitempty"`
	Competitors   []models.ContentScore `json:"competitor_scores"`
	Gaps          models.GapReport      `json:"semantic_gaps"`
	SkippedURLs   []string              `json:"skipped_urls,omitempty"`
	ContentBudget contentBudget         `json:"content_budget"`
	StageSeconds  map[string]float64    `json:"stage_seconds"`
}
