package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/extractor"
	"github.com/use-agent/seoscope/fetcher"
	"github.com/use-agent/seoscope/gapanalyzer"
	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/phraseminer"
	"github.com/use-agent/seoscope/proxypool"
	"github.com/use-agent/seoscope/scorer"
	"github.com/use-agent/seoscope/serpclient"
)

// fakeFetcher returns a fixed page of HTML per URL, keyed by substring, so
// tests can exercise the full pipeline without a real browser or network.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, targetURL string, proxy *proxypool.Proxy) (*fetcher.Result, error) {
	for substr, html := range f.pages {
		if strings.Contains(targetURL, substr) {
			return &fetcher.Result{HTML: html, FinalURL: targetURL, StatusCode: 200}, nil
		}
	}
	return &fetcher.Result{HTML: f.pages["default"], FinalURL: targetURL, StatusCode: 200}, nil
}

func (f *fakeFetcher) Close() {}

// fakeSerpClient returns a fixed ranked result set for any query.
type fakeSerpClient struct {
	results []models.OrganicResult
}

func (c *fakeSerpClient) Search(ctx context.Context, p serpclient.Params) (*models.SerpResult, error) {
	return &models.SerpResult{Query: p.Query, OrganicResults: c.results}, nil
}

func articleHTML(title, body string) string {
	return "<html><head><title>" + title + "</title></head><body><article><h1>" + title +
		"</h1><p>" + body + "</p></article></body></html>"
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	store, err := NewProjectStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewProjectStore: %v", err)
	}

	pool := proxypool.New(proxypool.Sequential)
	_ = pool.Load(strings.NewReader("user:pass@proxy.local:8080"))

	fakeF := &fakeFetcher{pages: map[string]string{
		"target.example.com": articleHTML("Target Widgets",
			strings.Repeat("Our widgets are the best widgets for industrial automation. ", 10)),
		"default": articleHTML("Competitor Widgets",
			strings.Repeat("Affordable widget solutions and widget repair services for every industry. ", 10)),
	}}

	fakeS := &fakeSerpClient{results: []models.OrganicResult{
		{Position: 1, URL: "https://competitor-one.example.com", Title: "Competitor One"},
		{Position: 2, URL: "https://competitor-two.example.com", Title: "Competitor Two"},
	}}

	engine := embedding.NewLocalEngine(32, 8)
	scorerCfg := config.ScorerConfig{
		WeightMetadata:   0.15,
		WeightHierarchy:  0.15,
		WeightThematic:   0.20,
		WeightBalance:    0.10,
		WeightIntent:     0.20,
		WeightStructural: 0.20,
	}

	return New(
		store,
		pool,
		fakeF,
		extractor.New(),
		phraseminer.New(),
		engine,
		scorer.New(engine, scorerCfg),
		gapanalyzer.New(engine),
		fakeS,
		config.FetcherConfig{MaxConcurrentURLs: 2, RatePerWorker: 0, ProxyRetryBase: 0, MaxProxyRetries: 1},
		config.SerpConfig{Location: "us", Language: "en", Device: "desktop"},
		config.OrchestratorConfig{},
	)
}

func TestOrchestratorRunCompletesAllStages(t *testing.T) {
	o := newTestOrchestrator(t)

	p, err := o.Run(context.Background(), "acme-widgets", "industrial widgets", "https://target.example.com", 2, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.Status != models.StatusCompleted {
		t.Fatalf("expected completed status, got %s (last_error=%s)", p.Status, p.LastError)
	}
	for _, stage := range models.StageOrder {
		if !p.HasCompleted(stage) {
			t.Errorf("expected stage %s to be marked completed", stage)
		}
	}
}

func TestOrchestratorRunIsResumable(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	first, err := o.Run(ctx, "acme-widgets", "industrial widgets", "https://target.example.com", 2, nil)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second, err := o.Run(ctx, "acme-widgets", "industrial widgets", "https://target.example.com", 2, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Status != models.StatusCompleted {
		t.Fatalf("expected completed status on resume, got %s", second.Status)
	}
	if first.CreatedAt != second.CreatedAt {
		t.Error("expected resumed project to retain original CreatedAt")
	}
}

func TestOrchestratorRunWritesFinalReportWithContentBudget(t *testing.T) {
	o := newTestOrchestrator(t)

	p, err := o.Run(context.Background(), "acme-widgets", "industrial widgets", "https://target.example.com", 2, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var report finalReport
	ok, err := o.store.readJSON(p.ProjectName, filepath.Join(dirReports, finalReportFile), &report)
	if err != nil || !ok {
		t.Fatalf("readJSON summary.json: ok=%v err=%v", ok, err)
	}

	if report.ContentBudget.TargetTokens <= 0 {
		t.Errorf("expected positive target token count, got %d", report.ContentBudget.TargetTokens)
	}
	if len(report.ContentBudget.CompetitorTokens) == 0 {
		t.Error("expected per-competitor token counts")
	}
	if report.ContentBudget.AverageCompetitor <= 0 {
		t.Errorf("expected positive average competitor token count, got %f", report.ContentBudget.AverageCompetitor)
	}
	for _, stage := range models.StageOrder {
		if _, ok := report.StageSeconds[stage]; !ok {
			t.Errorf("expected stage_seconds to record stage %s", stage)
		}
	}
}

func TestOrchestratorRunReportsProgressPerStage(t *testing.T) {
	o := newTestOrchestrator(t)

	var completed []string
	onProgress := func(stage string) {
		completed = append(completed, stage)
	}

	_, err := o.Run(context.Background(), "acme-widgets", "industrial widgets", "https://target.example.com", 2, onProgress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(completed) != len(models.StageOrder) {
		t.Fatalf("expected %d progress callbacks, got %d: %v", len(models.StageOrder), len(completed), completed)
	}
	for i, stage := range models.StageOrder {
		if completed[i] != stage {
			t.Errorf("expected stage %d to be %s, got %s", i, stage, completed[i])
		}
	}
}

func TestOrchestratorRunRejectsConcurrentExecution(t *testing.T) {
	o := newTestOrchestrator(t)

	lock, err := acquireLock(o.store.Dir("locked-project"))
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer lock.release()

	_, err = o.Run(context.Background(), "locked-project", "q", "https://target.example.com", 2, nil)
	if err == nil {
		t.Fatal("expected Run to fail while the project is locked")
	}
	pe, ok := err.(*models.PipelineError)
	if !ok || pe.Kind != models.ErrKindLockHeld {
		t.Errorf("expected ErrKindLockHeld, got %v", err)
	}
}
