package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/seoscope/models"
)

func TestRenderExecutiveSummaryWritesMarkdown(t *testing.T) {
	o := newTestOrchestrator(t)
	p := &models.Project{ProjectName: "acme-widgets", Query: "industrial widgets", TargetURL: "https://target.example.com"}

	targetScore := &models.ContentScore{URL: p.TargetURL, CompositeScore: 0.81, SEOScore: 0.74}
	competitorScores := []models.ContentScore{
		{URL: "https://competitor-one.example.com", CompositeScore: 0.55},
		{URL: "https://competitor-two.example.com", CompositeScore: 0.63},
	}
	gaps := &models.GapReport{
		Gaps: []models.SemanticGap{
			{Phrase: "widget repair kit", QuerySimilarity: 0.71, CompetitorUsage: 2, EstimatedImpact: 0.9, Sources: []string{"https://competitor-one.example.com"}},
		},
		Coverage: models.CoverageStats{YourUniquePhrases: 4, SemanticGapsFound: 1},
	}
	budget := contentBudget{TargetTokens: 120, AverageCompetitor: 95.5, CompetitorTokens: map[string]int{"https://competitor-one.example.com": 90}}

	if err := o.renderExecutiveSummary(p, nil, []*models.PageSnapshot{{URL: "https://competitor-one.example.com"}, {URL: "https://competitor-two.example.com"}}, targetScore, competitorScores, gaps, []string{"https://bad.example.com"}, budget); err != nil {
		t.Fatalf("renderExecutiveSummary: %v", err)
	}

	full := filepath.Join(o.store.Dir(p.ProjectName), dirReports, dirExecSummary, executiveSummaryFile)
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading rendered file: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"acme-widgets",
		"industrial widgets",
		"0.810",
		"widget repair kit",
		"competitor-two.example.com",
		"https://bad.example.com",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected executive summary to contain %q, got:\n%s", want, md)
		}
	}
}

func TestRenderExecutiveSummaryHandlesNoGapsOrScore(t *testing.T) {
	o := newTestOrchestrator(t)
	p := &models.Project{ProjectName: "empty-project", Query: "q", TargetURL: "https://target.example.com"}

	if err := o.renderExecutiveSummary(p, nil, nil, nil, nil, nil, nil, contentBudget{}); err != nil {
		t.Fatalf("renderExecutiveSummary with empty data: %v", err)
	}

	full := filepath.Join(o.store.Dir(p.ProjectName), dirReports, dirExecSummary, executiveSummaryFile)
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading rendered file: %v", err)
	}
	if !strings.Contains(string(data), "did not complete") {
		t.Errorf("expected a note about missing target score, got:\n%s", string(data))
	}
}

func TestRenderImplementationGuideWritesPerGapSections(t *testing.T) {
	o := newTestOrchestrator(t)
	p := &models.Project{ProjectName: "acme-widgets", TargetURL: "https://target.example.com"}

	targetScore := &models.ContentScore{
		URL:             p.TargetURL,
		Recommendations: []string{"Add a comparison table for widget models."},
		OutlierChunks:   []int{2, 5},
	}
	gaps := &models.GapReport{Gaps: []models.SemanticGap{
		{Phrase: "widget maintenance schedule", QuerySimilarity: 0.66, CompetitorUsage: 1, EstimatedImpact: 0.5, Recommendation: "Add a maintenance FAQ section."},
		{Phrase: "widget warranty terms", QuerySimilarity: 0.4, CompetitorUsage: 2, EstimatedImpact: 0.3},
	}}

	if err := o.renderImplementationGuide(p, targetScore, gaps); err != nil {
		t.Fatalf("renderImplementationGuide: %v", err)
	}

	full := filepath.Join(o.store.Dir(p.ProjectName), dirReports, dirImplGuide, implementationGuideFile)
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading rendered file: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"comparison table for widget models",
		"1. widget maintenance schedule",
		"Add a maintenance FAQ section.",
		"2. widget warranty terms",
		`work the phrase "widget warranty terms"`,
		"#2, #5",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected implementation guide to contain %q, got:\n%s", want, md)
		}
	}
}

func TestTopGapsOrdersByImpactAndTruncates(t *testing.T) {
	gaps := []models.SemanticGap{
		{Phrase: "a", EstimatedImpact: 0.2},
		{Phrase: "b", EstimatedImpact: 0.9},
		{Phrase: "c", EstimatedImpact: 0.5},
	}

	top := topGaps(gaps, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(top))
	}
	if top[0].Phrase != "b" || top[1].Phrase != "c" {
		t.Errorf("expected gaps ordered b, c by impact, got %v", top)
	}
}

func TestBestCompetitorPicksHighestComposite(t *testing.T) {
	scores := []models.ContentScore{
		{URL: "a", CompositeScore: 0.3},
		{URL: "b", CompositeScore: 0.8},
		{URL: "c", CompositeScore: 0.5},
	}
	best := bestCompetitor(scores)
	if best == nil || best.URL != "b" {
		t.Errorf("expected competitor b to be best, got %+v", best)
	}
}
