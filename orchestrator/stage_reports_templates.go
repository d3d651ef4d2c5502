package orchestrator

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/use-agent/seoscope/models"
)

const (
	executiveSummaryFile    = "executive_summary.md"
	implementationGuideFile = "implementation_guide.md"
)

// executiveSummaryData and implementationGuideData are the view models fed
// to the two Markdown templates. Keeping them distinct from finalReport
// lets the templates stay free of business logic: every derived value
// (best competitor, top gaps) is computed once in Go and handed to
// text/template as a plain field.
type executiveSummaryData struct {
	ProjectName       string
	Query             string
	TargetURL         string
	TargetScore       *models.ContentScore
	CompetitorCount   int
	BestCompetitor    *models.ContentScore
	Coverage          models.CoverageStats
	TopGaps           []models.SemanticGap
	SkippedURLs       []string
	TargetTokens      int
	AverageCompetitor float64
}

type implementationGuideData struct {
	ProjectName string
	TargetURL   string
	TargetScore *models.ContentScore
	Gaps        []models.SemanticGap
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var executiveSummaryTemplate = template.Must(template.New("executive_summary").Funcs(templateFuncs).Parse(`# Executive Summary — {{.ProjectName}}

Query: **{{.Query}}**
Target: {{.TargetURL}}

{{if .TargetScore -}}
## Target Score

| Dimension | Score |
|---|---|
| Composite | {{printf "%.3f" .TargetScore.CompositeScore}} |
| SEO | {{printf "%.3f" .TargetScore.SEOScore}} |
| Metadata alignment | {{printf "%.3f" .TargetScore.MetadataAlignment}} |
| Hierarchical decomposition | {{printf "%.3f" .TargetScore.HierarchicalDecomposition}} |
| Thematic unity | {{printf "%.3f" .TargetScore.ThematicUnity}} |
| Balance | {{printf "%.3f" .TargetScore.Balance}} |
| Query intent | {{printf "%.3f" .TargetScore.QueryIntent}} |
| Structural coherence | {{printf "%.3f" .TargetScore.StructuralCoherence}} |
{{else -}}
Target scoring did not complete for this run.
{{end}}
Scored against {{.CompetitorCount}} competitor{{if ne .CompetitorCount 1}}s{{end}}.
{{if .BestCompetitor}}Top-scoring competitor: {{.BestCompetitor.URL}} (composite {{printf "%.3f" .BestCompetitor.CompositeScore}})
{{end}}
## Coverage

- Unique phrases in target: {{.Coverage.YourUniquePhrases}}
- Phrases common across competitors: {{.Coverage.CompetitorCommonPhrases}}
- Semantic gaps found: {{.Coverage.SemanticGapsFound}}
- High-impact recommendations: {{.Coverage.HighImpactRecommendations}}

## Top Semantic Gaps
{{if .TopGaps}}
{{range .TopGaps -}}
- **{{.Phrase}}** — query similarity {{printf "%.3f" .QuerySimilarity}}, used by {{.CompetitorUsage}} competitor{{if ne .CompetitorUsage 1}}s{{end}}, estimated impact {{printf "%.3f" .EstimatedImpact}}
{{end}}
{{else}}
No semantic gaps were identified against the target's current content.
{{end}}
## Content Budget

- Target content: {{.TargetTokens}} tokens
- Average competitor content: {{printf "%.1f" .AverageCompetitor}} tokens
{{if .SkippedURLs}}
## Skipped URLs
{{range .SkippedURLs}}
- {{.}}
{{end}}
{{end}}`))

var implementationGuideTemplate = template.Must(template.New("implementation_guide").Funcs(templateFuncs).Parse(`# Implementation Guide — {{.ProjectName}}

Target: {{.TargetURL}}

This guide translates each semantic gap and scoring recommendation into a
concrete content change, ordered by estimated impact.

{{if .TargetScore}}{{if .TargetScore.Recommendations}}## Scoring Recommendations
{{range .TargetScore.Recommendations}}
1. {{.}}
{{end}}
{{end}}{{if .TargetScore.OutlierChunks}}
Outlier chunks (weak thematic alignment): {{range $i, $c := .TargetScore.OutlierChunks}}{{if $i}}, {{end}}#{{$c}}{{end}}
{{end}}{{end}}
## Gap-by-Gap Actions
{{if .Gaps}}
{{range $i, $g := .Gaps}}
### {{inc $i}}. {{$g.Phrase}}

- Query similarity: {{printf "%.3f" $g.QuerySimilarity}}
- Used by {{$g.CompetitorUsage}} competitor{{if ne $g.CompetitorUsage 1}}s{{end}}
- Estimated impact: {{printf "%.3f" $g.EstimatedImpact}}
{{if $g.Sources}}- Seen in: {{range $j, $s := $g.Sources}}{{if $j}}, {{end}}{{$s}}{{end}}
{{end}}{{if $g.Recommendation}}- Action: {{$g.Recommendation}}
{{else}}- Action: work the phrase "{{$g.Phrase}}" into a heading or the opening paragraph of the relevant section.
{{end}}
{{end}}
{{else}}
No gaps to act on; the target's phrase coverage already matches its competitors.
{{end}}`))

// renderExecutiveSummary and renderImplementationGuide write the two
// Markdown reports the on-disk project layout calls for, using the same
// scores, gaps, and budget data runReportsStage already assembled for
// summary.json.
func (o *Orchestrator) renderExecutiveSummary(p *models.Project, target *models.PageSnapshot, competitors []*models.PageSnapshot, targetScore *models.ContentScore, competitorScores []models.ContentScore, gaps *models.GapReport, skipped []string, budget contentBudget) error {
	data := executiveSummaryData{
		ProjectName:       p.ProjectName,
		Query:             p.Query,
		TargetURL:         p.TargetURL,
		TargetScore:       targetScore,
		CompetitorCount:   len(competitors),
		SkippedURLs:       skipped,
		TargetTokens:      budget.TargetTokens,
		AverageCompetitor: budget.AverageCompetitor,
	}
	data.BestCompetitor = bestCompetitor(competitorScores)
	if gaps != nil {
		data.Coverage = gaps.Coverage
		data.TopGaps = topGaps(gaps.Gaps, 10)
	}

	var buf bytes.Buffer
	if err := executiveSummaryTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering executive summary: %w", err)
	}
	return o.store.writeText(p.ProjectName, filepath.Join(dirReports, dirExecSummary, executiveSummaryFile), buf.Bytes())
}

func (o *Orchestrator) renderImplementationGuide(p *models.Project, targetScore *models.ContentScore, gaps *models.GapReport) error {
	data := implementationGuideData{
		ProjectName: p.ProjectName,
		TargetURL:   p.TargetURL,
		TargetScore: targetScore,
	}
	if gaps != nil {
		data.Gaps = gaps.Gaps
	}

	var buf bytes.Buffer
	if err := implementationGuideTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering implementation guide: %w", err)
	}
	return o.store.writeText(p.ProjectName, filepath.Join(dirReports, dirImplGuide, implementationGuideFile), buf.Bytes())
}

func bestCompetitor(scores []models.ContentScore) *models.ContentScore {
	if len(scores) == 0 {
		return nil
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.CompositeScore > best.CompositeScore {
			best = s
		}
	}
	return &best
}

// topGaps returns the n highest-impact gaps, stable on ties by original
// order; GapAnalyzer already sorts by estimated impact, but the report
// shouldn't assume that invariant holds forever.
func topGaps(gaps []models.SemanticGap, n int) []models.SemanticGap {
	sorted := make([]models.SemanticGap, len(gaps))
	copy(sorted, gaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EstimatedImpact > sorted[j].EstimatedImpact
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
