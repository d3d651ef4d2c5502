package orchestrator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/use-agent/seoscope/models"
)

const finalReportFile = "summary.json"

// runReportsStage renders the final JSON summary tying scores, gaps, and
// content-budget token accounting together. Report rendering is pure local
// composition, so it has no meaningful cache-miss path beyond "file not
// written yet".
func (o *Orchestrator) runReportsStage(ctx context.Context, p *models.Project, target *models.PageSnapshot, competitors []*models.PageSnapshot, targetScore *models.ContentScore, competitorScores []models.ContentScore, gaps *models.GapReport, skipped []string, timings map[string]time.Duration) error {
	relPath := filepath.Join(dirReports, finalReportFile)

	report := finalReport{
		ProjectName:   p.ProjectName,
		Query:         p.Query,
		TargetURL:     p.TargetURL,
		TargetScore:   targetScore,
		Competitors:   competitorScores,
		SkippedURLs:   skipped,
		ContentBudget: o.contentBudget(target, competitors),
		StageSeconds:  stageSeconds(timings),
	}
	if gaps != nil {
		report.Gaps = *gaps
	}

	if err := o.store.writeJSON(p.ProjectName, relPath, report); err != nil {
		return err
	}
	if err := o.renderExecutiveSummary(p, target, competitors, targetScore, competitorScores, gaps, skipped, report.ContentBudget); err != nil {
		return err
	}
	return o.renderImplementationGuide(p, targetScore, gaps)
}

func (o *Orchestrator) contentBudget(target *models.PageSnapshot, competitors []*models.PageSnapshot) contentBudget {
	budget := contentBudget{CompetitorTokens: make(map[string]int, len(competitors))}
	if target != nil {
		budget.TargetTokens = o.tokens.Count(target.Text)
	}

	total := 0
	for _, c := range competitors {
		n := o.tokens.Count(c.Text)
		budget.CompetitorTokens[c.URL] = n
		total += n
	}
	if len(competitors) > 0 {
		budget.AverageCompetitor = float64(total) / float64(len(competitors))
	}
	return budget
}

func stageSeconds(timings map[string]time.Duration) map[string]float64 {
	out := make(map[string]float64, len(timings))
	for stage, d := range timings {
		out[stage] = d.Seconds()
	}
	return out
}
