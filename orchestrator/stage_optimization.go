package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/use-agent/seoscope/models"
)

const optimizationFile = "semantic_gaps.json"

// runOptimizationStage finds phrases competitors use that the target is
// missing. It requires a target phrase set; if scraping the target failed
// entirely, there is nothing to compare against and the stage is skipped
// with an empty report rather than failing the project.
func (o *Orchestrator) runOptimizationStage(ctx context.Context, p *models.Project, target *models.PhraseSet, competitors []*models.PhraseSet) (*models.GapReport, error) {
	if target == nil {
		return &models.GapReport{}, nil
	}

	key := phraseSetsCacheKey(target, competitors, p.Query)
	relPath := filepath.Join(dirOptimize, optimizationFile)

	var cached optimizationArtifact
	if ok, err := o.store.readJSON(p.ProjectName, relPath, &cached); err == nil && ok && cached.CacheKey == key {
		return &cached.Report, nil
	}

	report, err := o.gapAnalyzer.Analyze(ctx, target, competitors, p.Query)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrKindScoring, "gap analysis failed", err)
	}

	if err := o.store.writeJSON(p.ProjectName, relPath, optimizationArtifact{CacheKey: key, Report: *report}); err != nil {
		return nil, err
	}
	return report, nil
}

func phraseSetsCacheKey(target *models.PhraseSet, competitors []*models.PhraseSet, query string) string {
	parts := []string{query, target.SourceURL, itoa(len(target.Phrases))}
	for _, c := range competitors {
		parts = append(parts, c.SourceURL, itoa(len(c.Phrases)))
	}
	return cacheKey(parts...)
}
