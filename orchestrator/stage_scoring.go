package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/use-agent/seoscope/models"
)

const scoringFile = "content_scores.json"

// runScoringStage scores the target and every competitor snapshot.
// A per-snapshot scoring failure is recorded in that snapshot's
// ContentScore.Error and does not abort the stage.
func (o *Orchestrator) runScoringStage(ctx context.Context, p *models.Project, target *models.PageSnapshot, competitors []*models.PageSnapshot) (targetScore *models.ContentScore, competitorScores []models.ContentScore, err error) {
	all := competitors
	if target != nil {
		all = append([]*models.PageSnapshot{target}, competitors...)
	}

	key := snapshotsCacheKey(all, p.Query)
	relPath := filepath.Join(dirAnalysis, scoringFile)

	var cached scoringArtifact
	if ok, err := o.store.readJSON(p.ProjectName, relPath, &cached); err == nil && ok && cached.CacheKey == key {
		return splitScores(cached.Scores, target)
	}

	scores := make([]models.ContentScore, 0, len(all))
	for _, snap := range all {
		score := o.scorer.Score(ctx, snap, p.Query)
		scores = append(scores, *score)
	}

	if err := o.store.writeJSON(p.ProjectName, relPath, scoringArtifact{CacheKey: key, Scores: scores}); err != nil {
		return nil, nil, err
	}
	return splitScores(scores, target)
}

func splitScores(scores []models.ContentScore, target *models.PageSnapshot) (*models.ContentScore, []models.ContentScore, error) {
	var targetScore *models.ContentScore
	var competitorScores []models.ContentScore
	for i := range scores {
		s := scores[i]
		if target != nil && s.URL == target.URL {
			targetScore = &s
			continue
		}
		competitorScores = append(competitorScores, s)
	}
	return targetScore, competitorScores, nil
}
