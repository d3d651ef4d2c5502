package orchestrator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/use-agent/seoscope/models"
)

const processingFile = "processed_content.json"

// runProcessingStage mines phrases and computes an embedding for the
// target and every successfully-fetched competitor snapshot. Embedding
// failure is fatal: downstream scoring and gap analysis cannot proceed
// without vectors.
func (o *Orchestrator) runProcessingStage(ctx context.Context, p *models.Project, target *models.PageSnapshot, competitors []*models.PageSnapshot) (targetPhrases *models.PhraseSet, competitorPhrases []*models.PhraseSet, err error) {
	all := competitors
	if target != nil {
		all = append([]*models.PageSnapshot{target}, competitors...)
	}

	key := snapshotsCacheKey(all, p.Query)
	relPath := filepath.Join(dirProcessing, processingFile)

	var cached processingArtifact
	if ok, err := o.store.readJSON(p.ProjectName, relPath, &cached); err == nil && ok && cached.CacheKey == key {
		return splitProcessed(cached.Snapshots, target)
	}

	processed := make([]processedSnapshot, 0, len(all))
	for _, snap := range all {
		phrases := o.miner.Extract(snap.Text, snap.URL)

		vecs, err := o.engine.Encode(ctx, []string{snap.Text})
		if err != nil {
			return nil, nil, models.NewPipelineError(models.ErrKindEmbedding, "encoding snapshot failed: "+snap.URL, err)
		}
		row := vecs.RawRowView(0)
		emb := make(models.Embedding, len(row))
		for i, v := range row {
			emb[i] = float32(v)
		}

		processed = append(processed, processedSnapshot{
			Phrases:   *phrases,
			Embedding: emb,
			CacheKey:  cacheKey(snap.URL, p.Query),
		})
	}

	if err := o.store.writeJSON(p.ProjectName, relPath, processingArtifact{CacheKey: key, Snapshots: processed}); err != nil {
		return nil, nil, err
	}
	return splitProcessed(processed, target)
}

func splitProcessed(processed []processedSnapshot, target *models.PageSnapshot) (*models.PhraseSet, []*models.PhraseSet, error) {
	var targetPhrases *models.PhraseSet
	var competitorPhrases []*models.PhraseSet
	for i := range processed {
		ps := processed[i].Phrases
		if target != nil && ps.SourceURL == target.URL {
			targetPhrases = &ps
			continue
		}
		competitorPhrases = append(competitorPhrases, &ps)
	}
	return targetPhrases, competitorPhrases, nil
}

func snapshotsCacheKey(snaps []*models.PageSnapshot, query string) string {
	parts := []string{query}
	for _, s := range snaps {
		parts = append(parts, s.URL, s.ScrapingTimestamp.UTC().Format(time.RFC3339Nano))
	}
	return cacheKey(parts...)
}
