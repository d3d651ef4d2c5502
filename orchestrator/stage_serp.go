package orchestrator

import (
	"context"
	"path/filepath"

	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/serpclient"
)

const serpResultsFile = "serp_results.json"

// runSerpStage fetches the top-N organic results for the project's query.
// SERP failure is fatal: there is no substitute data source.
func (o *Orchestrator) runSerpStage(ctx context.Context, p *models.Project) (*models.SerpResult, error) {
	key := cacheKey(p.Query)
	relPath := filepath.Join(dirSerp, serpResultsFile)

	var cached serpArtifact
	if ok, err := o.store.readJSON(p.ProjectName, relPath, &cached); err == nil && ok && cached.CacheKey == key {
		return &cached.Result, nil
	}

	result, err := o.serp.Search(ctx, serpclient.Params{
		Query:      p.Query,
		Location:   o.serpCfg.Location,
		Language:   o.serpCfg.Language,
		NumResults: p.TopN,
		Device:     o.serpCfg.Device,
		TargetURL:  p.TargetURL,
	})
	if err != nil {
		return nil, models.NewPipelineError(models.ErrKindSerp, "serp search failed", err)
	}

	if err := o.store.writeJSON(p.ProjectName, relPath, serpArtifact{CacheKey: key, Result: *result}); err != nil {
		return nil, err
	}
	return result, nil
}
