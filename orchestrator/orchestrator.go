// Package orchestrator drives a project through its fixed stage sequence,
// persisting a resumable artifact after each stage and enforcing that at
// most one process runs a given project at a time.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/extractor"
	"github.com/use-agent/seoscope/fetcher"
	"github.com/use-agent/seoscope/gapanalyzer"
	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/phraseminer"
	"github.com/use-agent/seoscope/proxypool"
	"github.com/use-agent/seoscope/reportstats"
	"github.com/use-agent/seoscope/scorer"
	"github.com/use-agent/seoscope/serpclient"
)

// Orchestrator wires every pipeline component together and drives a single
// project through 02_serp_results .. 07_final_reports.
type Orchestrator struct {
	store       *ProjectStore
	proxyPool   *proxypool.Pool
	fetcher     fetcher.Fetcher
	extractor   *extractor.Extractor
	miner       *phraseminer.Miner
	engine      embedding.Engine
	scorer      *scorer.Scorer
	gapAnalyzer *gapanalyzer.Analyzer
	serp        serpclient.Client
	markdown    *reportstats.MarkdownRenderer
	tokens      *reportstats.TokenCounter

	fetcherCfg config.FetcherConfig
	serpCfg    config.SerpConfig
	orchCfg    config.OrchestratorConfig
}

// New assembles an Orchestrator from its already-constructed dependencies.
func New(
	store *ProjectStore,
	pool *proxypool.Pool,
	f fetcher.Fetcher,
	ex *extractor.Extractor,
	miner *phraseminer.Miner,
	engine embedding.Engine,
	sc *scorer.Scorer,
	ga *gapanalyzer.Analyzer,
	serp serpclient.Client,
	fetcherCfg config.FetcherConfig,
	serpCfg config.SerpConfig,
	orchCfg config.OrchestratorConfig,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		proxyPool:   pool,
		fetcher:     f,
		extractor:   ex,
		miner:       miner,
		engine:      engine,
		scorer:      sc,
		gapAnalyzer: ga,
		serp:        serp,
		markdown:    reportstats.NewMarkdownRenderer(),
		tokens:      reportstats.NewTokenCounter(),
		fetcherCfg:  fetcherCfg,
		serpCfg:     serpCfg,
		orchCfg:     orchCfg,
	}
}

// Run drives an existing or freshly-created project through every stage in
// models.StageOrder, skipping stages whose cached artifact is still valid.
// The project-directory lock is held for the full call and released on
// every return path, including a panic recovered by the caller. onProgress,
// if non-nil, is invoked once per stage immediately after its checkpoint is
// persisted, so a caller tracking an asynchronous job can report granular
// progress instead of only a terminal state.
func (o *Orchestrator) Run(ctx context.Context, projectName, query, targetURL string, topN int, onProgress func(stage string)) (*models.Project, error) {
	lock, err := acquireLock(o.store.Dir(projectName))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			slog.Warn("orchestrator: failed to release lock", "project", projectName, "error", err)
		}
	}()

	p, err := o.store.Load(projectName)
	if err != nil {
		p, err = o.store.Create(projectName, query, targetURL, topN)
		if err != nil {
			return nil, err
		}
	}

	p.Status = models.StatusRunning
	p.LastError = ""
	if err := o.store.Save(p); err != nil {
		return nil, err
	}

	if err := o.runStages(ctx, p, onProgress); err != nil {
		p.Status = models.StatusFailed
		p.LastError = err.Error()
		if saveErr := o.store.Save(p); saveErr != nil {
			slog.Error("orchestrator: failed to persist failure state", "project", projectName, "error", saveErr)
		}
		return p, err
	}

	p.Status = models.StatusCompleted
	if err := o.store.Save(p); err != nil {
		return p, err
	}
	return p, nil
}

func (o *Orchestrator) runStages(ctx context.Context, p *models.Project, onProgress func(stage string)) error {
	timings := make(map[string]time.Duration, len(models.StageOrder))
	timed := func(stage string, fn func() error) error {
		start := time.Now()
		err := fn()
		timings[stage] = time.Since(start)
		return err
	}

	var serp *models.SerpResult
	if err := timed(models.StageSerpResults, func() error {
		var err error
		serp, err = o.runSerpStage(ctx, p)
		return err
	}); err != nil {
		return err
	}
	if err := o.checkpoint(p, models.StageSerpResults, onProgress); err != nil {
		return err
	}

	var target *models.PageSnapshot
	var competitors []*models.PageSnapshot
	var skipped []string
	if err := timed(models.StageCompetitorContent, func() error {
		var err error
		target, competitors, skipped, err = o.runContentStage(ctx, p, serp)
		return err
	}); err != nil {
		return err
	}
	if err := o.checkpoint(p, models.StageCompetitorContent, onProgress); err != nil {
		return err
	}

	var targetPhrases *models.PhraseSet
	var competitorPhrases []*models.PhraseSet
	if err := timed(models.StageContentProcessing, func() error {
		var err error
		targetPhrases, competitorPhrases, err = o.runProcessingStage(ctx, p, target, competitors)
		return err
	}); err != nil {
		return err
	}
	if err := o.checkpoint(p, models.StageContentProcessing, onProgress); err != nil {
		return err
	}

	var targetScore *models.ContentScore
	var competitorScores []models.ContentScore
	if err := timed(models.StageCompetitiveScoring, func() error {
		var err error
		targetScore, competitorScores, err = o.runScoringStage(ctx, p, target, competitors)
		return err
	}); err != nil {
		return err
	}
	if err := o.checkpoint(p, models.StageCompetitiveScoring, onProgress); err != nil {
		return err
	}

	var gaps *models.GapReport
	if err := timed(models.StageOptimization, func() error {
		var err error
		gaps, err = o.runOptimizationStage(ctx, p, targetPhrases, competitorPhrases)
		return err
	}); err != nil {
		return err
	}
	if err := o.checkpoint(p, models.StageOptimization, onProgress); err != nil {
		return err
	}

	reportsStart := time.Now()
	if err := timed(models.StageFinalReports, func() error {
		// The summary written by this stage includes its own entry, measured
		// up to the point the reports are rendered.
		timings[models.StageFinalReports] = time.Since(reportsStart)
		return o.runReportsStage(ctx, p, target, competitors, targetScore, competitorScores, gaps, skipped, timings)
	}); err != nil {
		return err
	}
	return o.checkpoint(p, models.StageFinalReports, onProgress)
}

func (o *Orchestrator) checkpoint(p *models.Project, stage string, onProgress func(stage string)) error {
	p.MarkCompleted(stage)
	if err := o.store.Save(p); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(stage)
	}
	return nil
}
