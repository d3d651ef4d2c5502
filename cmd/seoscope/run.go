package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/embedding"
	"github.com/use-agent/seoscope/extractor"
	"github.com/use-agent/seoscope/fetcher"
	"github.com/use-agent/seoscope/gapanalyzer"
	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/orchestrator"
	"github.com/use-agent/seoscope/phraseminer"
	"github.com/use-agent/seoscope/proxypool"
	"github.com/use-agent/seoscope/scorer"
	"github.com/use-agent/seoscope/serpclient"
)

var (
	projectName string
	query       string
	targetURL   string
	topN        int
	fresh       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run (or resume) a competitive content analysis project",
	Long: `Run discovers the top-ranking competitors for --query, scrapes and
scores them against --target-url, and writes a semantic-gap report.

A project is identified by --project; running the same name again resumes
from the last completed stage unless --fresh starts it over.`,
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().StringVar(&projectName, "project", "", "project name (required)")
	runCmd.Flags().StringVar(&query, "query", "", "search query to analyze (required for a new project)")
	runCmd.Flags().StringVar(&targetURL, "target-url", "", "the URL being evaluated against competitors (required for a new project)")
	runCmd.Flags().IntVar(&topN, "top-n", 0, "number of competitor URLs to analyze (default: config SEOSCOPE_TOP_N)")
	runCmd.Flags().Bool("resume", true, "resume from existing project state (the default; --fresh overrides it)")
	runCmd.Flags().BoolVar(&fresh, "fresh", false, "ignore any existing project state and start over")
	_ = runCmd.MarkFlagRequired("project")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	initLogger(cfg.Log)

	if topN <= 0 {
		topN = cfg.Serp.TopN
	}

	store, err := orchestrator.NewProjectStore(cfg.Orchestrator.ProjectsDir)
	if err != nil {
		slog.Error("failed to initialize project store", "error", err)
		return exitFatalError
	}

	if fresh {
		if err := discardExisting(store, projectName); err != nil {
			slog.Error("failed to discard existing project state", "project", projectName, "error", err)
			return exitFatalError
		}
	}

	pool := proxypool.New(proxypool.Strategy(cfg.Proxy.Strategy))
	if cfg.Proxy.FilePath != "" {
		f, err := os.Open(cfg.Proxy.FilePath)
		if err != nil {
			slog.Error("failed to open proxy file", "path", cfg.Proxy.FilePath, "error", err)
			return exitFatalError
		}
		defer f.Close()
		if err := pool.Load(f); err != nil {
			slog.Error("failed to parse proxy file", "path", cfg.Proxy.FilePath, "error", err)
			return exitFatalError
		}
	}

	rodFetcher := fetcher.New(cfg.Fetcher)
	defer rodFetcher.Close()

	engine, err := buildEmbeddingEngine(cfg.Embedding)
	if err != nil {
		slog.Error("failed to initialize embedding engine", "error", err)
		return exitFatalError
	}

	serpProvider := serpclient.NewSerpAPIClient(cfg.Serp.APIKey, "")

	orch := orchestrator.New(
		store,
		pool,
		rodFetcher,
		extractor.New(),
		phraseminer.New(),
		engine,
		scorer.New(engine, cfg.Scorer),
		gapanalyzer.New(engine),
		serpProvider,
		cfg.Fetcher,
		cfg.Serp,
		cfg.Orchestrator,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	onProgress := func(stage string) {
		slog.Info("stage completed", "project", projectName, "stage", stage)
	}
	project, err := orch.Run(ctx, projectName, query, targetURL, topN, onProgress)
	slog.Info("run finished", "project", projectName, "elapsed", time.Since(start))

	if err != nil {
		if pe, ok := err.(*models.PipelineError); ok && pe.Kind == models.ErrKindLockHeld {
			slog.Error("project is already running", "error", err)
			return exitLockContention
		}
		slog.Error("run failed", "project", projectName, "error", err)
		if project != nil && len(project.StepsCompleted) > 0 {
			return exitPartialSuccess
		}
		return exitFatalError
	}

	fmt.Printf("project %q completed: %d/%d stages\n", projectName, len(project.StepsCompleted), len(models.StageOrder))
	return nil
}

func buildEmbeddingEngine(cfg config.EmbeddingConfig) (embedding.Engine, error) {
	if cfg.RemoteURL == "" {
		return embedding.NewLocalEngine(cfg.Dimension, cfg.BatchSize), nil
	}
	return embedding.NewRemoteEngine(cfg.RemoteURL, cfg.RemoteKey, cfg.Model, cfg.Dimension, cfg.BatchSize), nil
}

// discardExisting removes a project's directory so --fresh truly starts
// from scratch rather than merely ignoring the cache-key skip logic.
func discardExisting(store *orchestrator.ProjectStore, name string) error {
	dir := store.Dir(name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}
