package orchestrator

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/use-agent/seoscope/extractor"
	"github.com/use-agent/seoscope/fetcher"
	"github.com/use-agent/seoscope/models"
)

// fetchOutcome is the per-URL result of stage 03, used internally by
// fanOut; exactly one of Snapshot or FailureReason is set.
type fetchOutcome struct {
	URL           string
	Snapshot      *models.PageSnapshot
	FailureReason string
}

// runContentStage fetches and extracts the target URL plus every
// competitor URL from serp, reusing any on-disk snapshot whose query
// still matches. Per-URL failures are recorded and do not abort the stage.
func (o *Orchestrator) runContentStage(ctx context.Context, p *models.Project, serp *models.SerpResult) (target *models.PageSnapshot, competitors []*models.PageSnapshot, skipped []string, err error) {
	urls := append([]string{p.TargetURL}, serp.CompetitorURLs()...)

	outcomes := fanOut(ctx, urls, o.fetcherCfg.MaxConcurrentURLs, o.fetcherCfg.RatePerWorker,
		func(ctx context.Context, rawURL string) fetchOutcome {
			return o.fetchAndExtractOne(ctx, p, serp, rawURL)
		})

	for i, out := range outcomes {
		isTarget := urls[i] == p.TargetURL
		if out.Snapshot != nil {
			if isTarget {
				target = out.Snapshot
			} else {
				competitors = append(competitors, out.Snapshot)
			}
			continue
		}
		skipped = append(skipped, out.URL)
		o.recordFailedScrape(p.ProjectName, out.URL, out.FailureReason)
	}

	var deduped []string
	competitors, deduped = dropNearDuplicates(competitors)
	for _, url := range deduped {
		skipped = append(skipped, url)
		o.recordFailedScrape(p.ProjectName, url, "near-duplicate of another competitor")
	}

	return target, competitors, skipped, nil
}

// dropNearDuplicates keeps the first snapshot of each near-duplicate
// cluster (by SimHash over extracted text) and reports the URLs of the
// rest, so stage 04/05 never score the same content twice.
func dropNearDuplicates(competitors []*models.PageSnapshot) (kept []*models.PageSnapshot, dropped []string) {
	kept = make([]*models.PageSnapshot, 0, len(competitors))
	for _, candidate := range competitors {
		duplicate := false
		for _, keeper := range kept {
			if extractor.NearDuplicate(candidate, keeper) {
				duplicate = true
				break
			}
		}
		if duplicate {
			slog.Info("orchestrator: dropping near-duplicate competitor", "url", candidate.URL)
			dropped = append(dropped, candidate.URL)
			continue
		}
		kept = append(kept, candidate)
	}
	return kept, dropped
}

func (o *Orchestrator) fetchAndExtractOne(ctx context.Context, p *models.Project, serp *models.SerpResult, rawURL string) fetchOutcome {
	isTarget := rawURL == p.TargetURL
	slug := models.Slug(rawURL)
	relPath := filepath.Join(dirContent, dirExtracted, slug+".json")

	var existing models.PageSnapshot
	if ok, err := o.store.readJSON(p.ProjectName, relPath, &existing); err == nil && ok && existing.Reusable(rawURL, p.Query) {
		return fetchOutcome{URL: rawURL, Snapshot: &existing}
	}

	result, err := o.withProxyRetry(ctx, rawURL)
	if err != nil {
		return fetchOutcome{URL: rawURL, FailureReason: err.Error()}
	}
	o.backupRawHTML(p.ProjectName, slug, rawURL, result.HTML)

	ranking := models.NotRanking
	for _, r := range serp.OrganicResults {
		if r.URL == rawURL {
			ranking = itoa(r.Position)
			break
		}
	}

	snap, err := o.extractor.Extract(result.HTML, rawURL, result.FinalURL, p.Query, ranking, isTarget)
	if err != nil {
		return fetchOutcome{URL: rawURL, FailureReason: err.Error()}
	}
	snap.Query = p.Query
	snap.ScrapingTimestamp = time.Now()

	if err := o.store.writeJSON(p.ProjectName, relPath, snap); err != nil {
		return fetchOutcome{URL: rawURL, FailureReason: err.Error()}
	}
	return fetchOutcome{URL: rawURL, Snapshot: snap}
}

// withProxyRetry retries a fetch across proxies with exponential backoff.
// Pool.Next already recycles the failed set once every proxy has been
// marked bad, so a persistent failure here means the pool is truly
// exhausted, not merely that one proxy is down.
func (o *Orchestrator) withProxyRetry(ctx context.Context, rawURL string) (*fetcher.Result, error) {
	delay := o.fetcherCfg.ProxyRetryBase
	var lastErr error

	for attempt := 0; attempt <= o.fetcherCfg.MaxProxyRetries; attempt++ {
		p := o.proxyPool.Next()
		result, err := o.fetcher.Fetch(ctx, rawURL, p)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if p != nil {
			o.proxyPool.MarkFailed(*p)
		}

		if attempt == o.fetcherCfg.MaxProxyRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, models.NewPipelineError(models.ErrKindProxyExhausted, "all proxies failed for "+rawURL, lastErr)
}

func (o *Orchestrator) recordFailedScrape(projectName, rawURL, reason string) {
	relPath := filepath.Join(dirContent, dirFailed, models.Slug(rawURL)+".json")
	_ = o.store.writeJSON(projectName, relPath, map[string]string{"url": rawURL, "reason": reason})
}

// backupRawHTML persists the raw HTML for every fetched URL alongside a
// best-effort Markdown rendition, independent of whether extraction later
// succeeds. A rendering failure is logged and skipped, not fatal.
func (o *Orchestrator) backupRawHTML(projectName, slug, rawURL, html string) {
	backup := rawBackup{URL: rawURL, RawHTML: html}
	if md, err := o.markdown.Render(html, domainOf(rawURL)); err == nil {
		backup.Markdown = md
	}
	relPath := filepath.Join(dirContent, dirRawBackups, slug+".json")
	_ = o.store.writeJSON(projectName, relPath, backup)
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
