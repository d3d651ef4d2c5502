package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/seoscope/config"
	"github.com/use-agent/seoscope/models"
	"github.com/use-agent/seoscope/proxypool"
)

// RodFetcher drives go-rod headless Chrome, one browser per distinct proxy,
// pooled and health-scored by BrowserPool.
type RodFetcher struct {
	cfg    config.FetcherConfig
	pool   *BrowserPool
	memory *DomainMemory
}

// New constructs a RodFetcher. Browsers are launched lazily on first Fetch.
func New(cfg config.FetcherConfig) *RodFetcher {
	f := &RodFetcher{
		cfg:    cfg,
		memory: NewDomainMemory(30 * time.Minute),
	}
	f.pool = NewBrowserPool(PoolConfig{
		MinBrowsers: 1,
		HardMax:     cfg.MaxConcurrentURLs * 2,
	}, f.launchBrowser)
	return f
}

func (f *RodFetcher) launchBrowser(proxyKey string) (*rod.Browser, error) {
	l := launcher.New().
		Headless(f.cfg.Headless).
		NoSandbox(f.cfg.NoSandbox)

	if f.cfg.BrowserBin != "" {
		l = l.Bin(f.cfg.BrowserBin)
	}
	if proxyKey != "" {
		l = l.Proxy(proxyKey)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrKindFetch, "failed to launch browser", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(models.ErrKindFetch, "failed to connect to browser", err)
	}
	return browser, nil
}

// Fetch loads targetURL through the given proxy (nil for none), waiting for
// network idle plus the configured settle duration.
func (f *RodFetcher) Fetch(ctx context.Context, targetURL string, proxy *proxypool.Proxy) (*Result, error) {
	proxyKey := ""
	if proxy != nil {
		proxyKey = proxy.URL()
	}

	domain := domainOf(targetURL)
	if proxyKey == "" {
		if remembered := f.memory.Get(domain); remembered != "" {
			proxyKey = remembered
		}
	}

	handle, err := f.pool.Get(proxyKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	result, fetchErr := f.fetchWithHandle(ctx, handle, targetURL)
	f.pool.Put(handle, fetchErr == nil)

	if fetchErr == nil {
		f.memory.Set(domain, proxyKey)
	} else {
		f.memory.Delete(domain)
	}
	return result, fetchErr
}

func (f *RodFetcher) fetchWithHandle(ctx context.Context, handle *browserHandle, targetURL string) (*Result, error) {
	page, err := handle.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewPipelineError(models.ErrKindFetch, "failed to create page", err)
	}
	defer func() {
		_ = page.Navigate("about:blank")
		_ = page.Close()
	}()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("fetcher: stealth injection failed, proceeding without it", "error", err)
	}

	p := page.Context(ctx)

	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to "+targetURL+" failed")
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("fetcher: WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	time.Sleep(f.cfg.SettleWait)

	var statusCode int
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	html, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	if html == "" {
		return nil, categorizeError(ErrEmptyBody, "empty page body")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	return &Result{
		HTML:       html,
		FinalURL:   finalURL,
		StatusCode: statusCode,
		Title:      title,
	}, nil
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// Close tears down the browser pool and stops the domain-memory cleanup
// goroutine. Call on graceful shutdown.
func (f *RodFetcher) Close() {
	f.pool.Close()
	f.memory.Stop()
}
