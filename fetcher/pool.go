package fetcher

import (
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
)

// browserHandle wraps a launched browser with health-tracking metadata, so
// that a browser that keeps failing navigations gets retired instead of
// reused indefinitely.
type browserHandle struct {
	id       int64
	browser  *rod.Browser
	proxyKey string // "" means "no proxy"
	errScore float64
	useCount int
	created  time.Time
	mu       sync.Mutex
}

func (h *browserHandle) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore = math.Max(0, h.errScore-0.5)
}

func (h *browserHandle) recordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useCount++
	h.errScore += 1.0
}

func (h *browserHandle) shouldRetire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.errScore >= 3.0 {
		return true
	}
	if h.useCount >= 50 {
		return true
	}
	if time.Since(h.created) >= 50*time.Minute {
		return true
	}
	return false
}

// PoolConfig controls the browser pool's sizing behavior.
type PoolConfig struct {
	MinBrowsers  int     // default: 1
	HardMax      int     // default: 8
	MemThreshold float64 // default: 0.9, fraction of heap in use
	ScaleStep    float64 // default: 0.1, fraction to shrink per interval
}

// BrowserFactory launches a new browser configured for the given proxy key
// ("" for no proxy).
type BrowserFactory func(proxyKey string) (*rod.Browser, error)

// BrowserPool keeps a small set of warm browser instances around, indexed
// by the proxy they were launched with, so repeated fetches through the
// same proxy don't pay browser-launch cost every time. Unhealthy browsers
// are retired and replaced.
type BrowserPool struct {
	cfg     PoolConfig
	factory BrowserFactory

	mu      sync.Mutex
	idle    map[string][]*browserHandle // proxyKey -> idle handles
	all     map[int64]*browserHandle
	nextID  atomic.Int64
	active  atomic.Int32
	stopped chan struct{}
}

// NewBrowserPool creates a pool. It does not pre-launch anything — browsers
// are created lazily per distinct proxy on first use.
func NewBrowserPool(cfg PoolConfig, factory BrowserFactory) *BrowserPool {
	if cfg.MinBrowsers < 1 {
		cfg.MinBrowsers = 1
	}
	if cfg.HardMax <= 0 {
		cfg.HardMax = 8
	}
	if cfg.HardMax < cfg.MinBrowsers {
		cfg.HardMax = cfg.MinBrowsers
	}
	if cfg.MemThreshold <= 0 {
		cfg.MemThreshold = 0.9
	}
	if cfg.ScaleStep <= 0 {
		cfg.ScaleStep = 0.1
	}
	bp := &BrowserPool{
		cfg:     cfg,
		factory: factory,
		idle:    make(map[string][]*browserHandle),
		all:     make(map[int64]*browserHandle),
		stopped: make(chan struct{}),
	}
	go bp.scalingLoop()
	return bp
}

// Get returns a warm browser for proxyKey, launching one if necessary and
// evicting an idle browser under a different key if at capacity.
func (bp *BrowserPool) Get(proxyKey string) (*browserHandle, error) {
	bp.mu.Lock()
	if handles := bp.idle[proxyKey]; len(handles) > 0 {
		h := handles[len(handles)-1]
		bp.idle[proxyKey] = handles[:len(handles)-1]
		bp.mu.Unlock()
		bp.active.Add(1)
		return h, nil
	}

	if len(bp.all) >= bp.cfg.HardMax {
		if evicted := bp.evictOneIdleLocked(); !evicted {
			// At capacity with none idle: caller's request still proceeds by
			// launching over-capacity rather than blocking the orchestrator.
			slog.Warn("fetcher: browser pool at hard max with no idle handle, launching anyway", "proxy", proxyKey)
		}
	}
	bp.mu.Unlock()

	browser, err := bp.factory(proxyKey)
	if err != nil {
		return nil, err
	}
	h := &browserHandle{
		id:       bp.nextID.Add(1),
		browser:  browser,
		proxyKey: proxyKey,
		created:  time.Now(),
	}
	bp.mu.Lock()
	bp.all[h.id] = h
	bp.mu.Unlock()
	bp.active.Add(1)
	return h, nil
}

// Put returns a handle to the pool, retiring it if unhealthy.
func (bp *BrowserPool) Put(h *browserHandle, success bool) {
	bp.active.Add(-1)
	if success {
		h.recordSuccess()
	} else {
		h.recordFailure()
	}

	if h.shouldRetire() {
		slog.Debug("fetcher: retiring browser", "id", h.id, "proxy", h.proxyKey, "useCount", h.useCount)
		bp.destroy(h)
		return
	}

	bp.mu.Lock()
	bp.idle[h.proxyKey] = append(bp.idle[h.proxyKey], h)
	bp.mu.Unlock()
}

// evictOneIdleLocked destroys one idle handle from any key to make room.
// Caller must hold bp.mu.
func (bp *BrowserPool) evictOneIdleLocked() bool {
	for key, handles := range bp.idle {
		if len(handles) > 0 {
			h := handles[0]
			bp.idle[key] = handles[1:]
			delete(bp.all, h.id)
			go h.browser.MustClose()
			return true
		}
	}
	return false
}

func (bp *BrowserPool) destroy(h *browserHandle) {
	bp.mu.Lock()
	delete(bp.all, h.id)
	bp.mu.Unlock()
	h.browser.MustClose()
}

// Close tears down every tracked browser, idle or not.
func (bp *BrowserPool) Close() {
	close(bp.stopped)
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, h := range bp.all {
		h.browser.MustClose()
	}
	bp.all = make(map[int64]*browserHandle)
	bp.idle = make(map[string][]*browserHandle)
}

func (bp *BrowserPool) scalingLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-bp.stopped:
			return
		case <-ticker.C:
			bp.scaleCheck()
		}
	}
}

// scaleCheck shrinks the pool under memory pressure, mirroring the
// heap-fraction heuristic used elsewhere in this codebase for resource
// pools under load.
func (bp *BrowserPool) scaleCheck() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	var memPressure float64
	if m.HeapSys > 0 {
		memPressure = float64(m.HeapInuse) / float64(m.HeapSys)
	}
	if memPressure <= bp.cfg.MemThreshold {
		return
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	total := len(bp.all)
	if total <= bp.cfg.MinBrowsers {
		return
	}
	shrinkCount := int(math.Ceil(float64(total) * bp.cfg.ScaleStep))
	for i := 0; i < shrinkCount; i++ {
		if len(bp.all) <= bp.cfg.MinBrowsers {
			return
		}
		if !bp.evictOneIdleLocked() {
			return
		}
	}
}
