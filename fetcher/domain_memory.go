package fetcher

import (
	"sync"
	"time"
)

// domainEntry stores the proxy that last succeeded for a domain, with a TTL.
type domainEntry struct {
	proxyKey  string
	expiresAt time.Time
}

// DomainMemory remembers the proxy that last succeeded for each domain.
// RodFetcher.Fetch uses the remembered proxy only when its caller passes no
// proxy; a caller-supplied proxy is always used as given.
// Entries expire after the configured TTL and are pruned periodically.
type DomainMemory struct {
	store sync.Map // domain (string) -> *domainEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	dm := &DomainMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the remembered proxy key for a domain, or "" if unknown or
// expired.
func (dm *DomainMemory) Get(domain string) string {
	val, ok := dm.store.Load(domain)
	if !ok {
		return ""
	}
	entry := val.(*domainEntry)
	if time.Now().After(entry.expiresAt) {
		dm.store.Delete(domain)
		return ""
	}
	return entry.proxyKey
}

// Set records which proxy succeeded for a domain.
func (dm *DomainMemory) Set(domain, proxyKey string) {
	dm.store.Store(domain, &domainEntry{
		proxyKey:  proxyKey,
		expiresAt: time.Now().Add(dm.ttl),
	})
}

// Delete removes the memory for a domain, e.g. after the remembered proxy
// fails.
func (dm *DomainMemory) Delete(domain string) {
	dm.store.Delete(domain)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.store.Range(func(key, value any) bool {
				entry := value.(*domainEntry)
				if now.After(entry.expiresAt) {
					dm.store.Delete(key)
				}
				return true
			})
		}
	}
}
