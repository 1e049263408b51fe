package scraper

import (
	"context"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/models"
	"github.com/pricelens/stparts-scraper/proxydir"
)

// Pool owns a fixed set of proxies for one run and hands out reusable
// sessions under a round-robin discipline.
type Pool struct {
	cfg     *config.Config
	metrics *Metrics
	proxies []models.Proxy

	mu       sync.Mutex
	next     int
	sessions *lru.Cache[string, *Session]

	closeOnce sync.Once
}

// NewPool builds a pool over the given proxies. An empty slice is a
// valid degenerate pool.
func NewPool(proxies []models.Proxy, cfg *config.Config, metrics *Metrics) *Pool {
	size := len(proxies)
	if size == 0 {
		size = 1
	}
	sessions, _ := lru.NewWithEvict(size, func(_ string, s *Session) {
		s.close()
	})
	return &Pool{
		cfg:      cfg,
		metrics:  metrics,
		proxies:  proxies,
		sessions: sessions,
	}
}

// NewPoolFromDirectory populates a pool from the external proxy
// directory. A directory failure degrades to an empty pool so the run
// can still complete (without results) instead of crashing.
func NewPoolFromDirectory(ctx context.Context, dir proxydir.Directory, cfg *config.Config, metrics *Metrics) *Pool {
	proxies, err := dir.ListAvailable(ctx, models.ProxyType(cfg.ProxyTypeFilter))
	if err != nil {
		slog.Error("proxy directory lookup failed, continuing with an empty pool", slog.Any("error", err))
		proxies = nil
	}
	slog.Debug("proxy pool populated",
		slog.Int("proxies", len(proxies)),
		slog.String("type_filter", cfg.ProxyTypeFilter),
	)
	return NewPool(proxies, cfg, metrics)
}

// Acquire returns a session for the next proxy in the rotation, or nil
// when no proxies are configured. Sessions are memoized by proxy
// address:port so repeated acquisitions reuse one client.
func (p *Pool) Acquire() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	proxy := p.proxies[p.next]
	p.next = (p.next + 1) % len(p.proxies)

	if session, ok := p.sessions.Get(proxy.Key()); ok {
		return session
	}
	session, err := NewSession(proxy, p.cfg, p.metrics)
	if err != nil {
		slog.Error("building proxy session",
			slog.String("proxy", proxy.Key()),
			slog.Any("error", err),
		)
		return nil
	}
	p.sessions.Add(proxy.Key(), session)
	return session
}

// Release returns a session to the pool. It is a hook for a future
// cooldown policy on repeatedly failing proxies and currently does
// nothing.
func (p *Pool) Release(*Session) {}

// CloseAll tears down every live session. Subsequent calls are no-ops.
func (p *Pool) CloseAll() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// Purge fires the eviction callback, closing each session.
		p.sessions.Purge()
	})
}

// Size reports how many proxies the pool rotates over.
func (p *Pool) Size() int {
	return len(p.proxies)
}
