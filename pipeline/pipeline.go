// Package pipeline orchestrates the stparts fetch-parse-rank run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/models"
	"github.com/pricelens/stparts-scraper/parser"
	"github.com/pricelens/stparts-scraper/proxydir"
	"github.com/pricelens/stparts-scraper/scraper"
)

// Source fetches and parses the offers for one article code through a
// proxy session.
type Source interface {
	Offers(ctx context.Context, session *scraper.Session, article string, includeAnalogs bool) ([]models.Offer, error)
}

// SiteSource is the stparts.ru implementation of Source.
type SiteSource struct {
	fetcher *scraper.Fetcher
}

// NewSiteSource builds a source rooted at the marketplace base URL.
func NewSiteSource(baseURL string) *SiteSource {
	return &SiteSource{fetcher: scraper.NewFetcher(baseURL)}
}

// Offers retrieves the final result page for the article and parses it.
func (s *SiteSource) Offers(ctx context.Context, session *scraper.Session, article string, includeAnalogs bool) ([]models.Offer, error) {
	html, sourceURL, err := s.fetcher.FetchArticle(ctx, session, article)
	if err != nil {
		return nil, err
	}
	return parser.ParseOffers(html, sourceURL, includeAnalogs), nil
}

// Pipeline fans article codes out across a bounded worker budget,
// aggregates parsed offers, and produces the ranked result set.
type Pipeline struct {
	cfg      *config.Config
	dir      proxydir.Directory
	source   Source
	reporter Reporter
	metrics  *scraper.Metrics
}

// New builds a pipeline. A nil source defaults to the live site; a nil
// reporter defaults to console logging.
func New(cfg *config.Config, dir proxydir.Directory, source Source, reporter Reporter, metrics *scraper.Metrics) *Pipeline {
	if source == nil {
		source = NewSiteSource(cfg.BaseURL)
	}
	if reporter == nil {
		reporter = ConsoleReporter{}
	}
	return &Pipeline{
		cfg:      cfg,
		dir:      dir,
		source:   source,
		reporter: reporter,
		metrics:  metrics,
	}
}

// Run processes the article codes and returns the ranked, capped offer
// list. Per-article failures are reported, never raised; duplicates in
// articles are processed independently.
func (p *Pipeline) Run(ctx context.Context, articles []string) ([]models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := scraper.NewPoolFromDirectory(ctx, p.dir, p.cfg, p.metrics)
	defer pool.CloseAll()

	p.reporter.ReportStep(StepFetching, StatusInProgress, nil)

	var (
		mu        sync.Mutex
		offers    []models.Offer
		completed int
	)
	total := len(articles)

	finish := func(article string, parsed []models.Offer, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.Error("article processing failed",
				slog.String("article", article),
				slog.Any("error", err),
			)
			p.metrics.IncArticleFailed()
			p.reporter.ReportStep(StepFetching, StatusFailure, map[string]string{
				"article": article,
				"error":   err.Error(),
			})
		} else {
			p.metrics.AddOffers(len(parsed))
			offers = append(offers, parsed...)
		}
		completed++
		progress := int(math.Round(float64(completed) / float64(total) * 100))
		p.reporter.ReportPercentage(StepFetching, progress)
	}

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, article := range articles {
		wg.Add(1)
		go func(article string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				finish(article, nil, ctx.Err())
				return
			}
			defer func() { <-sem }()

			session := pool.Acquire()
			if session == nil {
				// No usable proxy: skipped, not failed.
				finish(article, nil, nil)
				return
			}
			defer pool.Release(session)

			parsed, err := p.articleOffers(ctx, session, article)
			finish(article, parsed, err)
		}(article)
	}
	wg.Wait()
	pool.CloseAll()

	p.reporter.ReportStep(StepFetching, StatusSuccess, nil)
	p.reporter.ReportStep(StepFiltering, StatusInProgress, nil)
	ranked := rankOffers(offers, p.cfg.OffersPerArticle)
	p.reporter.ReportStep(StepFiltering, StatusSuccess, nil)

	return ranked, nil
}

// articleOffers is the per-task boundary: any panic from an
// unanticipated condition is converted to an error so one article can
// never abort the run.
func (p *Pipeline) articleOffers(ctx context.Context, session *scraper.Session, article string) (offers []models.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("article %s: panic: %v", article, r)
		}
	}()
	return p.source.Offers(ctx, session, article, p.cfg.IncludeAnalogs)
}
