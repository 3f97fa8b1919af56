package evidence

import (
	"context"
	"sync"

	"github.com/pkarpov/verity/internal/model"
	"github.com/pkarpov/verity/internal/util"
	"github.com/pkarpov/verity/internal/worker"
)

// Enricher fills in missing evidence excerpts by fetching the source pages
// concurrently. Fetches respect robots.txt and per-domain rate limits, and
// every failure is soft: a result that cannot be enriched is returned as-is.
type Enricher struct {
	fetcher    *Fetcher
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	maxWorkers int
}

// NewEnricher creates an enricher. maxWorkers bounds concurrent fetches.
func NewEnricher(fetcher *Fetcher, robots *util.RobotsChecker, limiter *worker.Limiter, maxWorkers int) *Enricher {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	return &Enricher{
		fetcher:    fetcher,
		robots:     robots,
		limiter:    limiter,
		maxWorkers: maxWorkers,
	}
}

// Enrich fetches excerpts for results that arrived without content
func (e *Enricher) Enrich(ctx context.Context, claim string, results []model.SearchResult) []model.SearchResult {
	enriched := make([]model.SearchResult, len(results))
	copy(enriched, results)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.maxWorkers)

	for i := range enriched {
		if enriched[i].Content != "" || enriched[i].URL == "" {
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			enriched[idx].Content = e.fetchExcerpt(ctx, claim, enriched[idx].URL)
		}(i)
	}

	wg.Wait()
	return enriched
}

// fetchExcerpt retrieves one page and extracts the best-matching excerpt.
// Returns "" on any failure or when robots.txt disallows the fetch.
func (e *Enricher) fetchExcerpt(ctx context.Context, claim, rawURL string) string {
	if e.robots != nil {
		allowed, crawlDelay, err := e.robots.CanFetch(ctx, rawURL)
		if err != nil || !allowed {
			return ""
		}
		if e.limiter != nil {
			if err := e.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
				return ""
			}
		}
	} else if e.limiter != nil {
		if err := e.limiter.Wait(ctx, rawURL); err != nil {
			return ""
		}
	}

	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return ""
	}
	return ExtractExcerpt(page.HTML, claim)
}
