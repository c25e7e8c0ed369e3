package discovery

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/clipexplain/clipexplain/internal/sources"
	"github.com/clipexplain/clipexplain/internal/telemetry"
	"github.com/clipexplain/clipexplain/models"
)

// Aggregator fans queries out across all source fetchers and merges the
// results into a single deduplicated item list.
type Aggregator struct {
	fetchers []sources.Fetcher
	tele     *telemetry.Telemetry
	logger   *log.Logger
}

func NewAggregator(fetchers []sources.Fetcher, tele *telemetry.Telemetry, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGGREGATE] ", log.LstdFlags)
	}
	return &Aggregator{fetchers: fetchers, tele: tele, logger: logger}
}

// Aggregate issues all queries × fetchers calls concurrently and waits
// for every one to settle. A failed or timed-out fetcher contributes zero
// items and never aborts its siblings: this is a settle-all join, not a
// fail-fast one, because source outages are routine.
//
// Deduplication keeps the first-seen item per URL in query-major,
// fetcher-minor order, so output is deterministic for a given input
// regardless of which goroutine finished first.
func (a *Aggregator) Aggregate(ctx context.Context, queries []string) []models.ResourceItem {
	if len(queries) == 0 || len(a.fetchers) == 0 {
		return nil
	}

	// results[qi][fi] holds the settled outcome of one call. Each cell
	// is written by exactly one goroutine, so no lock is needed.
	results := make([][][]models.ResourceItem, len(queries))
	for qi := range results {
		results[qi] = make([][]models.ResourceItem, len(a.fetchers))
	}

	var wg sync.WaitGroup
	for qi, query := range queries {
		for fi, fetcher := range a.fetchers {
			wg.Add(1)
			go func(qi, fi int, query string, fetcher sources.Fetcher) {
				defer wg.Done()
				start := time.Now()
				items, err := fetcher.Fetch(ctx, query)
				a.tele.RecordSource(telemetry.SourceEvent{
					Source:   fetcher.Name(),
					Query:    query,
					Duration: time.Since(start),
					Success:  err == nil,
					Results:  len(items),
				})
				if err != nil {
					a.logger.Printf("fetcher %s failed for %q: %v", fetcher.Name(), query, err)
					return
				}
				results[qi][fi] = items
			}(qi, fi, query, fetcher)
		}
	}
	wg.Wait()

	return dedupeByURL(results)
}

// dedupeByURL flattens the settled result grid keeping the first item
// observed per URL. Items without a URL are dropped: the URL is the
// identity key.
func dedupeByURL(results [][][]models.ResourceItem) []models.ResourceItem {
	seen := make(map[string]bool)
	var out []models.ResourceItem
	for _, perQuery := range results {
		for _, perFetcher := range perQuery {
			for _, item := range perFetcher {
				if item.URL == "" || seen[item.URL] {
					continue
				}
				seen[item.URL] = true
				out = append(out, item)
			}
		}
	}
	return out
}
