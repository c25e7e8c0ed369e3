// Package sources holds the five content-source adapters the aggregator
// fans out to. Each adapter maps one query string to a normalized list of
// resource items; transport failures and non-2xx statuses surface as
// errors so the caller can discard them without aborting siblings.
package sources

import (
	"context"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
)

// Fetcher is the common shape of a content source.
type Fetcher interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Fetch returns resource items for one query. An empty list is a
	// legitimate answer, not an error.
	Fetch(ctx context.Context, query string) ([]models.ResourceItem, error)
}

// NewFetchers constructs the standard five-source set in the order the
// aggregator iterates them: discussion, video, encyclopedia, cast/crew,
// news. The order is load-bearing for deterministic dedupe.
func NewFetchers(cfg config.SourcesConfig, userAgent string) []Fetcher {
	http := NewHTTPClient(cfg.Timeout, cfg.Retries, cfg.Backoff, userAgent)
	return []Fetcher{
		NewRedditFetcher(cfg.Reddit, cfg.MaxResults, http),
		NewYouTubeFetcher(cfg.YouTube, http),
		NewWikipediaFetcher(cfg.Wikipedia, http),
		NewIMDbFetcher(),
		NewNewsFetcher(cfg.News, http),
	}
}
